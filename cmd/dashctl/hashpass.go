package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marsesrobotics/dashboard/internal/auth"
	"github.com/marsesrobotics/dashboard/internal/config"
)

func newHashpassCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hashpass",
		Short: "Print a password hash for seeding users by hand",
		Long:  "Prompts for a password without echo (or reads one line from stdin when it is not a terminal) and prints the encoded hash.",
		RunE:  runHashpass,
	}
	cmd.Flags().String("algo", config.PasswordHashArgon2id, "Hash algorithm (argon2id, bcrypt)")
	return cmd
}

func runHashpass(cmd *cobra.Command, _ []string) error {
	algo, _ := cmd.Flags().GetString("algo")
	if algo != config.PasswordHashArgon2id && algo != config.PasswordHashBcrypt {
		return fmt.Errorf("unknown algorithm %q", algo)
	}

	password, err := readPassword(os.Stdin)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.NewPasswordHasher(algo).Hash(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func readPassword(f *os.File) (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return readLine(f)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
