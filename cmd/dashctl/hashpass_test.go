package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsesrobotics/dashboard/internal/auth"
)

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("S3cret-pass\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "S3cret-pass", got)

	got, err = readLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)
}

func TestHashpass_FromPipe(t *testing.T) {
	input := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(input, []byte("Password123\n"), 0o600))

	f, err := os.Open(input)
	require.NoError(t, err)
	defer f.Close()

	stdin := os.Stdin
	os.Stdin = f
	defer func() { os.Stdin = stdin }()

	cmd := newHashpassCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--algo", "argon2id"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, auth.NewPasswordHasher("").Verify(hash, "Password123"))
}

func TestHashpass_UnknownAlgorithm(t *testing.T) {
	cmd := newHashpassCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--algo", "md5"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "unknown algorithm")
}
