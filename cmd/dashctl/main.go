package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dashctl",
		Short:         "Administration tool for the robotics dashboard",
		Long:          "Hash passwords for hand-seeded users and prepare the user store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newHashpassCmd(), newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
