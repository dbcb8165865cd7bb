// Package cli wires the khsm commands: schema migration, question-bank
// seeding, a console game driver and the balance leaderboard.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config"
	}

	cmd := &cobra.Command{
		Use:   "khsm",
		Short: "Who Wants to Be a Millionaire game engine",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "directory containing config.yaml")
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newPlayCmd())
	cmd.AddCommand(newTopCmd())
	return cmd
}
