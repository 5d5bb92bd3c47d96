package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "rpsctl",
		Short: "CLI tool for the rock-paper-scissors arena API",
		Long: `rpsctl is a CLI tool for interacting with the rpsarena JSON API.

It covers player management, matchmaking, private rooms, game play,
standings and operator maintenance.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: RPSCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: RPSCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: RPSCTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
