package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/teamkb-be/internal/config"
	"github.com/isdelr/teamkb-be/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kb",
	Short: "Team knowledge base API server",
	Long: `kb serves the team knowledge base HTTP API.

Without a subcommand it behaves like "kb serve". Configuration is read
from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Init(cfg.Server.LogLevel, cfg.IsDevelopment())
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
