/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wordbank/dictionary/config"
	"github.com/wordbank/dictionary/internal/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "A multi-user vocabulary dictionary",
	Long: `A multi-user vocabulary dictionary. Teachers curate categories and words,
students browse them by category, level or search.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it until
// SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, err
	}
	logger.Configure(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	return cfg, nil
}
