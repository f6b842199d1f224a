/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/internal/logger"
)

// schemaCmd represents the schema command.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the database schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the dictionary tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Str("driver", cfg.Database.Driver).Msg("schema ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaInitCmd)
}
