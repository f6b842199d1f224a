/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/wordbank/dictionary/internal/logger"
	"github.com/wordbank/dictionary/internal/mq"
	"github.com/wordbank/dictionary/types"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect dictionary change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log every dictionary change event as it is published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("no message queue configured, set MQ_BACKEND")
		}
		defer broker.Close()

		log := logger.Logger()
		log.Info().Str("channel", cfg.MQ.Channel).Msg("waiting for events")
		err = mq.SubscribeEvents(cmd.Context(), broker, cfg.MQ.Channel, log, func(event types.Event) error {
			log.Info().
				Str("type", string(event.Type)).
				Int("entity_id", event.EntityID).
				Str("name", event.Name).
				Str("field", event.Field).
				Int("actor_id", event.ActorID).
				Time("occurred_at", event.OccurredAt).
				Msg("event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
