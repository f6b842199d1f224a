package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/types"
)

const publishTimeout = 5 * time.Second

// EventPublisher sends dictionary events to a channel as JSON.
// Publish failures are logged and never returned to the caller.
type EventPublisher struct {
	mq      *MQ
	channel string
	log     zerolog.Logger
}

func NewEventPublisher(m *MQ, channel string, log zerolog.Logger) *EventPublisher {
	return &EventPublisher{mq: m, channel: channel, log: log}
}

func (p *EventPublisher) Publish(ctx context.Context, event types.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("event", string(event.Type)).Msg("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	id, err := p.mq.Publish(ctx, p.channel, data, map[string]string{
		AttrContentType: "application/json",
		AttrEventType:   string(event.Type),
	})
	if err != nil {
		p.log.Warn().Err(err).Str("event", string(event.Type)).Int("entity_id", event.EntityID).Msg("failed to publish event")
		return
	}
	p.log.Debug().Str("event", string(event.Type)).Str("message_id", id).Msg("event published")
}

// SubscribeEvents decodes every message on channel and passes it to handle.
// Messages that are not valid events are acknowledged and skipped.
func SubscribeEvents(ctx context.Context, m *MQ, channel string, log zerolog.Logger, handle func(types.Event) error) error {
	return m.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		var event types.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID).Msg("skipping malformed event")
			return nil
		}
		if event.Type == "" {
			event.Type = types.EventType(msg.Attributes[AttrEventType])
		}
		if err := handle(event); err != nil {
			return fmt.Errorf("handle event %s: %w", msg.ID, err)
		}
		return nil
	})
}
