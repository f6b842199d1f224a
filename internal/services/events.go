package services

import (
	"context"

	"github.com/wordbank/dictionary/types"
)

// EventPublisher announces dictionary changes. Implementations must not fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event types.Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, types.Event) {}
