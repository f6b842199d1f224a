package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/config"
	"github.com/wordbank/dictionary/types"
)

// memoryBackend delivers published messages to subscribers of the same channel.
type memoryBackend struct {
	mu       sync.Mutex
	messages map[string][]Message
	fail     error
}

func (b *memoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if b.fail != nil {
		return "", b.fail
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.messages == nil {
		b.messages = map[string][]Message{}
	}
	id := channel + "-" + time.Now().Format(time.RFC3339Nano)
	b.messages[channel] = append(b.messages[channel], Message{ID: id, Data: data, Attributes: attrs})
	return id, nil
}

func (b *memoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	b.mu.Lock()
	pending := append([]Message(nil), b.messages[channel]...)
	b.mu.Unlock()
	for _, msg := range pending {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *memoryBackend) Close() error { return nil }

func TestEventRoundTrip(t *testing.T) {
	backend := &memoryBackend{}
	m := New(backend)
	publisher := NewEventPublisher(m, "events", zerolog.Nop())

	sent := types.Event{
		Type:       types.EventWordUpdated,
		EntityID:   7,
		Field:      "level",
		ActorID:    3,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	publisher.Publish(context.Background(), sent)

	msgs := backend.messages["events"]
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].Attributes[AttrEventType] != string(types.EventWordUpdated) {
		t.Fatalf("unexpected attributes: %v", msgs[0].Attributes)
	}

	var got []types.Event
	err := SubscribeEvents(context.Background(), m, "events", zerolog.Nop(), func(e types.Event) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one event, got %d", len(got))
	}
	e := got[0]
	if e.Type != sent.Type || e.EntityID != sent.EntityID || e.Field != sent.Field || e.ActorID != sent.ActorID || !e.OccurredAt.Equal(sent.OccurredAt) {
		t.Fatalf("expected %+v, got %+v", sent, e)
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	m := New(&memoryBackend{fail: errors.New("broker down")})
	NewEventPublisher(m, "events", zerolog.Nop()).Publish(context.Background(), types.Event{Type: types.EventWordDeleted})
}

func TestMalformedMessagesAreSkipped(t *testing.T) {
	backend := &memoryBackend{messages: map[string][]Message{
		"events": {{ID: "1", Data: []byte("not json")}},
	}}

	calls := 0
	err := SubscribeEvents(context.Background(), New(backend), "events", zerolog.Nop(), func(types.Event) error {
		calls++
		return nil
	})
	if err != nil || calls != 0 {
		t.Fatalf("expected malformed message to be skipped, got %d calls (%v)", calls, err)
	}
}

func TestOpenWithoutBackend(t *testing.T) {
	m, err := Open(context.Background(), config.MQConfig{})
	if err != nil || m != nil {
		t.Fatalf("expected nil MQ when disabled, got %v %v", m, err)
	}
	if _, err := Open(context.Background(), config.MQConfig{Backend: "kafka"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
