package types

import "time"

// EventType names a change to the dictionary.
type EventType string

const (
	EventCategoryCreated EventType = "category.created"
	EventCategoryDeleted EventType = "category.deleted"
	EventWordCreated     EventType = "word.created"
	EventWordUpdated     EventType = "word.updated"
	EventWordDeleted     EventType = "word.deleted"
)

// Event describes a dictionary change published to the message queue.
type Event struct {
	// Type is the kind of change.
	Type EventType `json:"type"`

	// EntityID is the id of the changed category or word.
	EntityID int `json:"entity_id"`

	// Name is the category or word name at the time of the change.
	Name string `json:"name,omitempty"`

	// Field is set for single-field word edits.
	Field string `json:"field,omitempty"`

	// ActorID is the user who made the change.
	ActorID int `json:"actor_id"`

	// OccurredAt is when the change was committed.
	OccurredAt time.Time `json:"occurred_at"`
}
