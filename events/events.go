// Package events provides the in-process plugin lifecycle event bus.
// The activation controller publishes; the admin SSE feed and logs subscribe.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	TypeEnabled    EventType = "plugin.enabled"     // plugin enabled by an operator
	TypeDisabled   EventType = "plugin.disabled"    // plugin disabled by an operator
	TypeBound      EventType = "plugin.bound"       // plugin's artifacts bound successfully
	TypeBindFailed EventType = "plugin.bind_failed" // plugin bind rolled back
	TypeReordered  EventType = "plugin.reordered"   // plugin load order changed
)

// Event is one plugin lifecycle notification.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Plugin    string    `json:"plugin"`           // plugin identifier
	Detail    string    `json:"detail,omitempty"` // e.g. bind failure reason
	Timestamp time.Time `json:"timestamp"`
}

// New creates an Event with a fresh ID and timestamp.
func New(typ EventType, plugin, detail string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Plugin:    plugin,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}

// Handler processes published events.
type Handler func(ctx context.Context, ev *Event)

// Bus distributes lifecycle events to subscribers and keeps a bounded
// history for late-joining admin clients.
type Bus interface {
	// Publish delivers ev to all matching subscribers.
	Publish(ctx context.Context, ev *Event)

	// Subscribe registers a handler for events of the given type; the empty
	// type subscribes to everything. Returns an unsubscribe function.
	Subscribe(typ EventType, handler Handler) (unsubscribe func())

	// History returns up to limit recent events, oldest first.
	History(limit int) []*Event
}
