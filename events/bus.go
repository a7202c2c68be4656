package events

import (
	"context"
	"sync"
)

// InMemoryBus is a thread-safe in-process event bus.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]handlerEntry // "" key holds wildcard subscribers
	history  []*Event
	maxHist  int
	counter  int
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewInMemoryBus creates an InMemoryBus with a 500-event history cap.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[EventType][]handlerEntry),
		maxHist:  500,
	}
}

// Publish appends ev to history and invokes matching handlers.
// Handlers run synchronously on the caller's goroutine, outside the lock.
func (b *InMemoryBus) Publish(ctx context.Context, ev *Event) {
	b.mu.Lock()
	b.history = append(b.history, ev)
	if len(b.history) > b.maxHist {
		b.history = b.history[len(b.history)-b.maxHist:]
	}
	var targets []Handler
	for _, e := range b.handlers[ev.Type] {
		targets = append(targets, e.handler)
	}
	for _, e := range b.handlers[""] {
		targets = append(targets, e.handler)
	}
	b.mu.Unlock()

	for _, h := range targets {
		h(ctx, ev)
	}
}

// Subscribe registers a handler for the given event type ("" for all).
// The returned function unsubscribes the handler.
func (b *InMemoryBus) Subscribe(typ EventType, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counter++
	id := b.counter
	b.handlers[typ] = append(b.handlers[typ], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[typ]
		for i, e := range entries {
			if e.id == id {
				b.handlers[typ] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// History returns up to limit recent events, oldest first.
// limit <= 0 returns everything retained.
func (b *InMemoryBus) History(limit int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	evs := b.history
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	out := make([]*Event, len(evs))
	copy(out, evs)
	return out
}
