package plugin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oakboard/oakboard/events"
)

// Controller is the operation surface for runtime activation changes. Every
// mutation runs under a single mutex spanning the state store write, the
// loader pass, and the menu rebuild, so concurrent admin requests execute
// one at a time and readers only ever see fully published snapshots.
type Controller struct {
	mu       sync.Mutex
	registry *Registry
	loader   *Loader
	composer *Composer
	bus      events.Bus
	logger   *slog.Logger
}

// NewController wires the activation controller. bus may be nil when no one
// listens for lifecycle events.
func NewController(reg *Registry, loader *Loader, composer *Composer, bus events.Bus, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		registry: reg,
		loader:   loader,
		composer: composer,
		bus:      bus,
		logger:   logger,
	}
}

// Enable turns a plugin on, persists the flag, and re-runs the loader and
// menu composer. Returns ErrNotFound (wrapped) for unknown identifiers. A
// bind failure does not fail the call: the plugin stays enabled-but-failing
// and the failure is visible on its record.
func (c *Controller) Enable(ctx context.Context, identifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.registry.SetEnabled(identifier, true); err != nil {
		return err
	}
	c.reloadLocked()
	c.publish(ctx, events.New(events.TypeEnabled, identifier, ""))
	if rec, err := c.registry.Get(identifier); err == nil {
		if rec.LastLoadError != nil {
			c.publish(ctx, events.New(events.TypeBindFailed, identifier, rec.LastLoadError.Error()))
		} else {
			c.publish(ctx, events.New(events.TypeBound, identifier, ""))
		}
	}
	return nil
}

// Disable turns a plugin off, persists the flag, unbinds all of its
// previously bound artifacts, and rebuilds the menu.
func (c *Controller) Disable(ctx context.Context, identifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.registry.SetEnabled(identifier, false); err != nil {
		return err
	}
	c.reloadLocked()
	c.publish(ctx, events.New(events.TypeDisabled, identifier, ""))
	return nil
}

// SetOrder changes a plugin's load order, persists it, and re-runs the
// loader so route precedence and menu position follow the new order.
func (c *Controller) SetOrder(ctx context.Context, identifier string, order int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.registry.SetOrder(identifier, order); err != nil {
		return err
	}
	c.reloadLocked()
	c.publish(ctx, events.New(events.TypeReordered, identifier, ""))
	return nil
}

// Refresh re-runs the loader pass and menu rebuild without changing state.
// Called once at startup after discovery.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloadLocked()
	for _, rec := range c.registry.All() {
		if rec.LastLoadError != nil {
			c.publish(ctx, events.New(events.TypeBindFailed, rec.Manifest.Identifier, rec.LastLoadError.Error()))
		}
	}
}

func (c *Controller) reloadLocked() {
	c.loader.LoadAll(c.registry)
	c.composer.Rebuild(c.registry.All())
}

func (c *Controller) publish(ctx context.Context, ev *events.Event) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, ev)
}
