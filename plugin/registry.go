package plugin

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oakboard/oakboard/state"
)

// Record is the registry's view of one discovered plugin: its immutable
// manifest plus the mutable activation fields.
type Record struct {
	Manifest *Manifest

	Enabled bool
	Order   int

	// Bound reports whether the last loader pass bound the plugin's
	// contributions successfully. Meaningful only while Enabled.
	Bound bool

	// LastLoadError is the bind failure of the last loader pass, nil when
	// the plugin bound cleanly or has not been loaded.
	LastLoadError error
}

// Record status values, the observable activation states of a plugin.
const (
	StatusDisabled = "disabled"            // not enabled
	StatusEnabled  = "enabled"             // enabled, not yet loaded
	StatusBound    = "bound"               // enabled and bound successfully
	StatusFailing  = "enabled-but-failing" // enabled, last bind rolled back
)

// Status returns the record's observable activation state.
func (r *Record) Status() string {
	switch {
	case !r.Enabled:
		return StatusDisabled
	case r.LastLoadError != nil:
		return StatusFailing
	case r.Bound:
		return StatusBound
	default:
		return StatusEnabled
	}
}

// Registry is the in-memory catalogue of all discovered plugins and the
// single source of truth for their activation state during a process
// lifetime. Records are never removed while the process lives; a unit
// deleted from disk disappears only after a restart.
type Registry struct {
	mu        sync.RWMutex
	records   map[string]*Record
	store     state.Store
	changedAt time.Time
}

// NewRegistry creates a Registry persisting activation changes to store.
func NewRegistry(store state.Store) *Registry {
	return &Registry{
		records: make(map[string]*Record),
		store:   store,
	}
}

// Discover merges discovered manifests with the persisted activation state
// into the initial record set. Plugins absent from persisted state default
// to disabled; persisted identifiers with no unit on disk are ignored.
func (r *Registry) Discover(manifests []*Manifest) error {
	persisted, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("load activation state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range manifests {
		rec := &Record{Manifest: m}
		if e, ok := persisted[m.Identifier]; ok {
			rec.Enabled = e.Enabled
			rec.Order = e.Order
		}
		r.records[m.Identifier] = rec
	}
	r.changedAt = time.Now().UTC()
	return nil
}

// All returns a stable snapshot of every record, load order ascending with
// ties broken by identifier. The returned records are copies; manifests are
// shared (immutable).
func (r *Registry) All() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Manifest.Identifier < out[j].Manifest.Identifier
	})
	return out
}

// Get returns a copy of the record for identifier.
func (r *Registry) Get(identifier string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[identifier]
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", identifier, ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

// SetEnabled persists and applies the enabled flag. The store write happens
// first; on store failure the in-memory record is left untouched. Disabling
// clears any previous load error: the record returns to plain "disabled".
func (r *Registry) SetEnabled(identifier string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identifier]
	if !ok {
		return fmt.Errorf("plugin %q: %w", identifier, ErrNotFound)
	}
	if err := r.store.Update(identifier, enabled, rec.Order); err != nil {
		return fmt.Errorf("persist activation of %q: %w", identifier, err)
	}
	rec.Enabled = enabled
	if !enabled {
		rec.Bound = false
		rec.LastLoadError = nil
	}
	r.changedAt = time.Now().UTC()
	return nil
}

// SetOrder persists and applies the load order.
func (r *Registry) SetOrder(identifier string, order int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identifier]
	if !ok {
		return fmt.Errorf("plugin %q: %w", identifier, ErrNotFound)
	}
	if err := r.store.Update(identifier, rec.Enabled, order); err != nil {
		return fmt.Errorf("persist order of %q: %w", identifier, err)
	}
	rec.Order = order
	r.changedAt = time.Now().UTC()
	return nil
}

// ChangedAt returns the time of the last registry mutation. Admin UIs use
// it to validate cached plugin lists and menus.
func (r *Registry) ChangedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changedAt
}

// setBindResult records the outcome of a loader pass for one plugin.
func (r *Registry) setBindResult(identifier string, bindErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identifier]
	if !ok {
		return
	}
	rec.Bound = bindErr == nil
	rec.LastLoadError = bindErr
	r.changedAt = time.Now().UTC()
}
