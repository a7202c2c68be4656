package host

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SchemaError reports an invalid or conflicting model declaration.
type SchemaError struct {
	Model  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("model %s: %s", e.Model, e.Reason)
}

// Column is one column of a model declaration.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // text, integer, real, blob, datetime, bool
}

// ModelDecl declares a database model contributed by a plugin.
type ModelDecl struct {
	Name    string   `yaml:"name"`
	Table   string   `yaml:"table"`
	Columns []Column `yaml:"columns"`
}

var columnTypes = map[string]string{
	"text":     "TEXT",
	"integer":  "INTEGER",
	"real":     "REAL",
	"blob":     "BLOB",
	"datetime": "DATETIME",
	"bool":     "INTEGER",
}

// DDL returns the CREATE TABLE statement for the declaration.
// Validate must have passed first.
func (d ModelDecl) DDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.Table)
	for i, c := range d.Columns {
		fmt.Fprintf(&b, "\t%s %s", c.Name, columnTypes[c.Type])
		if i < len(d.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

// Validate checks the declaration in isolation.
func (d ModelDecl) Validate() error {
	if d.Name == "" {
		return &SchemaError{Model: "(unnamed)", Reason: "missing model name"}
	}
	if d.Table == "" {
		return &SchemaError{Model: d.Name, Reason: "missing table name"}
	}
	if len(d.Columns) == 0 {
		return &SchemaError{Model: d.Name, Reason: "no columns declared"}
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c.Name == "" {
			return &SchemaError{Model: d.Name, Reason: "column with empty name"}
		}
		if seen[c.Name] {
			return &SchemaError{Model: d.Name, Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = true
		if _, ok := columnTypes[c.Type]; !ok {
			return &SchemaError{Model: d.Name, Reason: fmt.Sprintf("column %q has unknown type %q", c.Name, c.Type)}
		}
	}
	return nil
}

type modelEntry struct {
	owner string
	decl  ModelDecl
}

// ModelRegistry tracks model declarations by owning plugin. When constructed
// with a database it also creates the declared tables; tables are never
// dropped, plugin data outlives activation. Registrations are staged on a
// ModelSet and published wholesale via Swap.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]modelEntry // table name -> entry
	db     *sql.DB               // nil: validate and track only
}

// NewModelRegistry creates a registry. db may be nil.
func NewModelRegistry(db *sql.DB) *ModelRegistry {
	return &ModelRegistry{models: make(map[string]modelEntry), db: db}
}

// ModelSet stages the registrations for the registry's next publish.
type ModelSet struct {
	reg    *ModelRegistry
	models map[string]modelEntry
}

// NewSet creates an empty staging set bound to the registry's database.
func (m *ModelRegistry) NewSet() *ModelSet {
	return &ModelSet{reg: m, models: make(map[string]modelEntry)}
}

// Register validates and stages a declaration on behalf of owner, creating
// its table when the registry has a database attached. The table is created
// immediately; an abandoned staging set leaves it in place.
// Returns a *SchemaError on invalid or conflicting declarations.
func (s *ModelSet) Register(owner string, decl ModelDecl) error {
	if err := decl.Validate(); err != nil {
		return err
	}
	if existing, ok := s.models[decl.Table]; ok && existing.owner != owner {
		return &SchemaError{
			Model:  decl.Name,
			Reason: fmt.Sprintf("table %q already registered by %q", decl.Table, existing.owner),
		}
	}
	if s.reg.db != nil {
		if _, err := s.reg.db.Exec(decl.DDL()); err != nil {
			return &SchemaError{Model: decl.Name, Reason: fmt.Sprintf("create table: %v", err)}
		}
	}
	s.models[decl.Table] = modelEntry{owner: owner, decl: decl}
	return nil
}

// RemoveOwner drops every staged registration belonging to owner.
// Already-created tables are left in place.
func (s *ModelSet) RemoveOwner(owner string) {
	for table, e := range s.models {
		if e.owner == owner {
			delete(s.models, table)
		}
	}
}

// Swap publishes the staged set as the current registration map. The set is
// copied, so the caller may keep mutating it afterwards.
func (m *ModelRegistry) Swap(s *ModelSet) {
	next := make(map[string]modelEntry, len(s.models))
	for table, e := range s.models {
		next[table] = e
	}
	m.mu.Lock()
	m.models = next
	m.mu.Unlock()
}

// ModelsOwnedBy returns the names of models registered by owner, sorted.
func (m *ModelRegistry) ModelsOwnedBy(owner string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, e := range m.models {
		if e.owner == owner {
			names = append(names, e.decl.Name)
		}
	}
	sort.Strings(names)
	return names
}
