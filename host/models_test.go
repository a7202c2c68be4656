package host

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func validDecl(name, table string) ModelDecl {
	return ModelDecl{
		Name:  name,
		Table: table,
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "title", Type: "text"},
			{Name: "created_at", Type: "datetime"},
		},
	}
}

func TestModelDecl_Validate(t *testing.T) {
	cases := []struct {
		name string
		decl ModelDecl
		ok   bool
	}{
		{"valid", validDecl("Item", "shop_items"), true},
		{"missing name", ModelDecl{Table: "t", Columns: []Column{{Name: "c", Type: "text"}}}, false},
		{"missing table", ModelDecl{Name: "M", Columns: []Column{{Name: "c", Type: "text"}}}, false},
		{"no columns", ModelDecl{Name: "M", Table: "t"}, false},
		{"unknown type", ModelDecl{Name: "M", Table: "t", Columns: []Column{{Name: "c", Type: "jsonb"}}}, false},
		{"duplicate column", ModelDecl{Name: "M", Table: "t", Columns: []Column{{Name: "c", Type: "text"}, {Name: "c", Type: "text"}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decl.Validate()
			if tc.ok && err != nil {
				t.Errorf("Validate = %v, want nil", err)
			}
			if !tc.ok {
				var sErr *SchemaError
				if !errors.As(err, &sErr) {
					t.Errorf("Validate = %v, want SchemaError", err)
				}
			}
		})
	}
}

func TestModelRegistry_StageAndSwap(t *testing.T) {
	m := NewModelRegistry(nil)
	s := m.NewSet()
	if err := s.Register("shop", validDecl("Item", "shop_items")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("shop", validDecl("Order", "shop_orders")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m.Swap(s)

	got := m.ModelsOwnedBy("shop")
	if len(got) != 2 || got[0] != "Item" || got[1] != "Order" {
		t.Errorf("ModelsOwnedBy = %v", got)
	}

	// A swap without the owner clears its registrations.
	m.Swap(m.NewSet())
	if got := m.ModelsOwnedBy("shop"); len(got) != 0 {
		t.Errorf("ModelsOwnedBy after swap = %v", got)
	}
}

func TestModelSet_TableConflict(t *testing.T) {
	m := NewModelRegistry(nil)
	s := m.NewSet()
	if err := s.Register("a", validDecl("M", "shared")); err != nil {
		t.Fatal(err)
	}
	err := s.Register("b", validDecl("Other", "shared"))
	var sErr *SchemaError
	if !errors.As(err, &sErr) {
		t.Fatalf("Register = %v, want SchemaError", err)
	}

	// Re-registering your own table is fine (idempotent loader passes).
	if err := s.Register("a", validDecl("M", "shared")); err != nil {
		t.Errorf("self re-register = %v, want nil", err)
	}
}

func TestModelSet_RemoveOwner(t *testing.T) {
	m := NewModelRegistry(nil)
	s := m.NewSet()
	if err := s.Register("a", validDecl("Kept", "kept")); err != nil {
		t.Fatal(err)
	}
	if err := s.Register("b", validDecl("Gone", "gone")); err != nil {
		t.Fatal(err)
	}
	s.RemoveOwner("b")
	m.Swap(s)

	if got := m.ModelsOwnedBy("b"); len(got) != 0 {
		t.Errorf("b still owns %v", got)
	}
	if got := m.ModelsOwnedBy("a"); len(got) != 1 || got[0] != "Kept" {
		t.Errorf("ModelsOwnedBy(a) = %v", got)
	}
}

func TestModelRegistry_CreatesTables(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "platform.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	m := NewModelRegistry(db)
	s := m.NewSet()
	if err := s.Register("shop", validDecl("Item", "shop_items")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m.Swap(s)

	if _, err := db.Exec(`INSERT INTO shop_items (id, title, created_at) VALUES (1, 'x', '2026-01-01')`); err != nil {
		t.Fatalf("insert into created table: %v", err)
	}

	// Disabling removes the registration but never the data.
	m.Swap(m.NewSet())
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM shop_items`).Scan(&n); err != nil {
		t.Fatalf("table dropped on swap: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}
