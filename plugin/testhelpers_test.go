package plugin

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/oakboard/oakboard/host"
	"github.com/oakboard/oakboard/state"
)

// writeUnit creates a plugin unit directory with the given manifest body.
func writeUnit(t *testing.T, root, dir, manifest string) string {
	t.Helper()
	unitDir := filepath.Join(root, dir)
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", unitDir, err)
	}
	if err := os.WriteFile(filepath.Join(unitDir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return unitDir
}

// manifestYAML renders a minimal valid manifest for identifier.
func manifestYAML(identifier string, capabilities ...string) string {
	body := fmt.Sprintf("identifier: %s\nname: %s\nversion: 1.0.0\n", identifier, identifier)
	if len(capabilities) > 0 {
		body += "capabilities:\n"
		for _, c := range capabilities {
			body += "  - " + c + "\n"
		}
	}
	return body
}

// newTestStore opens a SQLite activation store in a temp dir.
func newTestStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store, err := state.NewSQLiteStore(filepath.Join(t.TempDir(), "plugins.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// testHost bundles fresh host collaborators plus a loader over them.
type testHost struct {
	router    *host.Router
	models    *host.ModelRegistry
	templates *host.TemplateRoots
	loader    *Loader
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	h := &testHost{
		router:    host.NewRouter(),
		models:    host.NewModelRegistry(nil),
		templates: host.NewTemplateRoots(),
	}
	h.loader = NewLoader(h.router, h.models, h.templates, nil)
	return h
}

// stubContributor serves fixed routes and models.
type stubContributor struct {
	routes []Route
	models []host.ModelDecl
}

func (c stubContributor) Routes() []Route          { return c.routes }
func (c stubContributor) Models() []host.ModelDecl { return c.models }

// registerStub installs a contributor factory for identifier.
func registerStub(t *testing.T, identifier string, c stubContributor) {
	t.Helper()
	RegisterContributor(identifier, func() Contributor { return c })
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	})
}
