package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/oakboard/oakboard/config"
	"github.com/oakboard/oakboard/events"
	"github.com/oakboard/oakboard/host"
	"github.com/oakboard/oakboard/plugin"
	"github.com/oakboard/oakboard/state"
)

// testEnv is a fully wired server over a temp plugin root.
type testEnv struct {
	srv    *Server
	reg    *plugin.Registry
	router *host.Router
	bus    *events.InMemoryBus
}

// writeUnit creates a plugin unit with the given manifest body.
func writeUnit(t *testing.T, root, dir, manifest string) {
	t.Helper()
	unitDir := filepath.Join(root, dir)
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(unitDir, plugin.ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func newTestEnv(t *testing.T, pluginRoot string, perms []string) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	cfg := config.Config{
		Server: config.ServerConfig{Addr: ":0"},
		Auth: config.AuthConfig{
			AdminUser:   "admin",
			AdminPass:   string(hash),
			JWTSecret:   "test-secret-key-1234567890",
			Permissions: perms,
		},
		AdminMenu: []config.MenuEntry{
			{Label: "Dashboard", Path: "/admin"},
		},
	}

	store, err := state.NewSQLiteStore(filepath.Join(t.TempDir(), "plugins.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	manifests, _ := plugin.Discover(nil, pluginRoot)
	reg := plugin.NewRegistry(store)
	if err := reg.Discover(manifests); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	router := host.NewRouter()
	loader := plugin.NewLoader(router, host.NewModelRegistry(nil), host.NewTemplateRoots(), nil)
	composer := plugin.NewComposer(HostMenu(cfg.AdminMenu))
	bus := events.NewInMemoryBus()
	ctrl := plugin.NewController(reg, loader, composer, bus, nil)
	ctrl.Refresh(context.Background())

	srv := New(cfg, "test", nil)
	srv.SetRuntime(reg, ctrl, composer)
	srv.SetPluginRouter(router)
	srv.SetBus(bus)
	srv.registerRoutes()

	return &testEnv{srv: srv, reg: reg, router: router, bus: bus}
}

// login obtains a token through the real login handler.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	body := `{"username":"admin","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.srv.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rr.Code, rr.Body.String())
	}
	var resp loginResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

// do performs an authenticated request and decodes the JSON response into out.
func (e *testEnv) do(t *testing.T, token, method, path, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.mux.ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		if err := json.NewDecoder(rr.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rr.Code
}

const shopManifest = `identifier: shop
name: Shop
version: 1.0.0
capabilities:
  - routes
  - admin-menu
admin_menu:
  - label: Shop
    path: /shop
    permission: admin.shop.view
`
