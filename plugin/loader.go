package plugin

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/oakboard/oakboard/host"
)

// Loader binds enabled plugins' contributions into the host collaborators.
// Binding one plugin is all-or-nothing: if any artifact fails to bind, every
// artifact already staged for that plugin is dropped, the failure is
// recorded on its record, and the pass continues with the next plugin.
type Loader struct {
	router    *host.Router
	models    *host.ModelRegistry
	templates *host.TemplateRoots
	logger    *slog.Logger
}

// NewLoader creates a Loader binding into the given collaborators.
func NewLoader(router *host.Router, models *host.ModelRegistry, templates *host.TemplateRoots, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{router: router, models: models, templates: templates, logger: logger}
}

// LoadAll rebuilds the bound set from the registry: every enabled plugin is
// staged in ascending load order, then the staged routes, models, and
// template roots replace the live ones in one swap each. The live tables
// keep serving the previous pass until the swap, so concurrent dispatch
// never observes a partially rebuilt set. The staging starts empty, so
// collision resolution depends only on this pass's load order: the earlier
// plugin wins a contested path and the later registration fails its own
// bind. Running the pass twice with no state change yields an identical
// bound set.
//
// Callers serialize passes; the activation controller holds the write lock.
func (l *Loader) LoadAll(reg *Registry) {
	routes := host.NewRouteSet()
	models := l.models.NewSet()
	templates := host.NewTemplateSet()

	for _, rec := range reg.All() {
		if !rec.Enabled {
			continue
		}
		id := rec.Manifest.Identifier
		if err := l.bind(rec, routes, models, templates); err != nil {
			routes.RemoveOwner(id)
			models.RemoveOwner(id)
			templates.Remove(filepath.Join(rec.Manifest.Dir, "templates"))
			reg.setBindResult(id, err)
			l.logger.Warn("plugin bind failed", "identifier", id, "err", err)
			continue
		}
		reg.setBindResult(id, nil)
		l.logger.Info("plugin bound", "identifier", id, "version", rec.Manifest.Version)
	}

	l.models.Swap(models)
	l.templates.Swap(templates)
	l.router.Swap(routes)
}

// StaticMount returns the URL prefix a plugin's static files are served
// under when it declares the statics capability.
func StaticMount(identifier string) string {
	return "/plugin/" + identifier + "/static/"
}

func (l *Loader) bind(rec *Record, routes *host.RouteSet, models *host.ModelSet, templates *host.TemplateSet) error {
	m := rec.Manifest

	var contrib Contributor
	if m.HasCapability(CapRoutes) || m.HasCapability(CapModels) {
		f, ok := ContributorFor(m.Identifier)
		if !ok {
			return fmt.Errorf("no contributor compiled in for %q", m.Identifier)
		}
		contrib = f()
	}

	if m.HasCapability(CapRoutes) {
		for _, rt := range contrib.Routes() {
			if rt.Path == "" || rt.Handler == nil {
				return fmt.Errorf("contributor %q declared an empty route", m.Identifier)
			}
			if err := routes.Register(rt.Path, m.Identifier, rt.Handler); err != nil {
				return err
			}
		}
	}
	if m.HasCapability(CapModels) {
		for _, decl := range contrib.Models() {
			if err := models.Register(m.Identifier, decl); err != nil {
				return err
			}
		}
	}
	if m.HasCapability(CapStatics) {
		mount := StaticMount(m.Identifier)
		dir := filepath.Join(m.Dir, "static")
		h := http.StripPrefix(mount, http.FileServer(http.Dir(dir)))
		if err := routes.Register(mount, m.Identifier, h); err != nil {
			return err
		}
	}
	if m.HasCapability(CapTemplates) {
		// Earlier load order searches first.
		templates.Add(filepath.Join(m.Dir, "templates"), -rec.Order)
	}
	return nil
}
