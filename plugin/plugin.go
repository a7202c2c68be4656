// Package plugin implements the oakboard extension runtime: manifest
// discovery, the plugin registry, the loader that binds plugin contributions
// into the host collaborators, the admin menu composer, and the activation
// controller. Plugin code units are compiled in; the on-disk manifest is the
// discovery and activation source of truth.
package plugin

import (
	"net/http"

	"github.com/oakboard/oakboard/host"
)

// Route is one HTTP route contributed by a plugin.
type Route struct {
	Path    string
	Handler http.Handler
}

// Contributor supplies the code-level contributions of a plugin: route
// handlers and model declarations. Static and template contributions come
// from the plugin's on-disk unit and need no Contributor.
type Contributor interface {
	// Routes returns the routes the plugin binds into the host router.
	Routes() []Route

	// Models returns the model declarations the plugin registers.
	Models() []host.ModelDecl
}
