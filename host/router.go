// Package host implements the collaborators plugins bind into: the route
// table, the model registry, and the template search roots. Plugin code
// never touches these directly; the loader stages a complete binding set
// off to the side and publishes it in one swap, tagging every binding with
// the owning plugin identifier.
package host

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
)

// CollisionError reports a route path already claimed by another owner.
type CollisionError struct {
	Path  string
	Owner string // identifier that already holds the path
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("route %s already registered by %q", e.Path, e.Owner)
}

type routeEntry struct {
	owner   string
	handler http.Handler
}

// RouteSet stages the bindings for the next route table. It is built off to
// the side, so the live table keeps serving until Router.Swap publishes it.
type RouteSet struct {
	routes map[string]routeEntry
}

// NewRouteSet creates an empty staging set.
func NewRouteSet() *RouteSet {
	return &RouteSet{routes: make(map[string]routeEntry)}
}

// Register stages a handler for path on behalf of owner.
// Returns a *CollisionError if the path is already staged.
func (s *RouteSet) Register(path, owner string, h http.Handler) error {
	if existing, ok := s.routes[path]; ok {
		return &CollisionError{Path: path, Owner: existing.owner}
	}
	s.routes[path] = routeEntry{owner: owner, handler: h}
	return nil
}

// RemoveOwner drops every staged route belonging to owner.
func (s *RouteSet) RemoveOwner(owner string) {
	for p, e := range s.routes {
		if e.owner == owner {
			delete(s.routes, p)
		}
	}
}

type prefixEntry struct {
	path string
	routeEntry
}

// routeTable is an immutable published table: exact paths plus
// trailing-slash mounts ordered longest first.
type routeTable struct {
	exact    map[string]routeEntry
	prefixes []prefixEntry
}

// Router dispatches to the most recently published route table. Reads are
// lock-free; in-flight requests never observe a partially rebuilt table.
type Router struct {
	table atomic.Pointer[routeTable]
}

// NewRouter creates a Router with an empty table.
func NewRouter() *Router {
	r := &Router{}
	r.Swap(NewRouteSet())
	return r
}

// Swap publishes the staged set as the live table in a single step. The set
// is copied, so the caller may keep mutating it afterwards.
func (r *Router) Swap(s *RouteSet) {
	t := &routeTable{exact: make(map[string]routeEntry, len(s.routes))}
	for p, e := range s.routes {
		t.exact[p] = e
		if strings.HasSuffix(p, "/") {
			t.prefixes = append(t.prefixes, prefixEntry{path: p, routeEntry: e})
		}
	}
	// Longest mount wins when one prefix contains another.
	sort.Slice(t.prefixes, func(i, j int) bool {
		if len(t.prefixes[i].path) != len(t.prefixes[j].path) {
			return len(t.prefixes[i].path) > len(t.prefixes[j].path)
		}
		return t.prefixes[i].path < t.prefixes[j].path
	})
	r.table.Store(t)
}

// Handler returns the handler bound to path, if any. Lock-free.
func (r *Router) Handler(path string) (http.Handler, bool) {
	t := r.table.Load()
	if e, ok := t.exact[path]; ok {
		return e.handler, true
	}
	for _, p := range t.prefixes {
		if strings.HasPrefix(path, p.path) {
			return p.handler, true
		}
	}
	return nil, false
}

// RoutesOwnedBy returns the sorted paths bound by owner.
func (r *Router) RoutesOwnedBy(owner string) []string {
	t := r.table.Load()
	var paths []string
	for p, e := range t.exact {
		if e.owner == owner {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// ServeHTTP dispatches to the bound handler, or 404s.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h, ok := r.Handler(req.URL.Path)
	if !ok {
		http.NotFound(w, req)
		return
	}
	h.ServeHTTP(w, req)
}
