package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/oakboard/oakboard/config"
	"github.com/oakboard/oakboard/plugin"
)

// registerAPIRoutes registers the authenticated admin API.
func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/plugins", s.listPlugins)
	mux.HandleFunc("GET /api/plugins/{id}", s.getPlugin)
	mux.HandleFunc("POST /api/plugins/{id}/enable", s.enablePlugin)
	mux.HandleFunc("POST /api/plugins/{id}/disable", s.disablePlugin)
	mux.HandleFunc("POST /api/plugins/{id}/order", s.orderPlugin)

	mux.HandleFunc("GET /api/admin/menu", s.adminMenu)
	mux.HandleFunc("GET /api/events", s.listEvents)
}

// pluginInfo is the admin view of one plugin record.
type pluginInfo struct {
	Identifier   string              `json:"identifier"`
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Author       string              `json:"author,omitempty"`
	Capabilities []plugin.Capability `json:"capabilities,omitempty"`
	Enabled      bool                `json:"enabled"`
	Order        int                 `json:"order"`
	Status       string              `json:"status"`
	Error        string              `json:"error,omitempty"`
}

func infoFromRecord(rec *plugin.Record) pluginInfo {
	info := pluginInfo{
		Identifier:   rec.Manifest.Identifier,
		Name:         rec.Manifest.Name,
		Version:      rec.Manifest.Version,
		Author:       rec.Manifest.Author,
		Capabilities: rec.Manifest.Capabilities,
		Enabled:      rec.Enabled,
		Order:        rec.Order,
		Status:       rec.Status(),
	}
	if rec.LastLoadError != nil {
		info.Error = rec.LastLoadError.Error()
	}
	return info
}

func (s *Server) listPlugins(w http.ResponseWriter, _ *http.Request) {
	records := s.registry.All()
	infos := make([]pluginInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, infoFromRecord(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plugins":    infos,
		"changed_at": s.registry.ChangedAt(),
	})
}

func (s *Server) getPlugin(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infoFromRecord(rec))
}

func (s *Server) enablePlugin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.controller.Enable(r.Context(), id); err != nil {
		writeActivationError(w, err)
		return
	}
	// A bind failure leaves the plugin enabled-but-failing; surface the
	// record so the caller sees all three observable states.
	rec, err := s.registry.Get(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infoFromRecord(rec))
}

func (s *Server) disablePlugin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.controller.Disable(r.Context(), id); err != nil {
		writeActivationError(w, err)
		return
	}
	rec, err := s.registry.Get(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infoFromRecord(rec))
}

func (s *Server) orderPlugin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Order int `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.controller.SetOrder(r.Context(), id, req.Order); err != nil {
		writeActivationError(w, err)
		return
	}
	rec, err := s.registry.Get(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infoFromRecord(rec))
}

func writeActivationError(w http.ResponseWriter, err error) {
	if errors.Is(err, plugin.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) adminMenu(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"menu":       s.composer.Tree(p),
		"changed_at": s.registry.ChangedAt(),
	})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeJSON(w, http.StatusOK, map[string]any{"events": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": s.bus.History(100)})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var enabled, bound, failing int
	for _, rec := range s.registry.All() {
		switch rec.Status() {
		case plugin.StatusBound:
			enabled++
			bound++
		case plugin.StatusFailing:
			enabled++
			failing++
		case plugin.StatusEnabled:
			enabled++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":          s.version,
		"uptime_seconds":   int(time.Since(s.startTime).Seconds()),
		"plugins_enabled":  enabled,
		"plugins_bound":    bound,
		"plugins_failing":  failing,
		"state_changed_at": s.registry.ChangedAt(),
	})
}

// HostMenu converts the configured built-in admin menu into composer nodes.
func HostMenu(entries []config.MenuEntry) []*plugin.MenuNode {
	nodes := make([]*plugin.MenuNode, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, &plugin.MenuNode{
			Label:      e.Label,
			Path:       e.Path,
			Permission: e.Permission,
			Children:   HostMenu(e.Children),
		})
	}
	return nodes
}
