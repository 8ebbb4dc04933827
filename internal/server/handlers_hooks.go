package server

import (
	"net/http"
	"time"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// HookInfo describes one registration.
type HookInfo struct {
	ID       string    `json:"id"`
	Order    uint64    `json:"order"`
	Category string    `json:"category"`
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Source   string    `json:"source,omitempty"`
	Created  time.Time `json:"created"`
}

// listHooks handles GET /hooks[?category=...].
func (s *Server) listHooks(w http.ResponseWriter, r *http.Request) {
	var filter types.Category
	if c := r.URL.Query().Get("category"); c != "" {
		parsed, err := types.ParseCategory(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}
		filter = parsed
	}

	regs := s.engine.Table().Registrations()
	out := make([]HookInfo, 0, len(regs))
	for _, reg := range regs {
		if filter != "" && reg.Category != filter {
			continue
		}
		out = append(out, HookInfo{
			ID:       reg.ID,
			Order:    reg.Order,
			Category: string(reg.Category),
			Name:     reg.Name,
			Kind:     reg.Callable.Kind().String(),
			Source:   reg.Source,
			Created:  reg.Created,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// getMetrics handles GET /metrics.
func (s *Server) getMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "metrics disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"healthy":     true,
		"hooks":       s.engine.Table().Len(),
		"cooperative": s.Cooperative(),
	})
}
