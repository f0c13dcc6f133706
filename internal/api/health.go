package api

import (
	"net/http"
	"sync/atomic"

	"github.com/solace-journal/solace-server/internal/api/respond"
)

// serviceHealthFn is bound by the composition root to the aggregated checker.
var serviceHealthFn atomic.Value // func() bool

// BindServiceHealth wires the health endpoint to the service-level checker.
func BindServiceHealth(fn func() bool) { serviceHealthFn.Store(fn) }

// HealthHandler reports aggregated service health.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if fn, ok := serviceHealthFn.Load().(func() bool); ok && fn() {
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	respond.WriteError(w, http.StatusServiceUnavailable, "service not healthy")
}
