package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthHandler reports liveness and basic process info.
type HealthHandler struct {
	version   string
	startedAt time.Time
	datasets  func() int
}

// NewHealthHandler creates the handler. datasets reports the number of
// registered datasets and may be nil.
func NewHealthHandler(version string, datasets func() int) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startedAt: time.Now(),
		datasets:  datasets,
	}
}

// Health returns a liveness response.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.datasets != nil {
		resp["datasets"] = h.datasets()
	}
	render.JSON(w, r, resp)
}
