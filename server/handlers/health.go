package handlers

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// HealthHandler reports that the process is up, with its version and uptime.
type HealthHandler struct {
	version string
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler; uptime is measured from now.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), now: time.Now}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  h.now().Sub(h.started).Truncate(time.Second).String(),
	})
}
