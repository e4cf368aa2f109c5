package handlers

import (
	"fmt"
	"net/http"
)

// HistoryHandler handles requests for the run history.
type HistoryHandler struct {
	provider HistoryProvider
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(provider HistoryProvider) *HistoryHandler {
	return &HistoryHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.History())
}

// RunDetailHandler returns a single completed run, including step logs.
type RunDetailHandler struct {
	provider HistoryProvider
}

// NewRunDetailHandler creates a new RunDetailHandler.
func NewRunDetailHandler(provider HistoryProvider) *RunDetailHandler {
	return &RunDetailHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *RunDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run id")
		return
	}

	run, ok := h.provider.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run not found: %s", id))
		return
	}

	writeJSON(w, http.StatusOK, run)
}
