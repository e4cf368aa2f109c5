package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nomis52/eventchain/runner"
)

// RunHandler handles requests to trigger a chain run.
type RunHandler struct {
	runner ChainRunner
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(r ChainRunner) *RunHandler {
	return &RunHandler{
		runner: r,
	}
}

// ServeHTTP implements http.Handler.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request.
	ctx := context.WithoutCancel(r.Context())

	if err := h.runner.Start(ctx); err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
