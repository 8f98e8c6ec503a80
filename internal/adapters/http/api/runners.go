// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/strideclub/champ/internal/domain/model"
)

// RunnerDependencies defines the interface for runner operations.
type RunnerDependencies interface {
	CreateRunner(ctx context.Context, runner model.Runner) (model.Runner, error)
	GetRunner(ctx context.Context, id string) (model.Runner, error)
	ListRunners(ctx context.Context) ([]model.Runner, error)
	UpdateRunner(ctx context.Context, runner model.Runner) (model.Runner, error)
	DeleteRunner(ctx context.Context, id string) error
}

// RunnersHandler handles runner requests.
type RunnersHandler struct {
	deps RunnerDependencies
}

// NewRunnersHandler creates a new runners handler.
func NewRunnersHandler(deps RunnerDependencies) *RunnersHandler {
	return &RunnersHandler{deps: deps}
}

// HandleCollection handles GET and POST /runners requests.
func (h *RunnersHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		runners, err := h.deps.ListRunners(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]runnerResponse, 0, len(runners))
		for _, runner := range runners {
			out = append(out, toRunnerResponse(runner))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req runnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		created, err := h.deps.CreateRunner(r.Context(), req.toModel())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRunnerResponse(created))
	default:
		http.NotFound(w, r)
	}
}

// HandleItem handles GET, PUT and DELETE /runners/{id} requests.
func (h *RunnersHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/runners/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		runner, err := h.deps.GetRunner(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRunnerResponse(runner))
	case http.MethodPut:
		var req runnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		runner := req.toModel()
		runner.ID = id
		updated, err := h.deps.UpdateRunner(r.Context(), runner)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRunnerResponse(updated))
	case http.MethodDelete:
		if err := h.deps.DeleteRunner(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
