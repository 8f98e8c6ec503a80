// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/strideclub/champ/internal/domain/model"
)

// ResultDependencies defines the interface for result operations.
type ResultDependencies interface {
	AddResult(ctx context.Context, raceID, runnerID, finishTime string) (model.Result, error)
	GetResult(ctx context.Context, id string) (model.Result, error)
	UpdateResult(ctx context.Context, resultID, finishTime string) (model.Result, error)
	DeleteResult(ctx context.Context, resultID string) error
}

// ResultsHandler handles finish record requests.
type ResultsHandler struct {
	deps ResultDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleCollection handles POST /results requests. The response carries the
// rescored record, so positions and points are already settled.
func (h *ResultsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	created, err := h.deps.AddResult(r.Context(), req.RaceID, req.RunnerID, req.FinishTime)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultResponse(created))
}

// HandleItem handles GET, PUT and DELETE /results/{id} requests.
func (h *ResultsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		result, err := h.deps.GetResult(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResultResponse(result))
	case http.MethodPut, http.MethodPatch:
		var req resultUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if strings.TrimSpace(req.FinishTime) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		updated, err := h.deps.UpdateResult(r.Context(), id, req.FinishTime)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResultResponse(updated))
	case http.MethodDelete:
		if err := h.deps.DeleteResult(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
