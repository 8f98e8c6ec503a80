// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// RescoreDependencies defines the interface for full recomputes.
type RescoreDependencies interface {
	RescoreAll(ctx context.Context) (int, error)
}

// RescoreHandler handles full recompute requests.
type RescoreHandler struct {
	deps RescoreDependencies
}

// NewRescoreHandler creates a new rescore handler.
func NewRescoreHandler(deps RescoreDependencies) *RescoreHandler {
	return &RescoreHandler{deps: deps}
}

type rescoreResponse struct {
	Status string `json:"status"`
	Races  int    `json:"races"`
}

// HandleRescore handles POST /rescore requests. The call is synchronous;
// the response reports how many races were recomputed.
func (h *RescoreHandler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	races, err := h.deps.RescoreAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rescoreResponse{Status: "rescored", Races: races})
}
