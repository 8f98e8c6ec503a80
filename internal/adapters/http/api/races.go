// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/strideclub/champ/internal/domain/model"
)

// RaceDependencies defines the interface for race operations.
type RaceDependencies interface {
	CreateRace(ctx context.Context, race model.Race) (model.Race, error)
	GetRace(ctx context.Context, id string) (model.Race, error)
	ListRaces(ctx context.Context) ([]model.Race, error)
	UpdateRace(ctx context.Context, race model.Race) (model.Race, error)
	DeleteRace(ctx context.Context, id string) error
	RaceResults(ctx context.Context, raceID string) ([]model.Result, error)
	RescoreRace(ctx context.Context, raceID string) error
}

// RacesHandler handles race requests.
type RacesHandler struct {
	deps    RaceDependencies
	results ResultDependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps RaceDependencies, results ResultDependencies) *RacesHandler {
	return &RacesHandler{deps: deps, results: results}
}

// HandleCollection handles GET and POST /races requests.
func (h *RacesHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		races, err := h.deps.ListRaces(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]raceResponse, 0, len(races))
		for _, race := range races {
			out = append(out, toRaceResponse(race))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req raceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		created, err := h.deps.CreateRace(r.Context(), req.toModel())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRaceResponse(created))
	default:
		http.NotFound(w, r)
	}
}

// HandleItem handles /races/{id} plus the /races/{id}/results and
// /races/{id}/rescore subresources.
func (h *RacesHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/races/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch sub {
	case "results":
		h.handleResults(w, r, id)
		return
	case "rescore":
		h.handleRescore(w, r, id)
		return
	case "":
	default:
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		race, err := h.deps.GetRace(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRaceResponse(race))
	case http.MethodPut:
		var req raceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		race := req.toModel()
		race.ID = id
		updated, err := h.deps.UpdateRace(r.Context(), race)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRaceResponse(updated))
	case http.MethodDelete:
		if err := h.deps.DeleteRace(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// handleResults handles GET and POST /races/{id}/results requests. Reads
// come back scored, ordered by raw position with unranked rows last; a
// POST records a finish time in this race and returns the rescored record.
func (h *RacesHandler) handleResults(w http.ResponseWriter, r *http.Request, raceID string) {
	switch r.Method {
	case http.MethodGet:
		results, err := h.deps.RaceResults(r.Context(), raceID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]resultResponse, 0, len(results))
		for _, result := range results {
			out = append(out, toResultResponse(result))
		}
		sortByPosition(out)
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req resultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		req.RaceID = raceID
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		created, err := h.results.AddResult(r.Context(), raceID, req.RunnerID, req.FinishTime)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResultResponse(created))
	default:
		http.NotFound(w, r)
	}
}

// handleRescore handles POST /races/{id}/rescore requests.
func (h *RacesHandler) handleRescore(w http.ResponseWriter, r *http.Request, raceID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.RescoreRace(r.Context(), raceID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rescored"})
}
