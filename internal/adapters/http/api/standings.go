// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/strideclub/champ/internal/domain/model"
)

// StandingsDependencies defines the interface for season table reads.
type StandingsDependencies interface {
	RawStandings(ctx context.Context) (male, female []model.Standing, err error)
	AgeGradedStandings(ctx context.Context) ([]model.Standing, error)
}

// StandingsHandler handles season table requests.
type StandingsHandler struct {
	deps     StandingsDependencies
	maxLimit int
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies, maxLimit int) *StandingsHandler {
	return &StandingsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// rawStandingsResponse is the two-table shape of GET /standings.
type rawStandingsResponse struct {
	Male   []standingResponse `json:"male"`
	Female []standingResponse `json:"female"`
}

// HandleRaw handles GET /standings?limit=N requests.
func (h *StandingsHandler) HandleRaw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	male, female, err := h.deps.RawStandings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rawStandingsResponse{
		Male:   truncate(toStandingResponses(male), limit),
		Female: truncate(toStandingResponses(female), limit),
	})
}

// HandleAgeGraded handles GET /standings/age-graded?limit=N requests.
func (h *StandingsHandler) HandleAgeGraded(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	table, err := h.deps.AgeGradedStandings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, truncate(toStandingResponses(table), limit))
}

// limit parses the optional limit query parameter. Zero means the whole
// table.
func (h *StandingsHandler) limit(r *http.Request) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		return 0, ErrBadRequest
	}
	if n > h.maxLimit {
		return 0, ErrLimitExceeded
	}
	return n, nil
}

func truncate(table []standingResponse, limit int) []standingResponse {
	if limit > 0 && len(table) > limit {
		return table[:limit]
	}
	return table
}
