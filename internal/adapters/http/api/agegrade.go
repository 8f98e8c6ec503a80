// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/strideclub/champ/internal/domain/model"
)

// AgeGradeDependencies defines the interface for one-off percentage calculations.
type AgeGradeDependencies interface {
	AgeGradedPercent(ctx context.Context, distanceKm float64, finishTime string, age int, gender model.Gender) (float64, error)
}

// AgeGradeHandler handles ad-hoc age-grading requests.
type AgeGradeHandler struct {
	deps AgeGradeDependencies
}

// NewAgeGradeHandler creates a new age-grade handler.
func NewAgeGradeHandler(deps AgeGradeDependencies) *AgeGradeHandler {
	return &AgeGradeHandler{deps: deps}
}

type ageGradeResponse struct {
	Percent float64 `json:"percent"`
}

// HandleCalculate handles GET /age-grade?distance_km=&time=&age=&gender=
// requests. It computes a percentage without touching stored data.
func (h *AgeGradeHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	distance, err := strconv.ParseFloat(q.Get("distance_km"), 64)
	if err != nil || distance <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	age, err := strconv.Atoi(q.Get("age"))
	if err != nil || age < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	gender, err := parseGender(q.Get("gender"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	finishTime := q.Get("time")
	if finishTime == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	percent, err := h.deps.AgeGradedPercent(r.Context(), distance, finishTime, age, gender)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ageGradeResponse{Percent: percent})
}
