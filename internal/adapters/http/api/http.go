// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/strideclub/champ/internal/adapters/repository"
	service "github.com/strideclub/champ/internal/app"
	"github.com/strideclub/champ/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RunnerDependencies
	RaceDependencies
	ResultDependencies
	StandingsDependencies
	RescoreDependencies
	SettingsDependencies
	AgeGradeDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	runnersHandler   *RunnersHandler
	racesHandler     *RacesHandler
	resultsHandler   *ResultsHandler
	standingsHandler *StandingsHandler
	rescoreHandler   *RescoreHandler
	settingsHandler  *SettingsHandler
	ageGradeHandler  *AgeGradeHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxStandingsLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		runnersHandler:   NewRunnersHandler(deps),
		racesHandler:     NewRacesHandler(deps, deps),
		resultsHandler:   NewResultsHandler(deps),
		standingsHandler: NewStandingsHandler(deps, maxStandingsLimit),
		rescoreHandler:   NewRescoreHandler(deps),
		settingsHandler:  NewSettingsHandler(deps),
		ageGradeHandler:  NewAgeGradeHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/runners", MetricsMiddleware(s.runnersHandler.HandleCollection, "runners"))
	mux.HandleFunc("/runners/", MetricsMiddleware(s.runnersHandler.HandleItem, "runners"))
	mux.HandleFunc("/races", MetricsMiddleware(s.racesHandler.HandleCollection, "races"))
	mux.HandleFunc("/races/", MetricsMiddleware(s.racesHandler.HandleItem, "races"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleCollection, "results"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleItem, "results"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleRaw, "standings"))
	mux.HandleFunc("/standings/age-graded", MetricsMiddleware(s.standingsHandler.HandleAgeGraded, "standings_age_graded"))
	mux.HandleFunc("/rescore", MetricsMiddleware(s.rescoreHandler.HandleRescore, "rescore"))
	mux.HandleFunc("/settings/best-n", MetricsMiddleware(s.settingsHandler.HandleBestN, "settings_best_n"))
	mux.HandleFunc("/age-grade", MetricsMiddleware(s.ageGradeHandler.HandleCalculate, "age_grade"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates store and service sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrRunnerNotFound),
		errors.Is(err, repository.ErrRaceNotFound),
		errors.Is(err, repository.ErrResultNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicateResult):
		writeError(w, http.StatusConflict, "duplicate_result", err)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parseGender validates the one-letter gender code used on the wire.
func parseGender(s string) (model.Gender, error) {
	g := model.Gender(s)
	if !g.Valid() {
		return "", errors.New("gender must be M or F")
	}
	return g, nil
}
