// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// SettingsDependencies defines the interface for season settings.
type SettingsDependencies interface {
	BestN(ctx context.Context) int
	SetBestN(ctx context.Context, n int) error
}

// SettingsHandler handles season settings requests.
type SettingsHandler struct {
	deps SettingsDependencies
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps SettingsDependencies) *SettingsHandler {
	return &SettingsHandler{deps: deps}
}

type bestNPayload struct {
	BestN int `json:"best_n"`
}

// HandleBestN handles GET and PUT /settings/best-n requests. Changing the
// setting needs no rescore: season tables are computed on read.
func (h *SettingsHandler) HandleBestN(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, bestNPayload{BestN: h.deps.BestN(r.Context())})
	case http.MethodPut:
		var req bestNPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := h.deps.SetBestN(r.Context(), req.BestN); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bestNPayload{BestN: req.BestN})
	default:
		http.NotFound(w, r)
	}
}
