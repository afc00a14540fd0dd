package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/analytics"
	"evsense/backend/services/dashboard-service/internal/models"
	"evsense/backend/services/dashboard-service/internal/twin"
)

// TwinState is the part of the twin the HTTP API reads and drives.
type TwinState interface {
	Snapshot() twin.Snapshot
	Settings() twin.Settings
	UpdateSettings(s twin.Settings) twin.Settings
	SOS() models.Notification
}

// NewBatteryHandler returns GET /api/battery handler.
func NewBatteryHandler(state TwinState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, state.Snapshot())
	}
}

type historyResponse struct {
	analytics.Report
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// NewHistoryHandler returns GET /api/history handler. Labels render in loc.
func NewHistoryHandler(state TwinState, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := state.Snapshot()
		writeJSON(w, http.StatusOK, historyResponse{
			Report:  analytics.Build(snap.History, loc),
			Loading: snap.HistoryLoading,
			Error:   snap.HistoryError,
		})
	}
}

// NewSOSHandler returns POST /api/sos handler.
func NewSOSHandler(state TwinState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, state.SOS())
	}
}

// NewSettingsHandler serves GET and PUT /api/settings.
func NewSettingsHandler(state TwinState, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, state.Settings())
		case http.MethodPut:
			current := state.Settings()
			next := current
			if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			if next.SearchRadiusKm < 0 {
				writeError(w, http.StatusUnprocessableEntity, "searchRadius must not be negative")
				return
			}
			logger.Debug("settings change requested", zap.Bool("voice_enabled", next.VoiceEnabled))
			writeJSON(w, http.StatusOK, state.UpdateSettings(next))
		default:
			w.Header().Set("Allow", "GET, PUT")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}
