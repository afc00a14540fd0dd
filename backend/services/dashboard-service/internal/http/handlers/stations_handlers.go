package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/stations"
)

// StationsHandlers serves the station directory.
type StationsHandlers struct {
	directory *stations.Directory
	state     TwinState
	logger    *zap.Logger
}

// NewStationsHandlers returns handler.
func NewStationsHandlers(directory *stations.Directory, state TwinState, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{directory: directory, state: state, logger: logger}
}

// List handles GET /api/stations. radius overrides the configured search radius; 0 lists all.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	radius := h.state.Settings().SearchRadiusKm
	if raw := r.URL.Query().Get("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusUnprocessableEntity, "radius must be a non-negative number")
			return
		}
		radius = v
	}

	var voltage float64
	if s := h.state.Snapshot().Sensor; s != nil {
		voltage = s.Voltage
	}
	list := h.directory.List(radius)
	writeJSON(w, http.StatusOK, h.directory.Estimates(list, voltage))
}

type stationAction struct {
	ID string `json:"id"`
}

// Navigate handles POST /api/stations/navigate.
func (h *StationsHandlers) Navigate(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeStationID(w, r)
	if !ok {
		return
	}
	st, err := h.directory.Navigate(id)
	if err != nil {
		h.writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SMS handles POST /api/stations/sms.
func (h *StationsHandlers) SMS(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeStationID(w, r)
	if !ok {
		return
	}
	msg, err := h.directory.SendSMS(id)
	if err != nil {
		h.writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func decodeStationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req stationAction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "station id is required")
		return "", false
	}
	return req.ID, true
}

func (h *StationsHandlers) writeStationError(w http.ResponseWriter, err error) {
	if errors.Is(err, stations.ErrStationNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("station action failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "station action failed")
}
