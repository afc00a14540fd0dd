package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"evsense/backend/services/sensor-service/internal/metrics"
	"evsense/backend/services/sensor-service/internal/models"
	"evsense/backend/services/sensor-service/internal/service"
)

// Ingester stores incoming samples.
type Ingester interface {
	Ingest(ctx context.Context, source string, input models.SampleInput) (models.Sample, error)
}

// DataHandler accepts samples posted by the vehicle sensor board.
type DataHandler struct {
	service Ingester
	logger  *zap.Logger
}

// NewDataHandler returns handler.
func NewDataHandler(service Ingester, logger *zap.Logger) *DataHandler {
	return &DataHandler{service: service, logger: logger}
}

// ServeHTTP handles POST /data.
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input models.SampleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid json")
		return
	}

	sample, err := h.service.Ingest(r.Context(), metrics.SourceHTTP, input)
	if err != nil {
		if service.IsInvalid(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("failed to store sample", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store sample")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "received",
		"data":   sample,
	})
}
