package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"evsense/backend/services/sensor-service/internal/models"
)

// HistoryReader lists stored samples newest first.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

// NewHistoryHandler handles GET /history?limit=N.
func NewHistoryHandler(reader HistoryReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
				return
			}
			limit = n
		}

		entries, err := reader.History(r.Context(), limit)
		if err != nil {
			logger.Error("failed to read history", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read history")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   entries,
		})
	}
}
