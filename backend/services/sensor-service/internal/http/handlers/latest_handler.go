package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"evsense/backend/services/sensor-service/internal/models"
	redisstore "evsense/backend/services/sensor-service/internal/redis"
)

// LatestReader returns the most recent sample.
type LatestReader interface {
	Latest(ctx context.Context) (models.Sample, error)
}

// NewLatestHandler handles GET /latest. Before the first sample it answers {"status":"no data yet"}.
func NewLatestHandler(reader LatestReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample, err := reader.Latest(r.Context())
		if errors.Is(err, redisstore.ErrNoData) {
			writeJSON(w, http.StatusOK, map[string]string{"status": redisstore.ErrNoData.Error()})
			return
		}
		if err != nil {
			logger.Error("failed to read latest sample", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read latest sample")
			return
		}
		writeJSON(w, http.StatusOK, sample)
	}
}
