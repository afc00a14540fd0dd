package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"evsense/backend/services/sensor-service/internal/metrics"
	"evsense/backend/services/sensor-service/internal/models"
)

const (
	// DefaultHistoryLimit applies when the caller gives no limit.
	DefaultHistoryLimit = 100
	// MaxHistoryLimit caps a single history read.
	MaxHistoryLimit = 1000
)

// LatestStore keeps the most recent sample.
type LatestStore interface {
	Save(ctx context.Context, sample models.Sample) error
	Get(ctx context.Context) (models.Sample, error)
}

// HistoryStore appends samples and lists them newest first.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

// SensorService handles ingestion and reads of sensor samples.
type SensorService struct {
	latest  LatestStore
	history HistoryStore
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewSensorService returns service instance.
func NewSensorService(latest LatestStore, history HistoryStore, m *metrics.Metrics, logger *zap.Logger) *SensorService {
	return &SensorService{
		latest:  latest,
		history: history,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Ingest validates and stores a sample as the latest reading and as a history entry.
func (s *SensorService) Ingest(ctx context.Context, source string, input models.SampleInput) (models.Sample, error) {
	if err := input.Validate(); err != nil {
		s.metrics.Rejected(source)
		return models.Sample{}, err
	}
	sample := input.Sample()

	if err := s.latest.Save(ctx, sample); err != nil {
		s.metrics.StoreFailed()
		return models.Sample{}, fmt.Errorf("save latest: %w", err)
	}

	entry := &models.HistoryEntry{Timestamp: s.now().UTC(), Sample: sample}
	if err := s.history.Append(ctx, entry); err != nil {
		s.metrics.StoreFailed()
		return models.Sample{}, fmt.Errorf("append history: %w", err)
	}

	s.metrics.Accepted(source, sample.Voltage, sample.Temperature)
	s.logger.Debug("sample stored",
		zap.String("source", source),
		zap.Float64("voltage", sample.Voltage),
		zap.Float64("current", sample.Current),
		zap.Float64("temperature", sample.Temperature),
	)
	return sample, nil
}

// IngestPayload decodes a raw JSON payload and ingests it.
func (s *SensorService) IngestPayload(ctx context.Context, source string, payload []byte) (models.Sample, error) {
	var input models.SampleInput
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&input); err != nil {
		s.metrics.Rejected(source)
		return models.Sample{}, fmt.Errorf("%w: %v", models.ErrInvalidSample, err)
	}
	return s.Ingest(ctx, source, input)
}

// Latest returns the most recent sample.
func (s *SensorService) Latest(ctx context.Context) (models.Sample, error) {
	return s.latest.Get(ctx)
}

// History returns up to limit entries, newest first. Non-positive limits use the default.
func (s *SensorService) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// IsInvalid reports whether err is a payload validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, models.ErrInvalidSample)
}
