package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"evsense/backend/services/sensor-service/internal/models"
)

// LatestKey holds the most recent sample as JSON.
const LatestKey = "sensors:latest"

// ErrNoData is returned before the first sample has been stored.
var ErrNoData = errors.New("no data yet")

// Store caches the latest sample in redis.
type Store struct {
	client *redis.Client
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Save replaces the latest sample.
func (s *Store) Save(ctx context.Context, sample models.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, LatestKey, data, 0).Err()
}

// Get returns the latest sample or ErrNoData.
func (s *Store) Get(ctx context.Context) (models.Sample, error) {
	result, err := s.client.Get(ctx, LatestKey).Result()
	if errors.Is(err, redis.Nil) {
		return models.Sample{}, ErrNoData
	}
	if err != nil {
		return models.Sample{}, err
	}
	var sample models.Sample
	if err := json.Unmarshal([]byte(result), &sample); err != nil {
		return models.Sample{}, err
	}
	return sample, nil
}

// MemoryStore keeps the latest sample in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	sample *models.Sample
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the latest sample.
func (m *MemoryStore) Save(_ context.Context, sample models.Sample) error {
	m.mu.Lock()
	m.sample = &sample
	m.mu.Unlock()
	return nil
}

// Get returns the latest sample or ErrNoData.
func (m *MemoryStore) Get(_ context.Context) (models.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sample == nil {
		return models.Sample{}, ErrNoData
	}
	return *m.sample, nil
}
