// Package session keeps the driver's bearer token.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// TokenKey is the fixed key the bearer token is stored under.
const TokenKey = "token"

// staleKeys are simulator values older dashboards persisted. They are never read back.
var staleKeys = []string{"simulatedSoc", "simulatedSoh", "lowBatteryAlertTriggered"}

// ErrNoToken is returned when nobody is logged in.
var ErrNoToken = errors.New("session: no token")

// Store is a small string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisStore keeps values in redis. Missing keys read as ErrNoToken.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNoToken
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.values, k)
	}
	s.mu.Unlock()
	return nil
}

// Tokens stores and clears the bearer token.
type Tokens struct {
	store Store
}

// NewTokens wraps a store.
func NewTokens(store Store) *Tokens {
	return &Tokens{store: store}
}

// Save stores token, replacing any previous one.
func (t *Tokens) Save(ctx context.Context, token string) error {
	return t.store.Set(ctx, TokenKey, token)
}

// Token returns the stored token or ErrNoToken.
func (t *Tokens) Token(ctx context.Context) (string, error) {
	tok, err := t.store.Get(ctx, TokenKey)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Clear logs the driver out.
func (t *Tokens) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, TokenKey)
}

// PurgeStale removes persisted simulator values so a restart always starts from the defaults.
func (t *Tokens) PurgeStale(ctx context.Context) error {
	return t.store.Delete(ctx, staleKeys...)
}
