package session

import (
	"context"
	"errors"
	"testing"
)

func TestTokensLifecycle(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokens(NewMemoryStore())

	if _, err := tokens.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if err := tokens.Save(ctx, "abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	tok, err := tokens.Token(ctx)
	if err != nil || tok != "abc" {
		t.Fatalf("token = %q, %v", tok, err)
	}
	if err := tokens.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := tokens.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after clear, got %v", err)
	}
}

func TestPurgeStaleKeepsToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, k := range []string{"simulatedSoc", "simulatedSoh", "lowBatteryAlertTriggered"} {
		_ = store.Set(ctx, k, "1")
	}
	tokens := NewTokens(store)
	_ = tokens.Save(ctx, "abc")

	if err := tokens.PurgeStale(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	for _, k := range staleKeys {
		if _, err := store.Get(ctx, k); !errors.Is(err, ErrNoToken) {
			t.Fatalf("key %s survived purge", k)
		}
	}
	if tok, _ := tokens.Token(ctx); tok != "abc" {
		t.Fatalf("purge must keep the token")
	}
}
