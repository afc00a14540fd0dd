package repository

import (
	"context"
	"testing"
	"time"

	"evsense/backend/services/sensor-service/internal/models"
)

func TestMemoryHistoryNewestFirstAndBounded(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(3)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		entry := &models.HistoryEntry{Timestamp: base.Add(time.Duration(i) * time.Second)}
		entry.Voltage = float64(i)
		if err := h.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []float64{4, 3, 2} {
		if got[i].Voltage != want {
			t.Fatalf("entry %d: expected voltage %v, got %v", i, want, got[i].Voltage)
		}
	}

	got, _ = h.Recent(ctx, 1)
	if len(got) != 1 || got[0].Voltage != 4 {
		t.Fatalf("expected only the newest entry, got %+v", got)
	}
}
