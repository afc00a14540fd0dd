package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddress())
	}
	if cfg.Services.SensorURL != "http://localhost:5000" {
		t.Fatalf("sensor url = %q", cfg.Services.SensorURL)
	}
	if cfg.Polling.LatestInterval != time.Second || cfg.Polling.HistoryInterval != 5*time.Minute || cfg.Polling.HistoryLimit != 100 {
		t.Fatalf("unexpected polling defaults %+v", cfg.Polling)
	}
	if !cfg.Voice.Enabled || cfg.SearchRadiusKm != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SENSOR_API_BASE_URL", "http://sensors.local:5000/")
	t.Setenv("DASHBOARD_LATEST_INTERVAL", "250ms")
	t.Setenv("DASHBOARD_VOICE_ENABLED", "false")
	t.Setenv("DASHBOARD_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Services.SensorURL != "http://sensors.local:5000" {
		t.Fatalf("trailing slash must be trimmed, got %q", cfg.Services.SensorURL)
	}
	if cfg.Polling.LatestInterval != 250*time.Millisecond {
		t.Fatalf("latest interval = %s", cfg.Polling.LatestInterval)
	}
	if cfg.Voice.Enabled {
		t.Fatalf("voice must be disabled")
	}
	if cfg.Location().String() != "Asia/Kolkata" {
		t.Fatalf("location = %s", cfg.Location())
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "relative sensor url", key: "SENSOR_API_BASE_URL", val: "sensors"},
		{name: "zero interval", key: "DASHBOARD_HISTORY_INTERVAL", val: "0s"},
		{name: "bad timezone", key: "DASHBOARD_TIMEZONE", val: "Mars/Olympus"},
		{name: "zero history limit", key: "DASHBOARD_HISTORY_LIMIT", val: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
