package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	libconfig "evsense/backend/libs/config"
)

// Config defines dashboard configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DASHBOARD_HTTP_PORT"`
	} `yaml:"http"`
	Services struct {
		SensorURL string `yaml:"sensorUrl" env:"SENSOR_API_BASE_URL"`
		AuthURL   string `yaml:"authUrl" env:"AUTH_SERVICE_URL"`
	} `yaml:"services"`
	HTTPClient struct {
		TimeoutSeconds int `yaml:"timeoutSeconds" env:"DASHBOARD_HTTP_TIMEOUT"`
	} `yaml:"httpClient"`
	// JWT.Secret, when set, guards the mutating endpoints and lets the session report the token subject.
	JWT struct {
		Secret string `yaml:"secret" env:"SECRET_KEY"`
	} `yaml:"jwt"`
	Polling struct {
		LatestInterval  time.Duration `yaml:"latestInterval" env:"DASHBOARD_LATEST_INTERVAL"`
		HistoryInterval time.Duration `yaml:"historyInterval" env:"DASHBOARD_HISTORY_INTERVAL"`
		HistoryLimit    int           `yaml:"historyLimit" env:"DASHBOARD_HISTORY_LIMIT"`
	} `yaml:"polling"`
	Redis struct {
		Addr     string `yaml:"addr" env:"DASHBOARD_REDIS_ADDR"`
		Password string `yaml:"password" env:"DASHBOARD_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"DASHBOARD_REDIS_DB"`
	} `yaml:"redis"`
	Voice struct {
		Enabled   bool `yaml:"enabled" env:"DASHBOARD_VOICE_ENABLED"`
		QueueSize int  `yaml:"queueSize" env:"DASHBOARD_VOICE_QUEUE"`
	} `yaml:"voice"`
	// Timezone is the IANA zone used for the off-peak window and history labels.
	Timezone          string  `yaml:"timezone" env:"DASHBOARD_TIMEZONE"`
	NotificationLimit int     `yaml:"notificationLimit" env:"DASHBOARD_NOTIFICATION_LIMIT"`
	SearchRadiusKm    float64 `yaml:"searchRadiusKm" env:"DASHBOARD_SEARCH_RADIUS_KM"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Services.SensorURL = "http://localhost:5000"
	cfg.Services.AuthURL = "http://localhost:8000"
	cfg.HTTPClient.TimeoutSeconds = 5
	cfg.Polling.LatestInterval = time.Second
	cfg.Polling.HistoryInterval = 5 * time.Minute
	cfg.Polling.HistoryLimit = 100
	cfg.Voice.Enabled = true
	cfg.Voice.QueueSize = 16
	cfg.Timezone = "Local"
	cfg.NotificationLimit = 50
	cfg.SearchRadiusKm = 5

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	cfg.Services.SensorURL = strings.TrimRight(strings.TrimSpace(cfg.Services.SensorURL), "/")
	cfg.Services.AuthURL = strings.TrimRight(strings.TrimSpace(cfg.Services.AuthURL), "/")
	return cfg, nil
}

// Validate is invoked by the shared loader.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"sensor": c.Services.SensorURL, "auth": c.Services.AuthURL} {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s url %q must be absolute", name, raw)
		}
	}
	if c.Polling.LatestInterval <= 0 || c.Polling.HistoryInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.Polling.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.Polling.HistoryLimit)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns http client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPClient.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.HTTPClient.TimeoutSeconds) * time.Second
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
