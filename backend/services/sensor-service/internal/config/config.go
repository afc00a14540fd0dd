package config

import (
	"fmt"
	"strings"

	libconfig "evsense/backend/libs/config"
)

// Config defines sensor service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"SENSOR_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"SENSOR_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"SENSOR_REDIS_ADDR"`
		Password string `yaml:"password" env:"SENSOR_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"SENSOR_REDIS_DB"`
	} `yaml:"redis"`
	MQTT struct {
		Broker   string `yaml:"broker" env:"SENSOR_MQTT_BROKER"`
		Topic    string `yaml:"topic" env:"SENSOR_MQTT_TOPIC"`
		ClientID string `yaml:"clientId" env:"SENSOR_MQTT_CLIENT_ID"`
	} `yaml:"mqtt"`
	// MemoryHistorySize bounds the in-process history used when no database is configured.
	MemoryHistorySize int `yaml:"memoryHistorySize" env:"SENSOR_MEMORY_HISTORY_SIZE"`
}

// Load reads configuration via shared helper. Database, redis and mqtt are optional.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "5000"
	cfg.MQTT.Topic = "evsense/telemetry"
	cfg.MemoryHistorySize = 1000

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate is invoked by the shared loader.
func (c *Config) Validate() error {
	if c.MemoryHistorySize < 0 {
		return fmt.Errorf("memory history size must not be negative, got %d", c.MemoryHistorySize)
	}
	if b := strings.TrimSpace(c.MQTT.Broker); b != "" && !strings.Contains(b, "://") {
		return fmt.Errorf("mqtt broker %q must include a scheme such as tcp://", b)
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "5000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
