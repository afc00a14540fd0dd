package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"evsense/backend/libs/httpserver"
	libredis "evsense/backend/libs/redis"
	"evsense/backend/services/sensor-service/internal/config"
	"evsense/backend/services/sensor-service/internal/db"
	httpapi "evsense/backend/services/sensor-service/internal/http"
	"evsense/backend/services/sensor-service/internal/http/handlers"
	"evsense/backend/services/sensor-service/internal/metrics"
	mqttsub "evsense/backend/services/sensor-service/internal/mqtt"
	redisstore "evsense/backend/services/sensor-service/internal/redis"
	"evsense/backend/services/sensor-service/internal/repository"
	"evsense/backend/services/sensor-service/internal/service"
)

// App wires sensor service dependencies.
type App struct {
	server      *httpserver.Server
	subscriber  *mqttsub.Subscriber
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs application components. Postgres, redis and mqtt are each optional.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	var history service.HistoryStore
	if strings.TrimSpace(cfg.Database.DSN) != "" {
		sqlDB, err := db.NewPostgres(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		history = repository.NewHistoryRepository(sqlDB)
	} else {
		logger.Info("no database configured, keeping history in memory", zap.Int("size", cfg.MemoryHistorySize))
		history = repository.NewMemoryHistory(cfg.MemoryHistorySize)
	}

	var latest service.LatestStore
	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	switch {
	case errors.Is(err, libredis.ErrDisabled):
		latest = redisstore.NewMemoryStore()
	case err != nil:
		a.Close()
		return nil, err
	default:
		a.redisClient = redisClient
		latest = redisstore.NewStore(redisClient)
	}

	m := metrics.New()
	sensorService := service.NewSensorService(latest, history, m, logger)

	if broker := strings.TrimSpace(cfg.MQTT.Broker); broker != "" {
		a.subscriber = mqttsub.NewSubscriber(broker, cfg.MQTT.Topic, cfg.MQTT.ClientID, sensorService, logger)
	}

	routes := httpapi.Routes{
		Data:    handlers.NewDataHandler(sensorService, logger),
		Latest:  handlers.NewLatestHandler(sensorService, logger),
		History: handlers.NewHistoryHandler(sensorService, logger),
		Metrics: m.Handler(),
		Health:  handlers.NewHealthHandler(),
	}
	a.server = httpserver.NewServer("sensor", cfg.HTTPAddress(), httpapi.NewRouter(routes), logger,
		httpserver.Recovery(logger),
		httpserver.CORS(),
		httpserver.Logging(logger),
	)
	return a, nil
}

// Run serves HTTP and, when configured, consumes MQTT until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	if a.subscriber != nil {
		g.Go(func() error { return a.subscriber.Run(ctx) })
	}
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
