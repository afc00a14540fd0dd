package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"evsense/backend/libs/httpserver"
	libredis "evsense/backend/libs/redis"
	"evsense/backend/services/dashboard-service/internal/alerts"
	"evsense/backend/services/dashboard-service/internal/clients"
	"evsense/backend/services/dashboard-service/internal/config"
	httpapi "evsense/backend/services/dashboard-service/internal/http"
	"evsense/backend/services/dashboard-service/internal/http/handlers"
	"evsense/backend/services/dashboard-service/internal/http/middleware"
	"evsense/backend/services/dashboard-service/internal/loop"
	"evsense/backend/services/dashboard-service/internal/metrics"
	"evsense/backend/services/dashboard-service/internal/models"
	"evsense/backend/services/dashboard-service/internal/notify"
	"evsense/backend/services/dashboard-service/internal/session"
	"evsense/backend/services/dashboard-service/internal/stations"
	"evsense/backend/services/dashboard-service/internal/twin"
	"evsense/backend/services/dashboard-service/internal/voice"
	"evsense/backend/services/dashboard-service/internal/ws"
)

// App wires dashboard dependencies.
type App struct {
	loop        *loop.Loop
	twin        *twin.Twin
	assistant   *voice.Assistant
	voiceInput  *voice.QueueInput
	hub         *ws.Hub
	server      *httpserver.Server
	redisClient *redis.Client
	cancelWS    context.CancelFunc
	logger      *zap.Logger
}

// New constructs the application graph. Redis is optional; without it the session lives in memory.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	var store session.Store
	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	switch {
	case errors.Is(err, libredis.ErrDisabled):
		logger.Info("no redis configured, keeping session in memory")
		store = session.NewMemoryStore()
	case err != nil:
		return nil, err
	default:
		a.redisClient = redisClient
		store = session.NewRedisStore(redisClient)
	}
	tokens := session.NewTokens(store)
	if err := tokens.PurgeStale(context.Background()); err != nil {
		logger.Warn("failed to purge stale session keys", zap.Error(err))
	}

	m := metrics.New()
	a.loop = loop.New(clock.RealClock{}, logger.Named("loop"))

	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())
	sensorClient := clients.NewSensorClient(cfg.Services.SensorURL, httpClient)
	authClient := clients.NewAuthClient(cfg.Services.AuthURL, httpClient)

	speaker := voice.NewSpeaker(cfg.Voice.Enabled, logger.Named("voice"))
	center := notify.NewCenter(clock.RealClock{}, cfg.NotificationLimit, nil)

	twinCfg := twin.DefaultConfig()
	twinCfg.LatestInterval = cfg.Polling.LatestInterval
	twinCfg.HistoryInterval = cfg.Polling.HistoryInterval
	twinCfg.HistoryLimit = cfg.Polling.HistoryLimit
	twinCfg.SearchRadiusKm = cfg.SearchRadiusKm
	twinCfg.OffPeak = alerts.OffPeakConfig{Location: cfg.Location()}
	a.twin = twin.New(a.loop, sensorClient, twinCfg, speaker, center, m, nil, logger.Named("twin"))

	directory := stations.NewDirectory(stations.Fixtures(), speaker, center, logger.Named("stations"))
	a.assistant = voice.NewAssistant(directory.All(), a.twin.Status, speaker, logger.Named("assistant"))
	a.voiceInput = voice.NewQueueInput(cfg.Voice.QueueSize)

	a.hub = ws.NewHub(m, logger.Named("ws"))
	speaker.SetSink(func(text string) {
		a.hub.Publish(ws.TypeSpeech, text)
	})
	center.SetOnAdd(func(n models.Notification) {
		a.hub.Publish(ws.TypeNotification, n)
	})
	a.twin.Subscribe(func(s twin.Snapshot) {
		a.hub.Publish(ws.TypeStatus, s)
	})

	commands := ws.NewCommands(ws.Actions{
		Voice:   a.voiceInput,
		SOS:     func() { a.twin.SOS() },
		Refresh: a.twin.RefreshLatest,
	}, logger.Named("ws"))
	wsCtx, cancel := context.WithCancel(context.Background())
	a.cancelWS = cancel
	wsServer := ws.NewServer(wsCtx, a.hub, commands, func() ([]byte, error) {
		return ws.Encode(ws.TypeStatus, a.twin.Snapshot())
	}, 0, logger.Named("ws"))

	verifier := middleware.NewVerifier(cfg.JWT.Secret)
	if !verifier.Enabled() {
		logger.Info("no jwt secret configured, driver actions are unauthenticated")
	}
	authHandlers := handlers.NewAuthHandlers(authClient, tokens, verifier, speaker, logger)
	stationsHandlers := handlers.NewStationsHandlers(directory, a.twin, logger)

	routes := httpapi.Routes{
		Battery:       handlers.NewBatteryHandler(a.twin),
		History:       handlers.NewHistoryHandler(a.twin, cfg.Location()),
		Stations:      http.HandlerFunc(stationsHandlers.List),
		Navigate:      http.HandlerFunc(stationsHandlers.Navigate),
		SMS:           http.HandlerFunc(stationsHandlers.SMS),
		Notifications: handlers.NewNotificationsHandler(center),
		SOS:           handlers.NewSOSHandler(a.twin),
		Settings:      handlers.NewSettingsHandler(a.twin, logger),
		Voice:         handlers.NewVoiceHandler(a.assistant),
		Login:         http.HandlerFunc(authHandlers.Login),
		Register:      http.HandlerFunc(authHandlers.Register),
		Logout:        http.HandlerFunc(authHandlers.Logout),
		Session:       http.HandlerFunc(authHandlers.Session),
		WS:            wsServer,
		Metrics:       m.Handler(),
		Health:        handlers.NewHealthHandler(),
	}
	a.server = httpserver.NewServer("dashboard", cfg.HTTPAddress(), httpapi.NewRouter(routes, middleware.RequireBearer(verifier)), logger,
		httpserver.Recovery(logger),
		httpserver.CORS(),
		httpserver.Logging(logger),
	)
	return a, nil
}

// Run drives the twin loop, serves HTTP and answers voice commands until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// The loop outlives ctx until the twin has stopped, so teardown runs on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	g.Go(func() error {
		if err := a.loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer stopLoop()
		if !a.twin.Start() {
			return nil
		}
		<-ctx.Done()
		a.twin.Stop()
		return nil
	})
	g.Go(func() error { return a.server.Run(ctx) })
	g.Go(func() error { return a.hub.Run(ctx) })
	g.Go(func() error { return a.assistant.Run(ctx, a.voiceInput) })
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	a.cancelWS()
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
