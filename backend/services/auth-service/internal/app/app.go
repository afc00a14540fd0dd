package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"evsense/backend/libs/httpserver"
	appconfig "evsense/backend/services/auth-service/internal/config"
	"evsense/backend/services/auth-service/internal/db"
	httpapi "evsense/backend/services/auth-service/internal/http"
	"evsense/backend/services/auth-service/internal/http/handlers"
	"evsense/backend/services/auth-service/internal/password"
	"evsense/backend/services/auth-service/internal/repository"
	"evsense/backend/services/auth-service/internal/service"
)

// App wires dependencies for the auth service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	logger *zap.Logger
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(sqlDB)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, logger)

	routes := httpapi.Routes{
		Register: handlers.NewRegisterHandler(authSvc, logger),
		Login:    handlers.NewLoginHandler(authSvc, logger),
		Health:   handlers.NewHealthHandler(),
	}

	server := httpserver.NewServer("auth", cfg.HTTPAddress(), httpapi.NewRouter(routes), logger,
		httpserver.Recovery(logger),
		httpserver.CORS(),
		httpserver.Logging(logger),
	)

	return &App{
		server: server,
		db:     sqlDB,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
