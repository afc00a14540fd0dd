package httpapi

import (
	"net/http"

	"evsense/backend/libs/httpserver"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Battery       http.Handler
	History       http.Handler
	Stations      http.Handler
	Navigate      http.Handler
	SMS           http.Handler
	Notifications http.Handler
	SOS           http.Handler
	Settings      http.Handler
	Voice         http.Handler
	Login         http.Handler
	Register      http.Handler
	Logout        http.Handler
	Session       http.Handler
	WS            http.Handler
	Metrics       http.Handler
	Health        http.Handler
}

// NewRouter wires HTTP routes. protect guards endpoints that act on behalf of the driver.
func NewRouter(routes Routes, protect httpserver.Middleware) http.Handler {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}
	mux := http.NewServeMux()
	handle := func(pattern, method string, h http.Handler) {
		if h == nil {
			return
		}
		if method != "" {
			h = httpserver.Method(method, h)
		}
		mux.Handle(pattern, h)
	}

	handle("/health", http.MethodGet, routes.Health)
	handle("/metrics", http.MethodGet, routes.Metrics)
	handle("/ws", http.MethodGet, routes.WS)

	handle("/api/battery", http.MethodGet, routes.Battery)
	handle("/api/history", http.MethodGet, routes.History)
	handle("/api/stations", http.MethodGet, routes.Stations)
	handle("/api/notifications", "", routes.Notifications)
	handle("/api/session", http.MethodGet, routes.Session)

	handle("/api/auth/login", http.MethodPost, routes.Login)
	handle("/api/auth/register", http.MethodPost, routes.Register)
	handle("/api/auth/logout", http.MethodPost, routes.Logout)

	if routes.Settings != nil {
		handle("/api/settings", "", protect(routes.Settings))
	}
	if routes.SOS != nil {
		handle("/api/sos", http.MethodPost, protect(routes.SOS))
	}
	if routes.Voice != nil {
		handle("/api/voice", http.MethodPost, protect(routes.Voice))
	}
	if routes.Navigate != nil {
		handle("/api/stations/navigate", http.MethodPost, protect(routes.Navigate))
	}
	if routes.SMS != nil {
		handle("/api/stations/sms", http.MethodPost, protect(routes.SMS))
	}
	return mux
}
