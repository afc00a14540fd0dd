package httpapi

import (
	"net/http"

	"evsense/backend/libs/httpserver"
)

// Routes aggregates handlers for HTTP server.
type Routes struct {
	Register http.HandlerFunc
	Login    http.HandlerFunc
	Health   http.HandlerFunc
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Register != nil {
		mux.Handle("/auth/register", httpserver.Method(http.MethodPost, routes.Register))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", httpserver.Method(http.MethodPost, routes.Login))
	}
	if routes.Health != nil {
		mux.Handle("/health", httpserver.Method(http.MethodGet, routes.Health))
	}
	return mux
}
