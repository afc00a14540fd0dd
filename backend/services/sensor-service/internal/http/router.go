package httpapi

import (
	"net/http"

	"evsense/backend/libs/httpserver"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Data    http.Handler
	Latest  http.Handler
	History http.Handler
	Metrics http.Handler
	Health  http.Handler
}

// NewRouter sets up HTTP routing.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Data != nil {
		mux.Handle("/data", httpserver.Method(http.MethodPost, routes.Data))
	}
	if routes.Latest != nil {
		mux.Handle("/latest", httpserver.Method(http.MethodGet, routes.Latest))
	}
	if routes.History != nil {
		mux.Handle("/history", httpserver.Method(http.MethodGet, routes.History))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", httpserver.Method(http.MethodGet, routes.Metrics))
	}
	if routes.Health != nil {
		mux.Handle("/health", httpserver.Method(http.MethodGet, routes.Health))
	}
	return mux
}
