package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func named(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func deny(http.Handler) http.Handler {
	return named(http.StatusUnauthorized)
}

func TestRouterGuardsDriverActions(t *testing.T) {
	router := NewRouter(Routes{
		Battery:  named(http.StatusOK),
		Stations: named(http.StatusOK),
		SOS:      named(http.StatusOK),
		Settings: named(http.StatusOK),
		Navigate: named(http.StatusOK),
		Health:   named(http.StatusOK),
	}, deny)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/health", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/battery", want: http.StatusOK},
		{method: http.MethodPost, path: "/api/battery", want: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/api/stations", want: http.StatusOK},
		{method: http.MethodPost, path: "/api/sos", want: http.StatusUnauthorized},
		{method: http.MethodGet, path: "/api/sos", want: http.StatusMethodNotAllowed},
		{method: http.MethodPut, path: "/api/settings", want: http.StatusUnauthorized},
		{method: http.MethodPost, path: "/api/stations/navigate", want: http.StatusUnauthorized},
		{method: http.MethodPost, path: "/api/voice", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestRouterWithoutGuard(t *testing.T) {
	router := NewRouter(Routes{SOS: named(http.StatusOK)}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}
