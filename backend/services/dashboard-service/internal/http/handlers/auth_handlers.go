package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/clients"
	"evsense/backend/services/dashboard-service/internal/session"
)

const logoutMessage = "Logging out. See you soon!"

// Authenticator is the auth backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (clients.TokenResponse, error)
	Register(ctx context.Context, email, password, vehicleID string) (clients.TokenResponse, error)
}

// TokenVerifier reads the subject of a stored token.
type TokenVerifier interface {
	Enabled() bool
	Subject(token string) (string, error)
}

// Speaker speaks a confirmation.
type Speaker interface {
	Speak(text string)
}

// AuthHandlers proxies auth-service and keeps the resulting token.
type AuthHandlers struct {
	client   Authenticator
	tokens   *session.Tokens
	verifier TokenVerifier
	speaker  Speaker
	logger   *zap.Logger
}

// NewAuthHandlers returns handler struct.
func NewAuthHandlers(client Authenticator, tokens *session.Tokens, verifier TokenVerifier, speaker Speaker, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{client: client, tokens: tokens, verifier: verifier, speaker: speaker, logger: logger}
}

type credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	VehicleID string `json:"vehicle_id"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	token, err := h.client.Register(r.Context(), req.Email, req.Password, req.VehicleID)
	h.finish(w, r, "register", token, err)
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	token, err := h.client.Login(r.Context(), req.Email, req.Password)
	h.finish(w, r, "login", token, err)
}

func (h *AuthHandlers) finish(w http.ResponseWriter, r *http.Request, op string, token clients.TokenResponse, err error) {
	var authErr *clients.AuthError
	switch {
	case errors.As(err, &authErr):
		h.logger.Info(op+" rejected", zap.Int("status", authErr.Status))
		writeRaw(w, authErr.Status, []byte(authErr.Body))
		return
	case err != nil:
		h.logger.Error(op+" proxy failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "auth service unavailable")
		return
	}

	if err := h.tokens.Save(r.Context(), token.AccessToken); err != nil {
		h.logger.Error("failed to store token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	h.speaker.Speak(logoutMessage)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
}

// Session handles GET /api/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Token(r.Context())
	if errors.Is(err, session.ErrNoToken) {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	if err != nil {
		h.logger.Error("failed to read token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}

	resp := sessionResponse{Authenticated: true}
	if h.verifier != nil && h.verifier.Enabled() {
		subject, err := h.verifier.Subject(strings.TrimSpace(token))
		if err != nil {
			writeJSON(w, http.StatusOK, sessionResponse{})
			return
		}
		resp.Subject = subject
	}
	writeJSON(w, http.StatusOK, resp)
}
