package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"evsense/backend/services/auth-service/internal/models"
	"evsense/backend/services/auth-service/internal/service"
)

// Authenticator is the login half of service.AuthService.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// NewLoginHandler handles POST /auth/login.
func NewLoginHandler(auth Authenticator, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}

		token, _, err := auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusBadRequest, "Invalid credentials")
				return
			}
			logger.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   service.TokenType,
		})
	}
}
