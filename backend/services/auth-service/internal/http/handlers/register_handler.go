package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"evsense/backend/services/auth-service/internal/models"
	"evsense/backend/services/auth-service/internal/password"
	"evsense/backend/services/auth-service/internal/service"
)

// Registrar is the registration half of service.AuthService.
type Registrar interface {
	Register(ctx context.Context, email, password, vehicleID string) (string, *models.User, error)
}

// NewRegisterHandler returns HTTP handler for POST /auth/register.
func NewRegisterHandler(auth Registrar, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		VehicleID string `json:"vehicle_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}

		token, _, err := auth.Register(r.Context(), req.Email, req.Password, req.VehicleID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailInUse):
				writeError(w, http.StatusBadRequest, "Email already registered")
			case errors.Is(err, service.ErrMissingFields):
				writeError(w, http.StatusUnprocessableEntity, "email and password are required")
			case errors.Is(err, password.ErrTooLong):
				writeError(w, http.StatusUnprocessableEntity, "password is too long")
			default:
				logger.Error("registration failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Registration failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   service.TokenType,
		})
	}
}
