package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"evsense/backend/services/auth-service/internal/models"
	"evsense/backend/services/auth-service/internal/password"
	"evsense/backend/services/auth-service/internal/repository"
)

var (
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrMissingFields is returned when email or password is blank.
	ErrMissingFields = errors.New("auth: email and password are required")
)

// UserRepository defines storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService contains registration/login logic.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Register creates an account bound to a vehicle and returns an access token for it.
func (s *AuthService) Register(ctx context.Context, email, password, vehicleID string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrMissingFields
	}
	s.logger.Info("register requested", zap.String("email", email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.logger.Info("register email already exists", zap.String("email", email))
		return "", nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
	}
	if vehicleID = strings.TrimSpace(vehicleID); vehicleID != "" {
		user.VehicleID = sql.NullString{String: vehicleID, Valid: true}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", nil, ErrEmailInUse
		}
		return "", nil, err
	}

	token, err := s.tokenizer.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return token, user, nil
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Info("login unknown email", zap.String("email", email))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("login invalid credentials", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("login success", zap.Int64("user_id", user.ID))
	return token, user, nil
}
