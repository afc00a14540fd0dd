package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyToken is returned when the auth backend answers 2xx without a token.
var ErrEmptyToken = errors.New("auth: empty access token")

// AuthError carries the raw error text of a rejected auth request.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if msg := strings.TrimSpace(e.Body); msg != "" {
		return msg
	}
	return fmt.Sprintf("auth request failed with status %d", e.Status)
}

// TokenResponse is the auth backend success payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthClient calls the auth backend.
type AuthClient struct {
	base *BaseClient
}

// NewAuthClient calls auth-service at baseURL.
func NewAuthClient(baseURL string, httpClient HTTPDoer) *AuthClient {
	return &AuthClient{base: NewBaseClient(baseURL, httpClient)}
}

// Register creates an account bound to a vehicle.
func (c *AuthClient) Register(ctx context.Context, email, password, vehicleID string) (TokenResponse, error) {
	return c.post(ctx, "/auth/register", map[string]string{
		"email":      email,
		"password":   password,
		"vehicle_id": vehicleID,
	})
}

// Login exchanges credentials for a bearer token.
func (c *AuthClient) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	return c.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *AuthClient) post(ctx context.Context, path string, payload map[string]string) (TokenResponse, error) {
	resp, err := c.base.postJSON(ctx, path, payload)
	if err != nil {
		return TokenResponse{}, err
	}
	if !resp.ok() {
		return TokenResponse{}, &AuthError{Status: resp.status, Body: string(resp.body)}
	}
	var token TokenResponse
	if err := json.Unmarshal(resp.body, &token); err != nil {
		return TokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return TokenResponse{}, ErrEmptyToken
	}
	return token, nil
}
