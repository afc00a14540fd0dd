// Package clients talks to the sensor backend (latest sample and history) and to
// auth-service. Non-2xx answers from the sensor backend surface as *StatusError so
// the dashboard can show "API error <code>" and keep polling.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer is the part of *http.Client the backends need.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError is a non-2xx answer from a backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d", e.Code)
}

// response is one backend answer, read fully so the connection can be reused.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return isSuccess(r.status)
}

func (r response) statusError() *StatusError {
	return &StatusError{Code: r.status, Body: string(r.body)}
}

// BaseClient issues JSON requests against one backend root.
type BaseClient struct {
	baseURL string
	client  HTTPDoer
}

// NewBaseClient binds a backend root such as http://localhost:5000. A trailing slash is dropped.
func NewBaseClient(baseURL string, client HTTPDoer) *BaseClient {
	return &BaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// get reads path. The request is aborted when ctx ends.
func (c *BaseClient) get(ctx context.Context, path string) (response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// postJSON sends payload encoded as JSON.
func (c *BaseClient) postJSON(ctx context.Context, path string, payload interface{}) (response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encode %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *BaseClient) do(ctx context.Context, method, path string, body []byte) (response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{status: resp.StatusCode}, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return response{status: resp.StatusCode, body: data}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// NewDefaultHTTPClient bounds every backend call by timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
