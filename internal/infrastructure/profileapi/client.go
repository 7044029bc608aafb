// Package profileapi is the HTTP client for the backend profile endpoint.
//
// The endpoint may not be deployed yet: a 404 on GET means "no profile yet"
// and a 404 on PUT means "endpoint not available". Both are reported as
// domain.ErrProfileNotFound so callers can fall back to the local role cache.
package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/99minutos/dashboard-roles/internal/api/metrics"
	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

const (
	defaultTimeout = 5 * time.Second
	defaultPath    = "/api/profile"
	maxErrorBody   = 512
)

// Config configures the profile API client.
type Config struct {
	BaseURL string
	Path    string
	Timeout time.Duration
}

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Method string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("profile api: %s returned %d", e.Method, e.Code)
	}
	return fmt.Sprintf("profile api: %s returned %d: %s", e.Method, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrProfileUnavailable }

// Client implements ports.ProfileClient.
type Client struct {
	url  string
	http *http.Client
}

// New builds a Client. A nil httpClient gets a default one using cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	return &Client{
		url:  strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		http: httpClient,
	}
}

type updateRoleRequest struct {
	Role domain.Role `json:"role"`
}

// GetProfile fetches the caller's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	return c.do(ctx, http.MethodGet, token, nil)
}

// UpdateRole stores role on the caller's profile and returns the updated profile.
func (c *Client) UpdateRole(ctx context.Context, token string, role domain.Role) (*domain.Profile, error) {
	body, err := json.Marshal(updateRoleRequest{Role: role})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", domain.ErrProfileUnavailable, err)
	}
	return c.do(ctx, http.MethodPut, token, body)
}

func (c *Client) do(ctx context.Context, method, token string, body []byte) (*domain.Profile, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrProfileUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProfileRequestDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrProfileUnavailable, method, c.url, err)
	}
	defer resp.Body.Close()
	metrics.ProfileRequestDuration.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, domain.ErrProfileNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Method: method, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var p domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %w", domain.ErrProfileUnavailable, err)
	}
	return &p, nil
}
