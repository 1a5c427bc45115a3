package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// envelope is the common part of every backend response
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client talks to the Prescripto backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock sets the clock used for cache-busting query parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, token, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, token, bytes.NewReader(payload), "application/json", out)
}

// do sends one request and decodes the response into out.
// Transport failures map to ErrNetworkFailure, 401/403 to ErrNotAuthenticated,
// and any other non-2xx or success:false response to a ServerRejectedError.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out interface{}) error {
	reqID := uuid.New().String()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(constants.RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(constants.TokenHeader, token)
	}

	logger.Debug("api request", "method", method, "path", path, "request_id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("api request failed", "path", path, "request_id", reqID, "error", err)
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn("failed to read response", "path", path, "request_id", reqID, "error", err)
		return apperr.Network(err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("undecodable response", "path", path, "status", resp.StatusCode, "request_id", reqID, "error", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		logger.Warn("api request unauthorized", "path", path, "status", resp.StatusCode, "request_id", reqID)
		if env.Message != "" {
			return fmt.Errorf("%w: %s", apperr.ErrNotAuthenticated, env.Message)
		}
		return apperr.ErrNotAuthenticated
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		logger.Warn("api request rejected", "path", path, "status", resp.StatusCode, "message", env.Message, "request_id", reqID)
		return apperr.Rejected(resp.StatusCode, env.Message)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}
