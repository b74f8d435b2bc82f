// Package collaborator calls the other services of the platform over HTTP.
package collaborator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/observability"
)

// Outcome classes for a collaborator call.
var (
	ErrNotFound    = errors.New("collaborator: resource not found")
	ErrUnavailable = errors.New("collaborator: service unavailable")
	ErrUpstream    = errors.New("collaborator: unexpected response")
)

const defaultTimeout = 5 * time.Second

type forwardedAuthKey struct{}

// WithForwardedAuth attaches the inbound Authorization header so calls
// that act on behalf of the caller can pass it on.
func WithForwardedAuth(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, forwardedAuthKey{}, header)
}

func forwardedAuth(ctx context.Context) string {
	header, _ := ctx.Value(forwardedAuthKey{}).(string)
	return header
}

// Client performs instrumented GET requests with a uniform deadline.
// It never retries.
type Client struct {
	http    *http.Client
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying transport. Tests use it to point at httptest servers.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMetrics records each call outcome.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client whose transport is traced with OpenTelemetry.
func NewClient(timeout time.Duration, logger *zap.Logger, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON fetches url and decodes a 2xx body into out (when non-nil).
// The deadline derives from ctx so a cancelled inbound request aborts the call.
func (c *Client) getJSON(ctx context.Context, target, url string, header http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(target, "unavailable")
		c.logger.Warn("collaborator unreachable", zap.String("target", target), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.record(target, "not_found")
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.record(target, "error")
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("collaborator returned error status", zap.String("target", target), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s answered %d", ErrUpstream, target, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.record(target, "error")
			return fmt.Errorf("%w: %s: decode body: %v", ErrUpstream, target, err)
		}
	}
	c.record(target, "ok")
	return nil
}

func (c *Client) record(target, outcome string) {
	c.metrics.RecordUpstream(target, outcome)
}
