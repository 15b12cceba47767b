// Package api internal/infrastructure/api/http_client.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 200 * time.Millisecond
	maxBodyBytes       = 1 << 20
)

// ClientConfig holds the transport settings shared by the HTTP rate sources
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

func (c ClientConfig) withDefaults(baseURL string) ClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	return c
}

// StatusError is returned when an endpoint answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned error status: %d, body: %s", e.StatusCode, e.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// jsonGetter executes GET requests with retry and quadratic backoff
type jsonGetter struct {
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	logger      logger.Logger
}

func newJSONGetter(httpClient *http.Client, cfg ClientConfig, log logger.Logger) jsonGetter {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}
	if log == nil {
		log = logger.Nop()
	}
	return jsonGetter{
		httpClient:  httpClient,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		logger:      log,
	}
}

// getJSON fetches reqURL and decodes the body into out
func (g jsonGetter) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		body, err := g.get(ctx, reqURL)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !retryable(statusErr.StatusCode) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < g.maxAttempts {
			backoffTime := time.Duration(attempt*attempt) * g.backoffBase
			g.logger.Warn("Request failed, retrying", map[string]interface{}{
				"url":     reqURL,
				"attempt": attempt,
				"max":     g.maxAttempts,
				"backoff": backoffTime.String(),
				"error":   err.Error(),
			})

			timer := time.NewTimer(backoffTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("failed to execute request after %d attempts: %w", g.maxAttempts, lastErr)
}

func (g jsonGetter) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.logger.Warn("Error closing response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	g.logger.Debug("API response", map[string]interface{}{
		"url":    reqURL,
		"status": resp.StatusCode,
	})

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
