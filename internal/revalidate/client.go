// Package revalidate notifies the dashboard that fresh data is available.
package revalidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// HeaderToken carries the shared secret on revalidation requests.
const HeaderToken = "x-revalidation-token"

const (
	defaultTimeout = 10 * time.Second
	maxBodyLog     = 2048
)

// ErrNotConfigured is returned when the URL or the token is missing.
var ErrNotConfigured = errors.New("revalidation URL or token not configured")

// StatusError reports a non-2xx answer from the webhook.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("revalidation webhook returned %d: %s", e.Code, e.Body)
}

// Client posts revalidation requests to the dashboard.
type Client struct {
	URL        string
	Token      string
	HTTPClient *http.Client
}

// New creates a Client. Empty url or token yield a client that skips every call.
func New(url, token string) *Client {
	return &Client{URL: url, Token: token, HTTPClient: &http.Client{Timeout: defaultTimeout}}
}

// Configured reports whether both the URL and the token are set.
func (c *Client) Configured() bool {
	return c != nil && c.URL != "" && c.Token != ""
}

// Trigger sends one revalidation request.
func (c *Client) Trigger(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, nil)
	if err != nil {
		return fmt.Errorf("Trigger: building request: %w", err)
	}
	req.Header.Set(HeaderToken, c.Token)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Trigger: sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// Notify triggers revalidation and logs the outcome. It never fails.
func (c *Client) Notify(ctx context.Context) {
	log := logger.FromContext(ctx)

	err := c.Trigger(ctx)
	var statusErr *StatusError
	switch {
	case err == nil:
		log.Info().Str("url", c.URL).Msg("Dashboard revalidated")
	case errors.Is(err, ErrNotConfigured):
		log.Info().Msg("Revalidation not configured, skipping")
	case errors.As(err, &statusErr):
		log.Error().Int("status", statusErr.Code).Str("body", statusErr.Body).Msg("Revalidation request rejected")
	default:
		log.Error().Err(err).Msg("Revalidation request failed")
	}
}
