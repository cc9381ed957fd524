// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type Client struct {
	httpClient *http.Client
	retry      RetryConfig
}

func NewClientWithRetry(timeout time.Duration, retry RetryConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// DoWithRetry rebuilds and sends the request until it gets a response that
// is neither a transport error nor a 429/5xx, backing off exponentially.
// The caller owns the returned body.
func (c *Client) DoWithRetry(ctx context.Context, build func(context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if attempt == c.retry.MaxRetries {
			break
		}

		delay := c.retry.BaseDelay * time.Duration(1<<attempt)
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("request cancelled after %d attempts: %w", attempt+1, ctx.Err())
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
