package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/manav03panchal/clockset/internal/config"
)

// userAgent identifies webhook requests.
const userAgent = "clockset/1.0"

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 512

// HTTPClient posts webhook payloads with retry logic.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
}

// NewHTTPClient creates a client from the HTTP section of the runtime config.
func NewHTTPClient(cfg config.HTTPConfig) *HTTPClient {
	return &HTTPClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelays,
	}
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

// Send posts body to url. Rate limits, server errors and transport failures
// are retried; any other non-2xx status is returned at once.
func (c *HTTPClient) Send(ctx context.Context, url string, contentType string, body []byte) *SendResult {
	result := &SendResult{}
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if attempt > 0 && attempt < len(c.retryDelay) && c.retryDelay[attempt] > 0 {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				result.Duration = time.Since(start)
				return result
			case <-time.After(c.retryDelay[attempt]):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		result.StatusCode = resp.StatusCode

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Error = nil
			result.Duration = time.Since(start)
			return result
		case resp.StatusCode == http.StatusTooManyRequests:
			result.Error = fmt.Errorf("rate limited (HTTP 429)")
		case resp.StatusCode >= 500:
			result.Error = fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, string(bodyBytes))
		default:
			result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(bodyBytes))
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Duration = time.Since(start)
	if result.Error == nil {
		result.Error = fmt.Errorf("max retries exceeded")
	}
	return result
}

// SendWithTimeout sends a request with a specific timeout.
func (c *HTTPClient) SendWithTimeout(url string, contentType string, body []byte, timeout time.Duration) *SendResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Send(ctx, url, contentType, body)
}
