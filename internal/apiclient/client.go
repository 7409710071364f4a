// Package apiclient is a small JSON-over-HTTP client for the account, email and queue backends.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error types for backend calls.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrServerFail = errors.New("server error")
)

// StatusError is returned for 4xx responses that have no sentinel.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPDoer abstracts HTTP client operations for dependency inversion.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends JSON requests to one backend base URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	sleepFunc  func(time.Duration)
}

// New creates a Client. An empty apiKey sends no x-api-key header; pair it with a
// signing transport instead.
func New(baseURL, apiKey string, httpClient HTTPDoer, maxRetries int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  100 * time.Millisecond,
		sleepFunc:  time.Sleep,
	}
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) error {
	return c.Do(ctx, http.MethodPut, path, body, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) error {
	return c.Do(ctx, http.MethodPost, path, body, nil)
}

// Do sends a request, retrying transport errors and 5xx responses with exponential
// backoff. POST is never retried since the backend may already have acted. A nil
// out discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	maxAttempts := c.maxRetries + 1
	if maxAttempts < 1 || !idempotent(method) {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 0 && c.sleepFunc != nil && c.baseDelay > 0 {
			c.sleepFunc(c.baseDelay * time.Duration(1<<(attempt-1)))
		}

		retry, err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// attempt performs a single round trip and reports whether a failure is retryable.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return false, ErrForbidden
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, ErrServerFail)
	case resp.StatusCode >= 400:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(text)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return false, nil
}
