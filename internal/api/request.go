package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

// APIError represents an HTTP error status from a remote service.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Service, e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Request describes one HTTP call.
type Request struct {
	Method string
	Path   string
	Query  string            // Already encoded, sent verbatim
	Header map[string]string // Merged over the client's static headers
	Body   any               // JSON encoded when non-nil
}

// RequestFunc builds a request. It is called once per attempt.
type RequestFunc func() (Request, error)

// Static returns a RequestFunc that always yields req.
func Static(req Request) RequestFunc {
	return func() (Request, error) { return req, nil }
}

// doRequest performs a single HTTP request.
func (c *Client) doRequest(ctx context.Context, req Request) ([]byte, error) {
	fullURL := c.baseURL + req.Path
	if req.Query != "" {
		fullURL += "?" + req.Query
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeaders(c.headers).
		SetHeaders(req.Header)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, fullURL)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return nil, &APIError{
			Service:    c.service,
			StatusCode: resp.StatusCode(),
			Message:    http.StatusText(resp.StatusCode()),
			Body:       resp.Body(),
		}
	}

	return resp.Body(), nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, build RequestFunc) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff
			if backoff > 0 {
				jitter = backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			}
			c.logger.Debug("retrying request",
				"service", c.service,
				"attempt", attempt,
				"backoff", jitter,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		c.logger.Debug("sending request",
			"service", c.service,
			"method", req.Method,
			"path", req.Path,
		)

		body, err := c.doRequest(ctx, req)
		if err == nil {
			return body, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Do performs the request with retries and decodes the JSON response into
// result. A nil result discards the body.
func (c *Client) Do(ctx context.Context, build RequestFunc, result any) error {
	body, err := c.doWithRetry(ctx, build)
	if err != nil {
		return err
	}

	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// Get performs an unsigned GET request.
func (c *Client) Get(ctx context.Context, path, query string, result any) error {
	return c.Do(ctx, Static(Request{Method: http.MethodGet, Path: path, Query: query}), result)
}

// Send performs a request with a JSON body.
func (c *Client) Send(ctx context.Context, method, path string, body, result any) error {
	return c.Do(ctx, Static(Request{Method: method, Path: path, Body: body}), result)
}
