package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/vehicletag/registration-node/internal/log"
)

// DefaultHTTPClientWithRetry retries transient failures with exponential
// backoff before surfacing an error.
var DefaultHTTPClientWithRetry = NewClient(http.Client{
	Transport: &retryablehttp.RoundTripper{
		Client: retryablehttp.NewClient(),
	},
})

// Client wraps an http.Client with JSON defaults and request-id propagation
// for calls to external services.
type Client struct {
	base http.Client
}

// NewClient returns a Client wrapping c.
func NewClient(c http.Client) *Client {
	return &Client{base: c}
}

// Post sends body to url as JSON with the given extra headers and returns the
// response body. Non-200 responses become errors carrying the response text.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	setDefaultHeaders(ctx, req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(ctx, req)
}

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	setDefaultHeaders(ctx, req)

	return c.do(ctx, req)
}

// setDefaultHeaders marks the request as JSON and forwards the chi request id
// so calls can be correlated across services.
func setDefaultHeaders(ctx context.Context, r *http.Request) {
	r.Header.Add("Content-Type", "application/json")
	r.Header.Add(middleware.RequestIDHeader, middleware.GetReqID(ctx))
}

func (c *Client) do(ctx context.Context, r *http.Request) ([]byte, error) {
	resp, err := c.base.Do(r)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error(ctx, "closing response body", "err", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("http request failed with status %v, error: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
