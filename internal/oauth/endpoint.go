package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultHTTPTimeout bounds a single token endpoint round trip.
	DefaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a token response is read.
	maxResponseBytes = 1 << 20
)

// EndpointResponse is a fully read token endpoint response.
type EndpointResponse struct {
	StatusCode int
	Body       []byte
}

// Success reports whether the status code is 2xx.
func (r *EndpointResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TokenEndpointClient posts form-encoded requests to an OAuth token
// endpoint. Implementations must be safe for concurrent use and hold no
// per-request state.
type TokenEndpointClient interface {
	PostForm(ctx context.Context, endpoint string, form url.Values) (*EndpointResponse, error)
}

// HTTPEndpointClient is the net/http implementation of TokenEndpointClient.
type HTTPEndpointClient struct {
	httpClient *http.Client
}

// EndpointClientOption configures an HTTPEndpointClient.
type EndpointClientOption func(*HTTPEndpointClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) EndpointClientOption {
	return func(c *HTTPEndpointClient) {
		c.httpClient = httpClient
	}
}

// NewHTTPEndpointClient creates a token endpoint client.
func NewHTTPEndpointClient(opts ...EndpointClientOption) *HTTPEndpointClient {
	c := &HTTPEndpointClient{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PostForm sends form to endpoint and returns the response with its body
// read. Transport failures wrap ErrTransientNetwork; context cancellation is
// returned as the context error so it is never retried.
func (c *HTTPEndpointClient) PostForm(ctx context.Context, endpoint string, form url.Values) (*EndpointResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, "failed to read token response", err)
	}

	return &EndpointResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func transportError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrTransientNetwork, err)
}
