package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelfeed/internal/config"
	"reelfeed/internal/services"
)

const userAgent = "reelfeed/0.1.0"

// HTTPDoer describes the HTTP client used by the backend client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token attached to authenticated requests.
// An empty token means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

// Client provides access to the reelfeed backend REST API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	tokens     TokenSource
	refresh    func(context.Context) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource attaches a bearer-token supplier.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithRefresh installs a callback invoked once when a request comes back 401,
// after which the request is retried a single time with a fresh token.
func WithRefresh(refresh func(context.Context) error) Option {
	return func(c *Client) {
		c.refresh = refresh
	}
}

// New creates a backend client rooted at the provided base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url required")
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates a backend client using application configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	timeout := time.Duration(cfg.API.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := []Option{WithHTTPClient(&http.Client{Timeout: timeout})}
	return New(cfg.API.BaseURL, append(base, opts...)...)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	retried := false
	for {
		endpoint := c.baseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if rid, ok := services.RequestIDFromContext(ctx); ok {
			req.Header.Set("X-Request-ID", rid)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request %s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && !retried && c.refresh != nil {
			drain(resp)
			if err := c.refresh(ctx); err != nil {
				return fmt.Errorf("refresh session: %w", err)
			}
			retried = true
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := decodeError(resp)
			drain(resp)
			return apiErr
		}

		if out == nil {
			drain(resp)
			return nil
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		drain(resp)
		if err != nil {
			return fmt.Errorf("decode response for %s %s: %w", method, path, err)
		}
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
