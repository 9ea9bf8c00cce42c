// Package transport retrieves static text over HTTP.
//
// Request and response interceptors are plain middleware handed to New; the
// client holds no global state.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single retrieval.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Fetcher retrieves the text stored at path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// RoundTripFunc performs one HTTP exchange.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// Middleware wraps a round trip. It may inspect or alter the request before
// calling next and the response or error after.
type Middleware func(next RoundTripFunc) RoundTripFunc

// Client fetches documents relative to a base URL.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	middleware []Middleware
	roundTrip  RoundTripFunc
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMiddleware appends interceptors. The first one given sees the request
// first and the response last.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	for i := len(c.middleware) - 1; i >= 0; i-- {
		rt = c.middleware[i](rt)
	}
	c.roundTrip = rt

	return c, nil
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + path
	u.RawPath = ""
	return u.String()
}

// Fetch GETs path and returns the body. Transport failures and non-2xx
// responses are reported as *Error.
func (c *Client) Fetch(ctx context.Context, path string) (string, error) {
	target := c.URL(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &Error{Method: http.MethodGet, URL: target, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.5")

	resp, err := c.roundTrip(req)
	if err != nil {
		return "", &Error{Method: http.MethodGet, URL: target, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", &Error{Method: http.MethodGet, URL: target, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			Method:  http.MethodGet,
			URL:     target,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			Payload: decodePayload(resp.Header.Get("Content-Type"), body),
		}
	}

	return string(body), nil
}

// decodePayload reads a structured error body such as {"detail": "..."}.
func decodePayload(contentType string, body []byte) *Payload {
	if !strings.Contains(contentType, "json") || len(body) == 0 {
		return nil
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil
	}
	if p.Detail == "" && p.Message == "" {
		return nil
	}
	return &p
}
