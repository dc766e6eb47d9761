package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBodySize is the largest response body a [Client] accepts.
const MaxBodySize = 1 << 20 // 1MB

// ErrBodyTooLarge is returned when a response body exceeds [MaxBodySize].
// A truncated JSON document cannot be decoded, so oversize bodies fail
// instead of being cut.
var ErrBodyTooLarge = errors.New("response body exceeds 1MB limit")

// connection pooling limits shared by every HTTP data source
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Request describes one data fetch.
type Request struct {
	// Method is the HTTP method. Empty defaults to GET.
	Method string

	URL     string
	Headers map[string]string

	// Timeout bounds the whole request including the body read.
	Timeout time.Duration
}

// Response holds the result of a [Client.Fetch].
type Response struct {
	// Body is the response body, at most [MaxBodySize] bytes.
	Body []byte

	// StatusCode is zero if the request failed before a response arrived.
	StatusCode int

	ContentType string
	Latency     time.Duration

	// Error is set when the request or body read failed. A non-2xx status
	// is not an error at this level.
	Error error
}

// Client is an HTTP client wrapper for fetching datasets.
//
// Timeouts are applied per request via the context rather than globally,
// so each source can use its own.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a [Client] with connection pooling limits:
//   - MaxIdleConns: 100 total idle connections
//   - MaxIdleConnsPerHost: 10 idle connections per host
//   - MaxConnsPerHost: 10 concurrent connections per host
//   - IdleConnTimeout: 60 seconds
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Fetch performs req and returns a structured [Response].
//
// Fetch always returns a Response; failures are reported in its Error
// field so callers can still see the latency and status of a failed call.
func (c *Client) Fetch(ctx context.Context, req Request) Response {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	out := Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	// read one byte past the limit to detect oversize bodies
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	out.Latency = time.Since(start)
	switch {
	case err != nil:
		out.Error = fmt.Errorf("failed to read response body: %w", err)
	case len(body) > MaxBodySize:
		out.Error = ErrBodyTooLarge
	default:
		out.Body = body
	}
	return out
}

// Close closes idle connections in the pool. The client remains usable.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
