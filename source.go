package tableboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/tableboard/internal/poller"
)

const defaultSourceTimeout = 10 * time.Second

// sharedClient is reused by every HTTP source for connection pooling.
var sharedClient = poller.NewClient()

// StaticSource returns a [LoadFunc] that always yields rows.
func StaticSource(rows ...Row) LoadFunc {
	rows = copyRows(rows)
	return func(ctx context.Context) (Dataset, error) {
		return Dataset{Rows: copyRows(rows)}, nil
	}
}

// DelayedSource wraps fn so that each load waits d first, simulating
// network latency. The wait ends early if ctx is cancelled.
func DelayedSource(d time.Duration, fn LoadFunc) LoadFunc {
	return func(ctx context.Context) (Dataset, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Dataset{}, ctx.Err()
		}
		return fn(ctx)
	}
}

// FileSource returns a [LoadFunc] that reads rows from a file on every
// load.
//
// Files ending in .json are parsed with [DefaultRowsExtractor]. Files
// ending in .yaml or .yml may hold a sequence of mappings, or a mapping
// with a "data" or "results" sequence. Key order is preserved in both
// formats. Other extensions fail with [ErrUnsupportedFormat].
func FileSource(path string) LoadFunc {
	return func(ctx context.Context) (Dataset, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return Dataset{}, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var rows []Row
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			rows, err = DefaultRowsExtractor(data)
		case ".yaml", ".yml":
			rows, err = decodeYAMLRows(data)
		default:
			return Dataset{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("%s: %w", path, err)
		}
		return Dataset{Rows: rows}, nil
	}
}

// decodeYAMLRows decodes a YAML document of rows.
func decodeYAMLRows(data []byte) ([]Row, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return []Row{}, nil
	}

	node := doc.Content[0]
	if node.Kind == yaml.MappingNode {
		var found *yaml.Node
		for _, key := range []string{"data", "results"} {
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == key && node.Content[i+1].Kind == yaml.SequenceNode {
					found = node.Content[i+1]
					break
				}
			}
			if found != nil {
				break
			}
		}
		if found == nil {
			return []Row{}, nil
		}
		node = found
	}

	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: YAML document is not a sequence (line %d)", ErrNoRows, node.Line)
	}

	rows := []Row{}
	if err := node.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// sourceConfig holds mutable state during HTTP source construction.
type sourceConfig struct {
	headers   map[string]string
	timeout   time.Duration
	method    string
	extractor RowsExtractor
}

// SourceOption configures an HTTP source built with [HTTPSource].
type SourceOption func(*sourceConfig) error

// WithHeaders adds HTTP headers sent with every request.
//
// Accepts variadic key-value pairs. Returns an error if an odd number of
// arguments is provided.
//
// Example:
//
//	src, err := tableboard.HTTPSource(url,
//	    tableboard.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout. Defaults to 10 seconds.
//
// Returns an error if d is zero or negative.
func WithTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithMethod sets the HTTP method. Only GET and POST are allowed.
func WithMethod(method string) SourceOption {
	return func(cfg *sourceConfig) error {
		switch method {
		case http.MethodGet, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return fmt.Errorf("method must be GET or POST, got %q", method)
		}
	}
}

// WithExtractor sets how rows are read from the response body. Defaults
// to [DefaultRowsExtractor].
func WithExtractor(extractor RowsExtractor) SourceOption {
	return func(cfg *sourceConfig) error {
		if extractor == nil {
			return errors.New("extractor cannot be nil")
		}
		cfg.extractor = extractor
		return nil
	}
}

// HTTPSource returns a [LoadFunc] that fetches rows from a JSON endpoint.
//
// The response body is limited to 1MB. Non-2xx responses fail the load
// with the status code in the message.
//
// Returns an error if the URL is invalid or an option is invalid.
//
// Example:
//
//	src, err := tableboard.HTTPSource("https://api.example.com/water-flow",
//	    tableboard.WithTimeout(5*time.Second),
//	    tableboard.WithExtractor(tableboard.JSONPathRows("data.items")),
//	)
func HTTPSource(rawURL string, opts ...SourceOption) (LoadFunc, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New("URL must have a scheme (http:// or https://)")
	}

	cfg := &sourceConfig{
		headers:   make(map[string]string),
		timeout:   defaultSourceTimeout,
		method:    http.MethodGet,
		extractor: DefaultRowsExtractor,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return func(ctx context.Context) (Dataset, error) {
		resp := sharedClient.Fetch(ctx, poller.Request{
			Method:  cfg.method,
			URL:     rawURL,
			Headers: cfg.headers,
			Timeout: cfg.timeout,
		})
		if resp.Error != nil {
			return Dataset{}, resp.Error
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Dataset{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
		}

		rows, err := cfg.extractor(resp.Body)
		if err != nil {
			return Dataset{}, err
		}
		return Dataset{Rows: rows}, nil
	}, nil
}

// MustHTTPSource is like [HTTPSource] but panics on error.
func MustHTTPSource(rawURL string, opts ...SourceOption) LoadFunc {
	src, err := HTTPSource(rawURL, opts...)
	if err != nil {
		panic("tableboard: " + err.Error())
	}
	return src
}
