package tableboard

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultGridParallel = 4

// gridConfig holds configuration during grid source construction.
type gridConfig struct {
	urlTemplate string
	dimensions  map[string][]string
	headers     map[string]string
	timeout     time.Duration
	extractor   RowsExtractor
	method      string
	maxParallel int
}

// GridOption configures a grid source built with [GridSource].
type GridOption func(*gridConfig) error

// WithURLTemplate sets the URL template. The template uses Go's
// text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithURLTemplate("https://api.example.com/flow?env={{.env}}&station={{.station}}")
//
// Returns an error if the template string is empty.
func WithURLTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("URL template required")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key becomes a template variable and a leading column of every
// fetched row.
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		copied := make(map[string][]string, len(dims))
		for k, vals := range dims {
			if k == "" {
				return errors.New("dimension name cannot be empty")
			}
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
			copied[k] = append([]string(nil), vals...)
		}
		cfg.dimensions = copied
		return nil
	}
}

// WithGridHeaders adds HTTP headers to every request.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
func WithGridHeaders(keyValues ...string) GridOption {
	return func(cfg *gridConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithGridHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithGridTimeout sets the per-request timeout.
//
// Returns an error if the duration is negative. Zero keeps the default of
// 10 seconds.
func WithGridTimeout(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		if d > 0 {
			cfg.timeout = d
		}
		return nil
	}
}

// WithGridExtractor sets the [RowsExtractor] used for every response.
// If nil, [DefaultRowsExtractor] is used.
func WithGridExtractor(e RowsExtractor) GridOption {
	return func(cfg *gridConfig) error {
		if e == nil {
			e = DefaultRowsExtractor
		}
		cfg.extractor = e
		return nil
	}
}

// WithGridMethod sets the HTTP method. Supported methods are GET (default)
// and POST.
func WithGridMethod(method string) GridOption {
	return func(cfg *gridConfig) error {
		switch method {
		case http.MethodGet, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET or POST")
		}
	}
}

// WithMaxParallel bounds how many combinations are fetched at once.
// Defaults to 4. Returns an error if n is less than 1.
func WithMaxParallel(n int) GridOption {
	return func(cfg *gridConfig) error {
		if n < 1 {
			return errors.New("max parallel must be at least 1")
		}
		cfg.maxParallel = n
		return nil
	}
}
