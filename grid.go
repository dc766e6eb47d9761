package tableboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/tableboard/internal/poller"
)

// gridRequest is one expanded combination of a grid source.
type gridRequest struct {
	name  string
	url   string
	combo map[string]string
}

// GridSource returns a [LoadFunc] that fetches one HTTP endpoint per
// combination of dimension values and merges their rows into one dataset.
//
// The URL template uses Go's text/template syntax. Dimension values are
// URL-encoded before interpolation. Missing template keys cause an error
// (fail-fast).
//
// Combinations are fetched concurrently, at most [WithMaxParallel] at once.
// Rows are merged in combination order (sorted dimension keys, values in
// the order given). Each row gets the combination's dimension values
// prepended as leading fields, so a "region" dimension adds a "region"
// column. A dimension value replaces a field of the same name in the
// fetched row. Any failed request fails the whole load.
//
// Example:
//
//	src, err := tableboard.GridSource("Water Flow",
//	    tableboard.WithURLTemplate("https://api.example.com/flow?station={{.station}}"),
//	    tableboard.WithDimensions(map[string][]string{
//	        "station": {"north", "south"},
//	    }),
//	)
func GridSource(baseName string, opts ...GridOption) (LoadFunc, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, errors.New("base name cannot be empty")
	}

	cfg := &gridConfig{
		headers:     make(map[string]string),
		method:      http.MethodGet,
		timeout:     defaultSourceTimeout,
		extractor:   DefaultRowsExtractor,
		maxParallel: defaultGridParallel,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	// missingkey=error for fail-fast behaviour
	tmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	requests := make([]gridRequest, 0, len(combinations))
	for _, combo := range combinations {
		urlStr, err := executeTemplate(tmpl, urlEncodeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}
		parsed, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q: %w", urlStr, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return nil, fmt.Errorf("URL %q must have a scheme (http:// or https://)", urlStr)
		}
		requests = append(requests, gridRequest{
			name:  formatCombinationName(baseName, combo),
			url:   urlStr,
			combo: combo,
		})
	}
	dimKeys := sortedKeys(cfg.dimensions)

	return func(ctx context.Context) (Dataset, error) {
		results := make([][]Row, len(requests))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.maxParallel)
		for i, req := range requests {
			g.Go(func() error {
				rows, err := fetchGridRows(gctx, cfg, req)
				if err != nil {
					return fmt.Errorf("%s: %w", req.name, err)
				}
				results[i] = withDimensions(rows, dimKeys, req.combo)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Dataset{}, err
		}

		var merged []Row
		for _, rows := range results {
			merged = append(merged, rows...)
		}
		if merged == nil {
			merged = []Row{}
		}
		return Dataset{Rows: merged}, nil
	}, nil
}

// MustGridSource is like [GridSource] but panics on error.
func MustGridSource(baseName string, opts ...GridOption) LoadFunc {
	src, err := GridSource(baseName, opts...)
	if err != nil {
		panic("tableboard: " + err.Error())
	}
	return src
}

func fetchGridRows(ctx context.Context, cfg *gridConfig, req gridRequest) ([]Row, error) {
	resp := sharedClient.Fetch(ctx, poller.Request{
		Method:  cfg.method,
		URL:     req.url,
		Headers: cfg.headers,
		Timeout: cfg.timeout,
	})
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.url)
	}
	return cfg.extractor(resp.Body)
}

// withDimensions prepends the combination's values to every row.
func withDimensions(rows []Row, keys []string, combo map[string]string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		nr := Row{values: make(map[string]any, len(keys)+r.Len())}
		for _, k := range keys {
			nr.set(k, combo[k])
		}
		for _, k := range r.keys {
			if _, isDim := combo[k]; isDim {
				continue
			}
			nr.set(k, r.values[k])
		}
		out[i] = nr
	}
	return out
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := sortedKeys(dims)
	total := 1
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
		total *= len(dims[k])
	}

	result := make([]map[string]string, 0, total)
	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// rightmost index moves fastest
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// urlEncodeMap returns a new map with all values URL-encoded.
func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatCombinationName creates a name in the format "Base (v1/v2)", values
// ordered by sorted keys.
func formatCombinationName(baseName string, combo map[string]string) string {
	keys := sortedKeys(combo)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return fmt.Sprintf("%s (%s)", baseName, strings.Join(parts, "/"))
}
