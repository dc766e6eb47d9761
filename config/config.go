// Package config provides YAML configuration parsing for TableBoard.
//
// This package enables running TableBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Water Flow
//	port: 8080
//	refresh_interval: 30s
//
//	tables:
//	  - name: stations
//	    caption: Gauging stations
//	    page_size: 5
//	    source:
//	      url: https://flow.example.com/stations
//	      extractor: path:data.items
//	    columns:
//	      flow_rate:
//	        header: Flow rate
//	        formatter: "suffix: m³/s"
//
//	  - name: regions
//	    source:
//	      url_template: "https://{{.region}}.flow.example.com/gauges"
//	      dimensions:
//	        region: [north, south]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/tableboard"
)

const (
	defaultPort  = 8080
	defaultTitle = "TableBoard"

	// minRefreshInterval guards sources against overly aggressive polling.
	minRefreshInterval = 1 * time.Second
	maxRefreshInterval = 24 * time.Hour
)

// Source types, derived from which source fields are set.
const (
	SourceStatic = "static"
	SourceFile   = "file"
	SourceHTTP   = "http"
	SourceGrid   = "grid"
)

// Config is the root configuration structure for TableBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "TableBoard".
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// RefreshInterval is the time between reloads of sourced tables.
	// Zero (the default) loads each table once at startup.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// MaxConcurrency bounds how many tables load at once. Defaults to 4.
	MaxConcurrency int `yaml:"max_concurrency"`

	Tables []TableConfig `yaml:"tables"`

	// baseDir resolves relative file source paths. Set by Load.
	baseDir string
}

// TableConfig defines one table.
type TableConfig struct {
	// Name identifies the table in the API and CLI. Required and unique.
	Name string `yaml:"name"`

	// Caption is the display title. Defaults to Name.
	Caption string `yaml:"caption"`

	Source SourceConfig `yaml:"source"`

	// Columns overrides inferred column descriptors by key.
	Columns map[string]tableboard.ColumnConfig `yaml:"columns"`

	Features FeaturesConfig `yaml:"features"`

	// PageSize is the initial page size. Defaults to 10.
	PageSize int `yaml:"page_size"`

	// IDField is the row field used as the row ID. Defaults to "id".
	IDField string `yaml:"id_field"`

	NoDataMessage string `yaml:"no_data_message"`
	ActionLabel   string `yaml:"action_label"`

	// Interval overrides refresh_interval for this table.
	Interval Duration `yaml:"interval"`

	// StaleGuard discards load results superseded by a newer load.
	StaleGuard bool `yaml:"stale_guard"`
}

// SourceConfig defines where a table's rows come from. Exactly one of
// Rows, Path, URL or URLTemplate must be set.
type SourceConfig struct {
	// Rows is an inline static dataset.
	Rows []tableboard.Row `yaml:"rows"`

	// Path is a .json, .yaml or .yml file, relative to the config file.
	Path string `yaml:"path"`

	// URL is a JSON endpoint. Supports ${VAR} and ${VAR:-default}.
	URL string `yaml:"url"`

	// URLTemplate is a Go template expanded once per dimension
	// combination, e.g. "https://{{.region}}.example.com/gauges".
	URLTemplate string `yaml:"url_template"`

	// Dimensions maps dimension names to their values (grid sources).
	Dimensions map[string][]string `yaml:"dimensions"`

	// Method is GET or POST. Defaults to GET.
	Method string `yaml:"method"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are sent with each request. Values support ${VAR}.
	Headers map[string]string `yaml:"headers"`

	Extractor ExtractorConfig `yaml:"extractor"`

	// MaxParallel bounds concurrent requests of a grid source.
	MaxParallel int `yaml:"max_parallel"`

	// Delay is added before every load to simulate latency.
	Delay Duration `yaml:"delay"`
}

// Type reports the kind of source configured, or "" if none is.
func (s SourceConfig) Type() string {
	switch {
	case s.Rows != nil:
		return SourceStatic
	case s.Path != "":
		return SourceFile
	case s.URL != "":
		return SourceHTTP
	case s.URLTemplate != "":
		return SourceGrid
	default:
		return ""
	}
}

func (s SourceConfig) setCount() int {
	n := 0
	for _, set := range []bool{s.Rows != nil, s.Path != "", s.URL != "", s.URLTemplate != ""} {
		if set {
			n++
		}
	}
	return n
}

// FeaturesConfig overrides the default feature flags. Unset fields keep
// [tableboard.DefaultFeatures].
type FeaturesConfig struct {
	Pagination   *bool `yaml:"pagination"`
	Sorting      *bool `yaml:"sorting"`
	Filtering    *bool `yaml:"filtering"`
	GlobalSearch *bool `yaml:"global_search"`
	RowSelection *bool `yaml:"row_selection"`
	DateFilter   *bool `yaml:"date_filter"`
}

// Resolve applies the overrides to the default features.
func (f FeaturesConfig) Resolve() tableboard.Features {
	out := tableboard.DefaultFeatures()
	for _, o := range []struct {
		set *bool
		dst *bool
	}{
		{f.Pagination, &out.Pagination},
		{f.Sorting, &out.Sorting},
		{f.Filtering, &out.Filtering},
		{f.GlobalSearch, &out.GlobalSearch},
		{f.RowSelection, &out.RowSelection},
		{f.DateFilter, &out.DateFilter},
	} {
		if o.set != nil {
			*o.dst = *o.set
		}
	}
	return out
}

// ExtractorConfig specifies where the row array sits in a JSON response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	extractor: default
//	extractor: root
//	extractor: path:data.items
//
// Structured object:
//
//	extractor:
//	  type: path
//	  path: data.items
type ExtractorConfig struct {
	// Type is the extractor type: "default", "root" or "path".
	Type string

	// Path is the dot-separated object path (for type: path).
	Path string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type string `yaml:"type"`
			Path string `yaml:"path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Type = raw.Type
		e.Path = raw.Path
		return nil
	}

	return fmt.Errorf("extractor must be a string or object, got %v", node.Kind)
}

// parseShorthand parses extractor shorthand syntax.
//
// Supported formats:
//   - "default" → array, then "data", then "results"
//   - "root" → the body is the array
//   - "path:a.b" → the array at a dot-separated path
func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if typ, value, ok := strings.Cut(s, ":"); ok {
		if typ != "path" {
			return fmt.Errorf("unknown extractor type %q", typ)
		}
		e.Type = typ
		e.Path = value
		return nil
	}

	switch s {
	case "default", "root":
		e.Type = s
	default:
		return fmt.Errorf("unknown extractor %q (expected 'default', 'root' or 'path:a.b')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return sub[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file. Relative file source
// paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL, URLTemplate, Path and
// header values. Defaults are applied for Title and Port.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePath makes a relative file source path relative to the config
// file.
func (c *Config) resolvePath(p string) string {
	if c.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}
	if err := validateInterval("refresh_interval", c.RefreshInterval); err != nil {
		return err
	}

	if len(c.Tables) == 0 {
		return errors.New("at least one table must be defined")
	}

	seen := make(map[string]int, len(c.Tables))
	for i := range c.Tables {
		tc := &c.Tables[i]

		if tc.Name == "" {
			return fmt.Errorf("tables[%d]: name is required", i)
		}
		if prev, dup := seen[tc.Name]; dup {
			return fmt.Errorf("tables[%d] (%s): duplicate name, first defined at tables[%d]", i, tc.Name, prev)
		}
		seen[tc.Name] = i

		ctx := fmt.Sprintf("tables[%d] (%s)", i, tc.Name)
		if err := tc.validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (tc *TableConfig) validate(ctx string) error {
	if tc.PageSize < 0 {
		return fmt.Errorf("%s: page_size cannot be negative, got %d", ctx, tc.PageSize)
	}
	if err := validateInterval(ctx+": interval", tc.Interval); err != nil {
		return err
	}
	if err := tableboard.ValidateColumnConfig(tc.Columns); err != nil {
		return fmt.Errorf("%s: %w", ctx, err)
	}
	return tc.Source.expandAndValidate(ctx + ": source")
}

func validateInterval(name string, d Duration) error {
	if d == 0 {
		return nil
	}
	if d.Duration() < minRefreshInterval {
		return fmt.Errorf("%s must be at least %s, got %s", name, minRefreshInterval, d.Duration())
	}
	if d.Duration() > maxRefreshInterval {
		return fmt.Errorf("%s must not exceed %s, got %s", name, maxRefreshInterval, d.Duration())
	}
	return nil
}

func (s *SourceConfig) expandAndValidate(ctx string) error {
	switch s.setCount() {
	case 0:
		return fmt.Errorf("%s: one of rows, path, url or url_template is required", ctx)
	case 1:
	default:
		return fmt.Errorf("%s: rows, path, url and url_template are mutually exclusive", ctx)
	}

	if s.Delay.Duration() < 0 {
		return fmt.Errorf("%s: delay cannot be negative, got %s", ctx, s.Delay.Duration())
	}

	switch s.Type() {
	case SourceStatic:
		return nil

	case SourceFile:
		expanded, err := expandEnvVars(s.Path)
		if err != nil {
			return fmt.Errorf("%s: path: %w", ctx, err)
		}
		s.Path = expanded
		switch strings.ToLower(filepath.Ext(s.Path)) {
		case ".json", ".yaml", ".yml":
		default:
			return fmt.Errorf("%s: path must end in .json, .yaml or .yml, got %q", ctx, s.Path)
		}
		return nil

	case SourceHTTP:
		expanded, err := expandEnvVars(s.URL)
		if err != nil {
			return fmt.Errorf("%s: url: %w", ctx, err)
		}
		s.URL = expanded

		parsedURL, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("%s: invalid url: %w", ctx, err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("%s: url scheme must be http or https, got %q", ctx, parsedURL.Scheme)
		}
		if len(s.Dimensions) > 0 {
			return fmt.Errorf("%s: dimensions require url_template", ctx)
		}

	case SourceGrid:
		expanded, err := expandEnvVars(s.URLTemplate)
		if err != nil {
			return fmt.Errorf("%s: url_template: %w", ctx, err)
		}
		s.URLTemplate = expanded

		// fail fast before the SDK tries to use an invalid template
		if _, err := template.New("").Parse(s.URLTemplate); err != nil {
			return fmt.Errorf("%s: invalid url_template: %w", ctx, err)
		}

		if len(s.Dimensions) == 0 {
			return fmt.Errorf("%s: at least one dimension is required", ctx)
		}
		for name, values := range s.Dimensions {
			if len(values) == 0 {
				return fmt.Errorf("%s: dimension %q has no values", ctx, name)
			}
			seen := make(map[string]struct{}, len(values))
			for _, v := range values {
				if _, dup := seen[v]; dup {
					return fmt.Errorf("%s: dimension %q has duplicate value %q", ctx, name, v)
				}
				seen[v] = struct{}{}
			}
		}
		if s.MaxParallel < 0 {
			return fmt.Errorf("%s: max_parallel cannot be negative, got %d", ctx, s.MaxParallel)
		}
	}

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s: headers[%s]: %w", ctx, k, err)
		}
		s.Headers[k] = expanded
	}

	if s.Method != "" && s.Method != "GET" && s.Method != "POST" {
		return fmt.Errorf("%s: method must be GET or POST", ctx)
	}

	if s.Timeout != 0 && s.Timeout.Duration() < time.Second {
		return fmt.Errorf("%s: timeout must be at least 1s if specified, got %s", ctx, s.Timeout.Duration())
	}

	return validateExtractor(s.Extractor, ctx)
}

// validateExtractor validates an extractor configuration.
func validateExtractor(e ExtractorConfig, ctx string) error {
	switch e.Type {
	case "", "default", "root":
		return nil
	case "path":
		if e.Path == "" {
			return fmt.Errorf("%s: extractor type 'path' requires a path", ctx)
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown extractor type %q", ctx, e.Type)
	}
}
