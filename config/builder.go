package config

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jpalmerr/tableboard"
)

// BuildTables converts parsed configuration into SDK tables, in
// configuration order.
func BuildTables(cfg *Config, logger *slog.Logger) ([]*tableboard.Table, error) {
	tables := make([]*tableboard.Table, 0, len(cfg.Tables))
	for _, tc := range cfg.Tables {
		t, err := buildTable(cfg, tc, logger)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// BuildBoard converts parsed configuration into a [tableboard.Board].
// extra options are applied after the configured ones.
func BuildBoard(cfg *Config, logger *slog.Logger, extra ...tableboard.Option) (*tableboard.Board, error) {
	tables, err := BuildTables(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []tableboard.Option{
		tableboard.WithTables(tables...),
		tableboard.WithTitle(cfg.Title),
		tableboard.WithPort(cfg.Port),
		tableboard.WithRefreshInterval(cfg.RefreshInterval.Duration()),
	}
	if cfg.MaxConcurrency > 0 {
		opts = append(opts, tableboard.WithMaxConcurrency(cfg.MaxConcurrency))
	}
	if logger != nil {
		opts = append(opts, tableboard.WithLogger(logger))
	}
	return tableboard.New(append(opts, extra...)...)
}

// buildTable converts a single TableConfig to an SDK Table.
func buildTable(cfg *Config, tc TableConfig, logger *slog.Logger) (*tableboard.Table, error) {
	opts := []tableboard.TableOption{
		tableboard.WithFeatures(tc.Features.Resolve()),
	}

	if tc.Source.Type() == SourceStatic {
		opts = append(opts, tableboard.WithRows(tc.Source.Rows...))
	} else {
		src, err := buildSource(cfg, tc)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", tc.Name, err)
		}
		opts = append(opts, tableboard.WithSource(src))

		var loaderOpts []tableboard.LoaderOption
		if tc.StaleGuard {
			loaderOpts = append(loaderOpts, tableboard.WithStaleGuard())
		}
		if logger != nil {
			loaderOpts = append(loaderOpts, tableboard.WithLoaderLogger(logger))
		}
		if len(loaderOpts) > 0 {
			opts = append(opts, tableboard.WithLoaderOptions(loaderOpts...))
		}
	}

	if tc.Caption != "" {
		opts = append(opts, tableboard.WithCaption(tc.Caption))
	}
	if len(tc.Columns) > 0 {
		opts = append(opts, tableboard.WithColumnConfig(tc.Columns))
	}
	if tc.PageSize > 0 {
		opts = append(opts, tableboard.WithPageSize(tc.PageSize))
	}
	if tc.IDField != "" {
		opts = append(opts, tableboard.WithIDField(tc.IDField))
	}
	if tc.NoDataMessage != "" {
		opts = append(opts, tableboard.WithNoDataMessage(tc.NoDataMessage))
	}
	if tc.ActionLabel != "" {
		opts = append(opts, tableboard.WithActionLabel(tc.ActionLabel))
	}
	if tc.Interval != 0 {
		opts = append(opts, tableboard.WithInterval(tc.Interval.Duration()))
	}

	return tableboard.NewTable(tc.Name, opts...)
}

// buildSource converts a non-static SourceConfig to a load func.
func buildSource(cfg *Config, tc TableConfig) (tableboard.LoadFunc, error) {
	sc := tc.Source

	var (
		src tableboard.LoadFunc
		err error
	)
	switch sc.Type() {
	case SourceFile:
		src = tableboard.FileSource(cfg.resolvePath(sc.Path))

	case SourceHTTP:
		var opts []tableboard.SourceOption
		if sc.Method != "" {
			opts = append(opts, tableboard.WithMethod(sc.Method))
		}
		if sc.Timeout != 0 {
			opts = append(opts, tableboard.WithTimeout(sc.Timeout.Duration()))
		}
		if len(sc.Headers) > 0 {
			opts = append(opts, tableboard.WithHeaders(mapToKeyValuePairs(sc.Headers)...))
		}
		if extractor := buildExtractor(sc.Extractor); extractor != nil {
			opts = append(opts, tableboard.WithExtractor(extractor))
		}
		src, err = tableboard.HTTPSource(sc.URL, opts...)

	case SourceGrid:
		opts := []tableboard.GridOption{
			tableboard.WithURLTemplate(sc.URLTemplate),
			tableboard.WithDimensions(sc.Dimensions),
		}
		if sc.Method != "" {
			opts = append(opts, tableboard.WithGridMethod(sc.Method))
		}
		if sc.Timeout != 0 {
			opts = append(opts, tableboard.WithGridTimeout(sc.Timeout.Duration()))
		}
		if len(sc.Headers) > 0 {
			opts = append(opts, tableboard.WithGridHeaders(mapToKeyValuePairs(sc.Headers)...))
		}
		if extractor := buildExtractor(sc.Extractor); extractor != nil {
			opts = append(opts, tableboard.WithGridExtractor(extractor))
		}
		if sc.MaxParallel > 0 {
			opts = append(opts, tableboard.WithMaxParallel(sc.MaxParallel))
		}
		src, err = tableboard.GridSource(tc.Name, opts...)

	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type())
	}
	if err != nil {
		return nil, err
	}

	if sc.Delay > 0 {
		src = tableboard.DelayedSource(sc.Delay.Duration(), src)
	}
	return src, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildExtractor converts ExtractorConfig to a RowsExtractor.
// Returns nil for default/empty extractors (the SDK uses DefaultRowsExtractor).
func buildExtractor(ec ExtractorConfig) tableboard.RowsExtractor {
	switch ec.Type {
	case "root":
		return tableboard.RootArrayRows
	case "path":
		return tableboard.JSONPathRows(ec.Path)
	default:
		return nil
	}
}
