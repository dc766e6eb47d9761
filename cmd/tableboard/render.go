package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tableboard"
	"github.com/jpalmerr/tableboard/internal/tui"
)

const defaultLoadTimeout = 30 * time.Second

// renderCmd prints one table once and exits.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Load a table and print it",
	Long: `Load one table, apply sorting, filters and paging, and print it.

The text format prints the current page as a bordered table. The csv and
parquet formats export every row that passes the filters, in sorted order,
ignoring paging.

Sort by a column with --sort key, or --sort key:desc for descending.
Filter columns with --filter key=text (repeatable).

Example:
  tableboard render -c config.yaml -t stations --sort flow_rate:desc --page 2
  tableboard render -c config.yaml -t stations --filter river=tyne --format csv
  tableboard render -c config.yaml -t stations --format parquet -o stations.parquet`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	addTableFlags(renderCmd)
	renderCmd.Flags().String("sort", "", "sort column, optionally suffixed with :asc or :desc")
	renderCmd.Flags().StringArray("filter", nil, "column filter as key=text (repeatable)")
	renderCmd.Flags().String("search", "", "global search text")
	renderCmd.Flags().Int("page", 1, "page to print")
	renderCmd.Flags().Int("page-size", 0, "rows per page (defaults to the configured page size)")
	renderCmd.Flags().StringP("format", "f", "text", "output format: text, csv or parquet")
	renderCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	renderCmd.Flags().Duration("timeout", defaultLoadTimeout, "how long to wait for the table to load")
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := newLogger(slog.LevelWarn)

	tbl, err := configuredTable(cmd, logger)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if loader := tbl.Loader(); loader != nil {
		snap, err := loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("table %q did not load: %w", tbl.Name(), err)
		}
		if snap.State == tableboard.LoadFailed {
			return fmt.Errorf("table %q failed to load: %s", tbl.Name(), snap.Error)
		}
	}

	if err := applyViewFlags(cmd, tbl); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	format, _ := cmd.Flags().GetString("format")
	return writeTable(out, tbl, format)
}

// applyViewFlags applies --page-size, --sort, --filter, --search and
// --page in that order, since sorting keeps the page but filtering resets
// it.
func applyViewFlags(cmd *cobra.Command, tbl *tableboard.Table) error {
	if size, _ := cmd.Flags().GetInt("page-size"); size > 0 {
		tbl.SetPageSize(size)
	}

	if spec, _ := cmd.Flags().GetString("sort"); spec != "" {
		key, dir, _ := strings.Cut(spec, ":")
		switch dir {
		case "", "asc":
			tbl.SetSort(key)
		case "desc":
			tbl.SetSort(key)
			tbl.SetSort(key)
		default:
			return fmt.Errorf("invalid sort direction %q (expected asc or desc)", dir)
		}
	}

	filters, _ := cmd.Flags().GetStringArray("filter")
	for _, f := range filters {
		key, text, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid filter %q (expected key=text)", f)
		}
		tbl.SetFilterText(key, text)
	}

	if search, _ := cmd.Flags().GetString("search"); search != "" {
		tbl.SetGlobalFilterText(search)
	}

	if page, _ := cmd.Flags().GetInt("page"); page > 1 {
		tbl.SetPage(page)
	}
	return nil
}

func writeTable(w io.Writer, tbl *tableboard.Table, format string) error {
	if format == "" || format == "text" {
		_, err := fmt.Fprintln(w, tui.Render(tbl.View()))
		return err
	}
	return tbl.Export(w, format)
}
