package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tableboard"
	"github.com/jpalmerr/tableboard/config"
)

// configuredTable loads the config named by --config and builds the table
// named by --table, or the first table when --table is empty.
func configuredTable(cmd *cobra.Command, logger *slog.Logger) (*tableboard.Table, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tables, err := config.BuildTables(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build tables: %w", err)
	}

	name, _ := cmd.Flags().GetString("table")
	if name == "" {
		return tables[0], nil
	}
	for _, t := range tables {
		if t.Name() == name {
			return t, nil
		}
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", tableboard.ErrTableNotFound, name, strings.Join(names, ", "))
}

func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	cmd.Flags().StringP("table", "t", "", "table name (defaults to the first table)")
	_ = cmd.MarkFlagRequired("config")
}
