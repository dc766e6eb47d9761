package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tableboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a TableBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates
all fields and builds every table. No data is loaded.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  tableboard validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := config.BuildTables(cfg, nil); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	counts := map[string]int{}
	for _, tc := range cfg.Tables {
		counts[tc.Source.Type()]++
	}

	refresh := "initial load only"
	if cfg.RefreshInterval != 0 {
		refresh = cfg.RefreshInterval.Duration().String()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Title:            %s\n", cfg.Title)
	fmt.Fprintf(out, "  Port:             %d\n", cfg.Port)
	fmt.Fprintf(out, "  Refresh interval: %s\n", refresh)
	fmt.Fprintf(out, "  Tables:           %d (%d static, %d file, %d http, %d grid)\n",
		len(cfg.Tables),
		counts[config.SourceStatic],
		counts[config.SourceFile],
		counts[config.SourceHTTP],
		counts[config.SourceGrid],
	)
	return nil
}
