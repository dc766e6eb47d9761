// Package main is the entry point for the tableboard CLI.
//
// TableBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	tableboard serve -c config.yaml                 # Start the dashboard
//	tableboard validate -c config.yaml              # Validate configuration
//	tableboard render -c config.yaml -t stations    # Print one page of a table
//	tableboard browse -c config.yaml -t stations    # Browse a table in the terminal
//	tableboard version                              # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "tableboard",
	Short: "Browse tabular data from files and JSON APIs",
	Long: `TableBoard loads tabular data from inline rows, JSON or YAML files,
and JSON HTTP APIs, infers columns from the first row, and lets you sort,
filter, search, page and select rows in a web dashboard or the terminal.

Quick start:
  1. Create a config file (tableboard.yaml)
  2. Run: tableboard serve -c tableboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  title: Water Flow
  tables:
    - name: stations
      source:
        url: https://flow.example.com/stations
        extractor: path:data.items
      columns:
        flow_rate: {header: Flow rate, formatter: "suffix: m³/s"}`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this tableboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tableboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
