package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tableboard/internal/tui"
)

// browseCmd opens the interactive terminal browser.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse a table in the terminal",
	Long: `Open an interactive terminal view of one table.

The table loads in the background; the view updates when it resolves.

Keys:
  ←/→        focus a column        s   sort the focused column
  ↑/↓        move the cursor       f   filter the focused column
  n/p        next/previous page    /   global search
  space      select row            a   select the whole page
  x / X      hide column/show all  r   reload
  esc        reset view            q   quit

Example:
  tableboard browse -c config.yaml -t stations`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
	addTableFlags(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// log output would corrupt the alternate screen
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tbl, err := configuredTable(cmd, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tbl.Start(ctx)
	return tui.Run(ctx, tbl)
}
