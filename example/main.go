// Command example runs a TableBoard over a mock water-flow API using the
// SDK directly.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/tableboard"
	"github.com/jpalmerr/tableboard/example/mock"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ln, err := net.Listen("tcp", "127.0.0.1:9999")
	if err != nil {
		logger.Error("failed to start mock server", "error", err)
		os.Exit(1)
	}
	go func() {
		_ = http.Serve(ln, mock.NewServer().Handler())
	}()
	api := "http://" + ln.Addr().String()

	tables, err := buildTables(api, logger)
	if err != nil {
		logger.Error("failed to create tables", "error", err)
		os.Exit(1)
	}

	board, err := tableboard.New(
		tableboard.WithTables(tables...),
		tableboard.WithTitle("Water Flow"),
		tableboard.WithRefreshInterval(30*time.Second),
		tableboard.WithPort(8080),
		tableboard.WithLogger(logger),
		tableboard.WithLoadCallback(func(snap tableboard.LoadSnapshot) {
			if snap.State == tableboard.LoadFailed {
				logger.Warn("load failed", "load_id", snap.LoadID, "error", snap.Error)
			}
		}),
	)
	if err != nil {
		logger.Error("failed to create tableboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   TableBoard Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Tables:                                             ║")
	fmt.Println("  ║   • flow: 30 days of readings, reloaded every 30s     ║")
	fmt.Println("  ║   • alarms: 2 zones merged via a grid, every 10s      ║")
	fmt.Println("  ║   • gateway: a source that always fails               ║")
	fmt.Println("  ║   • sites: static rows                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		logger.Error("tableboard error", "error", err)
		os.Exit(1)
	}
}

func buildTables(api string, logger *slog.Logger) ([]*tableboard.Table, error) {
	readings, err := tableboard.HTTPSource(api+"/readings",
		tableboard.WithTimeout(5*time.Second),
		tableboard.WithExtractor(tableboard.JSONPathRows("data")),
	)
	if err != nil {
		return nil, err
	}

	flowColumns := map[string]tableboard.ColumnConfig{
		"date": {Header: "Date", ClassName: "left"},
	}
	for _, site := range mock.Sites {
		flowColumns[site] = tableboard.ColumnConfig{Formatter: "number:1"}
	}

	features := tableboard.DefaultFeatures()
	features.GlobalSearch = true
	features.RowSelection = true

	flow, err := tableboard.NewTable("flow",
		tableboard.WithCaption("Daily water flow (m³)"),
		tableboard.WithSource(readings),
		tableboard.WithColumnConfig(flowColumns),
		tableboard.WithIDField("date"),
		tableboard.WithFeatures(features),
		tableboard.WithActionLabel("Export report"),
		tableboard.WithActionHandler(func() {
			logger.Info("report export requested")
		}),
		tableboard.WithHooks(tableboard.Hooks{
			OnView: func(id string) { logger.Info("view reading", "date", id) },
		}),
		tableboard.WithLoaderOptions(tableboard.WithStaleGuard()),
	)
	if err != nil {
		return nil, err
	}

	alarmSource, err := tableboard.GridSource("alarms",
		tableboard.WithURLTemplate(api+"/alarms/{{.zone}}"),
		tableboard.WithDimensions(map[string][]string{"zone": mock.Zones}),
	)
	if err != nil {
		return nil, err
	}
	alarms, err := tableboard.NewTable("alarms",
		tableboard.WithCaption("Alarms"),
		tableboard.WithSource(alarmSource),
		tableboard.WithInterval(10*time.Second),
		tableboard.WithNoDataMessage("No active alarms."),
		tableboard.WithColumnConfig(map[string]tableboard.ColumnConfig{
			"severity":     {Header: "Severity", Formatter: "upper"},
			"acknowledged": {Header: "Ack", Formatter: "bool:Yes/No"},
		}),
	)
	if err != nil {
		return nil, err
	}

	gateway, err := tableboard.NewTable("gateway",
		tableboard.WithCaption("Meter gateway"),
		tableboard.WithSource(tableboard.MustHTTPSource(api+"/broken")),
	)
	if err != nil {
		return nil, err
	}

	sites, err := tableboard.NewTable("sites",
		tableboard.WithCaption("Sites"),
		tableboard.WithRows(
			tableboard.MustRow("id", "water_station", "name", "Water station", "meters", 3),
			tableboard.MustRow("id", "supply_station", "name", "Supply station", "meters", 2),
			tableboard.MustRow("id", "helios_building", "name", "Helios building", "meters", 1),
		),
	)
	if err != nil {
		return nil, err
	}

	return []*tableboard.Table{flow, alarms, gateway, sites}, nil
}
