// Standalone mock server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/tableboard serve -c example/config.yaml
//	go run ./cmd/tableboard browse -c example/config.yaml -t flow
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/tableboard/example/mock"
)

func main() {
	fmt.Println("Mock water-flow server starting on :9999")
	fmt.Println("  GET /readings       30 days of readings, drifting on every request")
	fmt.Println("  GET /alarms/{zone}  alarms for zone north or south")
	fmt.Println("  GET /broken         always 500")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := http.ListenAndServe(":9999", mock.NewServer().Handler()); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
