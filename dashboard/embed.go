// Package dashboard provides the embedded web UI assets for TableBoard.
//
// The dashboard HTML, CSS and JavaScript are embedded at compile time so
// the binary deploys without external files. The server package serves
// them at "/".
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
