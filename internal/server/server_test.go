package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/tableboard/internal/export"
	"github.com/jpalmerr/tableboard/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTables implements Tables with a single table named "stations".
type fakeTables struct {
	mu        sync.Mutex
	actions   []Action
	refreshes int
}

type fakeView struct {
	Name string `json:"name"`
	Page int    `json:"page"`
}

func (f *fakeTables) List() []Summary {
	return []Summary{{Name: "stations", Caption: "Stations", State: "loaded", Rows: 2}}
}

func (f *fakeTables) View(name string) (any, error) {
	if name != "stations" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return fakeView{Name: name, Page: 1}, nil
}

func (f *fakeTables) Apply(name string, a Action) (any, error) {
	if name != "stations" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if a.Type != "page" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, a.Type)
	}
	f.mu.Lock()
	f.actions = append(f.actions, a)
	f.mu.Unlock()
	return fakeView{Name: name, Page: a.Page}, nil
}

func (f *fakeTables) Refresh(name string) error {
	if name != "stations" {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
	return nil
}

func (f *fakeTables) Export(name string) (export.Data, error) {
	if name != "stations" {
		return export.Data{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return export.Data{
		Name:    name,
		Columns: []export.Column{{Key: "name", Header: "Station", Kind: export.KindString}, {Key: "flow", Header: "Flow", Kind: export.KindNumber}},
		Values:  [][]any{{"North", int64(12)}, {"South", int64(7)}},
		Text:    [][]string{{"North", "12 m³/s"}, {"South", "7 m³/s"}},
	}, nil
}

// mockFS implements fs.ReadFileFS for testing dashboard rendering.
type mockFS struct {
	content string
}

func (m *mockFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if name == "assets/index.html" {
		return []byte(m.content), nil
	}
	return nil, fs.ErrNotExist
}

func newTestServer(assets fs.FS, title string) (*Server, *fakeTables, *store.MemoryStore) {
	ft := &fakeTables{}
	ms := store.NewMemoryStore()
	return NewServer(ft, ms, 0, assets, title, testLogger()), ft, ms
}

func serve(srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleList(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got []Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Name != "stations" {
		t.Errorf("got %+v, want one summary for stations", got)
	}
}

func TestHandleView(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables/stations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var v fakeView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v.Name != "stations" {
		t.Errorf("Name = %q, want stations", v.Name)
	}
}

func TestHandleView_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "table not found") {
		t.Errorf("body = %q, want error message", rec.Body.String())
	}
}

func TestHandleAction(t *testing.T) {
	srv, ft, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodPost, "/api/tables/stations/actions",
		strings.NewReader(`{"type":"page","page":3}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var v fakeView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v.Page != 3 {
		t.Errorf("Page = %d, want 3", v.Page)
	}
	if len(ft.actions) != 1 || ft.actions[0].Page != 3 {
		t.Errorf("actions = %+v, want one page action", ft.actions)
	}
}

func TestHandleAction_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"malformed JSON", "/api/tables/stations/actions", `{"type":`, http.StatusBadRequest},
		{"unknown field", "/api/tables/stations/actions", `{"type":"page","bogus":1}`, http.StatusBadRequest},
		{"unsupported action", "/api/tables/stations/actions", `{"type":"explode"}`, http.StatusBadRequest},
		{"unknown table", "/api/tables/missing/actions", `{"type":"page","page":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newTestServer(nil, "")
			rec := serve(srv, http.MethodPost, tt.target, strings.NewReader(tt.body))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleAction_MethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables/stations/actions", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleRefresh(t *testing.T) {
	srv, ft, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodPost, "/api/tables/stations/refresh", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if ft.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", ft.refreshes)
	}

	rec = serve(srv, http.MethodPost, "/api/tables/missing/refresh", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleExport_CSV(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables/stations/export?format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `"stations.csv"`) {
		t.Errorf("Content-Disposition = %q, want stations.csv filename", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[1][1] != "12 m³/s" {
		t.Errorf("records[1][1] = %q, want formatted text", records[1][1])
	}
}

func TestHandleExport_Parquet(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables/stations/export?format=parquet", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// parquet files start and end with the PAR1 magic
	body := rec.Body.Bytes()
	if !bytes.HasPrefix(body, []byte("PAR1")) || !bytes.HasSuffix(body, []byte("PAR1")) {
		t.Errorf("body is not a parquet file (%d bytes)", len(body))
	}
}

func TestHandleExport_BadFormat(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/api/tables/stations/export?format=xlsx", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSSE_InitialEvents(t *testing.T) {
	srv, _, ms := newTestServer(nil, "")
	ms.Update(store.Event{Table: "stations", State: "loaded", Generation: 1})
	ms.Update(store.Event{Table: "alarms", State: "failed", Generation: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	events := parseSSEEvents(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Table != "alarms" || events[1].Table != "stations" {
		t.Errorf("events = %+v, want alarms then stations", events)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	srv, _, ms := newTestServer(nil, "")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	ms.Update(store.Event{Table: "water-flow", State: "loading", Generation: 1})
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	if !strings.Contains(rec.Body.String(), "water-flow") {
		t.Errorf("response should contain streamed event, got: %s", rec.Body.String())
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

// nonFlushWriter is a ResponseWriter without http.Flusher.
type nonFlushWriter struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func (n *nonFlushWriter) Header() http.Header {
	if n.header == nil {
		n.header = make(http.Header)
	}
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) { return n.body.Write(b) }

func (n *nonFlushWriter) WriteHeader(statusCode int) { n.code = statusCode }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	w := &nonFlushWriter{}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.code, http.StatusInternalServerError)
	}
}

// TestHandleSSE_ServerShutdownIntegration checks that SSE connections over
// a real HTTP connection close when the server context is cancelled.
func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	srv, _, ms := newTestServer(nil, "")
	ms.Update(store.Event{Table: "stations", State: "loaded", Generation: 1})

	serverCtx, serverCancel := context.WithCancel(context.Background())

	ts := httptest.NewUnstartedServer(srv.Handler())
	ts.Config.BaseContext = func(net.Listener) context.Context { return serverCtx }
	ts.Start()
	defer ts.Close()

	connDone := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL + "/api/sse")
		if err != nil {
			connDone <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()
		_, err = io.Copy(io.Discard, resp.Body)
		connDone <- err
	}()

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	select {
	case <-connDone:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE connection did not close after server shutdown")
	}
}

func parseSSEEvents(body string) []store.Event {
	var events []store.Event
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			var e store.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err == nil {
				events = append(events, e)
			}
		}
	}
	return events
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(&fakeTables{}, store.NewMemoryStore(), port, nil, "", testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Error("Start() = nil, want bind error")
	}
}

func TestStart_ServesAndShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	srv := NewServer(&fakeTables{}, store.NewMemoryStore(), port, nil, "", testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/tables", port))
	if err != nil {
		t.Fatalf("GET /api/tables: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
}

func TestHandleDashboard_CustomTitle(t *testing.T) {
	srv, _, _ := newTestServer(&mockFS{content: "<title>{{.Title}}</title><h1>{{.Title}}</h1>"}, "Water Flow Monitoring")

	rec := serve(srv, http.MethodGet, "/", nil)
	body := rec.Body.String()

	if !strings.Contains(body, "<title>Water Flow Monitoring</title>") {
		t.Errorf("expected title tag with custom title, got: %s", body)
	}
	if !strings.Contains(body, "<h1>Water Flow Monitoring</h1>") {
		t.Errorf("expected h1 with custom title, got: %s", body)
	}
}

func TestHandleDashboard_DefaultTitle(t *testing.T) {
	srv, _, _ := newTestServer(&mockFS{content: "<title>{{.Title}}</title>"}, "")

	rec := serve(srv, http.MethodGet, "/", nil)
	if !strings.Contains(rec.Body.String(), "<title>TableBoard</title>") {
		t.Errorf("expected default title, got: %s", rec.Body.String())
	}
}

func TestHandleDashboard_NoAssets(t *testing.T) {
	srv, _, _ := newTestServer(nil, "")

	rec := serve(srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleDashboard_MissingIndex(t *testing.T) {
	srv, _, _ := newTestServer(&mockFS{}, "")
	srv.assets = fsWithoutIndex{}

	rec := serve(srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

type fsWithoutIndex struct{}

func (fsWithoutIndex) Open(name string) (fs.File, error) { return nil, fs.ErrNotExist }

func TestHandleDashboard_NonRootPath(t *testing.T) {
	srv, _, _ := newTestServer(&mockFS{content: "<title>{{.Title}}</title>"}, "")

	rec := serve(srv, http.MethodGet, "/other", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d for non-root path", rec.Code, http.StatusNotFound)
	}
}

func TestHandleDashboard_TitleWithHTMLChars(t *testing.T) {
	srv, _, _ := newTestServer(&mockFS{content: "<title>{{.Title}}</title>"}, "<script>alert('xss')</script>")

	body := serve(srv, http.MethodGet, "/", nil).Body.String()

	if strings.Contains(body, "<script>") {
		t.Error("title should be HTML-escaped to prevent XSS")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("expected escaped HTML, got: %s", body)
	}
}
