package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"testing"
	"time"
)

func jsonServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
}

// TestClient_ConnectionReuse verifies that sequential fetches to one host
// reuse pooled connections.
func TestClient_ConnectionReuse(t *testing.T) {
	server := jsonServer(`[]`)
	defer server.Close()

	client := NewClient()

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5
	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		resp := client.Fetch(ctx, Request{URL: server.URL, Timeout: 5 * time.Second})
		if resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	expectedMinReuse := numRequests - 2
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

func TestClient_Fetch(t *testing.T) {
	var gotMethod, gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer abc"},
		Timeout: time.Second,
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("expected auth header, got %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("expected Accept application/json, got %q", gotAccept)
	}
	if string(resp.Body) != `{"data":[]}` {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.ContentType != "application/json" {
		t.Errorf("unexpected content type %q", resp.ContentType)
	}
}

func TestClient_Fetch_DefaultsToGet(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), Request{URL: server.URL, Timeout: time.Second})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("expected GET, got %s", gotMethod)
	}
}

func TestClient_Fetch_BodyTooLarge(t *testing.T) {
	server := jsonServer(strings.Repeat("x", MaxBodySize+10))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), Request{URL: server.URL, Timeout: 5 * time.Second})
	if !errors.Is(resp.Error, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", resp.Error)
	}
	if resp.Body != nil {
		t.Error("expected no body for oversize response")
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200 to be kept, got %d", resp.StatusCode)
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	start := time.Now()
	resp := NewClient().Fetch(context.Background(), Request{URL: server.URL, Timeout: 50 * time.Millisecond})
	if resp.Error == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not applied, took %v", time.Since(start))
	}
}

func TestClient_Fetch_InvalidURL(t *testing.T) {
	resp := NewClient().Fetch(context.Background(), Request{URL: "://bad", Timeout: time.Second})
	if resp.Error == nil {
		t.Fatal("expected error for invalid URL")
	}
	if resp.StatusCode != 0 {
		t.Errorf("expected zero status code, got %d", resp.StatusCode)
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client := NewClient()
	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client
	client.Close()
}

// TestClient_Close_ActuallyClosesConnections verifies that Close closes idle
// connections, but the client remains usable for new requests.
func TestClient_Close_ActuallyClosesConnections(t *testing.T) {
	server := jsonServer(`[]`)
	defer server.Close()

	client := NewClient()
	for i := 0; i < 5; i++ {
		resp := client.Fetch(context.Background(), Request{URL: server.URL, Timeout: time.Second})
		if resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	client.Close()

	resp := client.Fetch(context.Background(), Request{URL: server.URL, Timeout: time.Second})
	if resp.Error != nil {
		t.Errorf("request after Close failed: %v", resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}
