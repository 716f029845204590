package lemonade

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(candidates ...string) *Client {
	return &Client{
		candidates:    candidates,
		http:          &http.Client{},
		timeout:       2 * time.Second,
		pullTimeout:   2 * time.Second,
		deleteTimeout: 2 * time.Second,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:       NewMetrics(),
	}
}

// deadServerURL returns a base URL that refuses connections.
func deadServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestFallbackOnTransportError(t *testing.T) {
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("path = %q, want /api/v1/health", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer fallback.Close()

	c := testClient(deadServerURL(t), fallback.URL)

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v, want fallback response", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.URL != fallback.URL+"/api/v1/health" {
		t.Errorf("URL = %q, want fallback candidate", resp.URL)
	}
}

func TestAllCandidatesUnreachable(t *testing.T) {
	c := testClient(deadServerURL(t), deadServerURL(t))

	resp, err := c.Health(context.Background())
	if err == nil {
		t.Fatalf("Health() = %v, want transport error", resp)
	}
}

func TestFallbackOnHTTPError(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer fallback.Close()

	c := testClient(primary.URL, fallback.URL)

	resp, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200 from fallback", resp.StatusCode)
	}
}

func TestFinalCandidateErrorStatusReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	resp, err := c.Get(context.Background(), "unknown-endpoint")
	if err != nil {
		t.Fatalf("Get() error = %v, want the 404 response", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
	if resp.OK() {
		t.Error("OK() = true for a 404")
	}
}

func TestPullRequestShape(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"status":"pulling"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	if _, err := c.Pull(context.Background(), "Qwen3-14B-GGUF"); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/api/v1/pull" {
		t.Errorf("path = %q, want /api/v1/pull", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %q", gotContentType)
	}

	var payload map[string]string
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if payload["model_name"] != "Qwen3-14B-GGUF" {
		t.Errorf("model_name = %q", payload["model_name"])
	}
}

func TestModelsShowAll(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	if _, err := c.Models(context.Background(), true); err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if gotQuery != "show_all=true" {
		t.Errorf("query = %q, want show_all=true", gotQuery)
	}

	if _, err := c.Models(context.Background(), false); err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want empty", gotQuery)
	}
}

func TestLiveAtBareBase(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("alive"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	if _, err := c.Live(context.Background()); err != nil {
		t.Fatalf("Live() error = %v", err)
	}
	if gotPath != "/live" {
		t.Errorf("path = %q, want /live outside /api/v1", gotPath)
	}
}

func TestAtMostOneAttemptPerCandidate(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	// Same server as both candidates: expect exactly two attempts.
	c := testClient(srv.URL, srv.URL)

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want final candidate's 502", resp.StatusCode)
	}
	if hits != 2 {
		t.Errorf("attempts = %d, want 2", hits)
	}
}
