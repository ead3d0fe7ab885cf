package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/config"
	"mercator-hq/guardian/pkg/policy"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	dir := t.TempDir()
	cfg.Proxy.ListenAddress = "127.0.0.1:0"
	cfg.Audit.JSONLPath = filepath.Join(dir, "audit.jsonl")
	cfg.Audit.SQLite.Path = filepath.Join(dir, "audit.db")
	cfg.Upstream.Mock = true
	return &cfg
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewApp_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.SQLite.Enabled = true

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	h := a.server.Handler()

	w := post(t, h, `{"model":"gpt-4o","messages":[{"role":"user","content":"mail carol@example.com"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "carol@example.com") {
		t.Errorf("email reached the caller: %s", w.Body.String())
	}
	redactedTx := w.Header().Get("X-Transaction-ID")

	w = post(t, h, `{"model":"gpt-4o","messages":[{"role":"user","content":"ssn 123-45-6789"}]}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var body struct {
		Error struct {
			Type string `json:"type"`
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Type != "policy_violation" || body.Error.Code != "input_blocked" {
		t.Errorf("error = %+v", body.Error)
	}

	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	if health.Code != http.StatusOK {
		t.Errorf("health = %d: %s", health.Code, health.Body.String())
	}

	metrics := httptest.NewRecorder()
	h.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(metrics.Body.String(), "guardian_") {
		t.Errorf("metrics missing guardian series")
	}

	if err := a.close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := audit.ReadJSONL(cfg.Audit.JSONLPath, audit.Filter{TransactionID: redactedTx})
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries for %s = %d, want 3", redactedTx, len(entries))
	}
	for _, e := range entries {
		if e.UserID != "alice" || e.PolicyVersion != policy.FallbackVersion {
			t.Errorf("entry = %+v", e)
		}
	}

	sc := audit.DefaultSQLiteConfig()
	sc.Path = cfg.Audit.SQLite.Path
	sqlite, err := audit.NewSQLiteStore(sc)
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	defer sqlite.Close()
	mirrored, err := sqlite.Query(context.Background(), audit.Filter{TransactionID: redactedTx})
	if err != nil || len(mirrored) != 3 {
		t.Errorf("mirror entries = %d, %v", len(mirrored), err)
	}
}

func TestNewApp_PolicyFallbackIsUnhealthy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Policy.FilePath = filepath.Join(t.TempDir(), "missing.yaml")

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close(context.Background())

	if v := a.policies.Snapshot().Version; v != policy.FallbackVersion {
		t.Errorf("version = %q, want fallback", v)
	}
	w := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "fallback policy active") {
		t.Errorf("health = %d: %s", w.Code, w.Body.String())
	}
}

func TestNewApp_WatcherReloadsPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Policy.FilePath = writeFile(t, "policy.yaml", "version: \"1\"\ndata_rules:\n  email: {action: REDACT}\n")
	cfg.Policy.Watch = true
	cfg.Policy.Debounce = 20 * time.Millisecond

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.server.Run(ctx) }()

	// Give the watcher time to register before rewriting the file.
	time.Sleep(100 * time.Millisecond)
	writePolicyFile(t, cfg.Policy.FilePath, "version: \"2\"\ndata_rules:\n  email: {action: BLOCK}\n")

	deadline := time.Now().Add(3 * time.Second)
	for a.policies.Snapshot().Version != "2" {
		if time.Now().After(deadline) {
			t.Fatalf("policy not reloaded, version %q", a.policies.Snapshot().Version)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func writePolicyFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
}

func TestNewApp_InvalidTracing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Tracing.Enabled = true
	cfg.Telemetry.Tracing.Endpoint = ""

	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("expected tracing error")
	}
}

func TestNewApp_RequiresUpstream(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upstream.Mock = false

	_, err := newApp(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "base_url is required") {
		t.Fatalf("err = %v, want missing base_url", err)
	}
}
