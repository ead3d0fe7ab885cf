package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/guardian/pkg/config"
	"mercator-hq/guardian/pkg/telemetry/health"
)

func testProxyConfig() config.ProxyConfig {
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	cfg.Proxy.ListenAddress = "127.0.0.1:0"
	cfg.Proxy.ShutdownTimeout = 2 * time.Second
	cfg.Proxy.MaxBodyBytes = 64
	return cfg.Proxy
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func TestHandler_Routes(t *testing.T) {
	srv := New(testProxyConfig(), Routes{
		Chat:    okHandler("chat"),
		Health:  health.New("test", time.Second).Handler(),
		Metrics: okHandler("metrics"),
	})
	h := srv.Handler()

	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodPost, "/v1/chat/completions", http.StatusOK, "chat"},
		{http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/metrics", http.StatusOK, "metrics"},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestHandler_BodyLimit(t *testing.T) {
	var readErr error
	srv := New(testProxyConfig(), Routes{Chat: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})})

	srv.Handler().ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(strings.Repeat("x", 100))))

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Fatalf("read error = %v, want *http.MaxBytesError", readErr)
	}
}

func TestHandler_MetricsOptional(t *testing.T) {
	srv := New(testProxyConfig(), Routes{Chat: okHandler("chat")})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a metrics handler", w.Code)
	}
}

func TestServe_RunsTasksAndShutsDown(t *testing.T) {
	srv := New(testProxyConfig(), Routes{Chat: okHandler("chat")})

	started := make(chan struct{})
	stopped := make(chan struct{})
	srv.AddTask("watcher", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not start")
	}

	resp, err := http.Post("http://"+ln.Addr().String()+"/v1/chat/completions", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "chat" {
		t.Errorf("body = %q", body)
	}
	if srv.Addr() != ln.Addr().String() {
		t.Errorf("Addr = %q", srv.Addr())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	select {
	case <-stopped:
	default:
		t.Error("task was not stopped")
	}
}

func TestServe_TaskFailureStopsServer(t *testing.T) {
	srv := New(testProxyConfig(), Routes{Chat: okHandler("chat")})
	boom := errors.New("boom")
	srv.AddTask("rotator", func(ctx context.Context) error { return boom })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	select {
	case err := <-done:
		if !errors.Is(err, boom) || !strings.Contains(err.Error(), "rotator") {
			t.Fatalf("err = %v, want wrapped boom naming the task", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server kept running after a task failed")
	}
}

func TestRun_ListenError(t *testing.T) {
	cfg := testProxyConfig()
	cfg.ListenAddress = "256.0.0.1:bad"
	if err := New(cfg, Routes{}).Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
