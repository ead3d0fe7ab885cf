package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_AllHealthy(t *testing.T) {
	c := New("1.0.0", 0)
	c.RegisterCheck("policy", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Status != "ok" || st.Version != "1.0.0" || st.Checks["policy"].Status != "ok" {
		t.Errorf("status = %+v", st)
	}
}

func TestChecker_Degraded(t *testing.T) {
	c := New("", 20*time.Millisecond)
	c.RegisterCheck("policy", func(context.Context) error { return errors.New("fallback active") })
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	st := c.Check(context.Background())
	if st.Status != "degraded" {
		t.Fatalf("status = %s, want degraded", st.Status)
	}
	if st.Checks["policy"].Message != "fallback active" {
		t.Errorf("policy check = %+v", st.Checks["policy"])
	}
	if st.Checks["slow"].Message != "health check timeout" {
		t.Errorf("slow check = %+v", st.Checks["slow"])
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rec.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New("", 0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", rec.Code)
	}
}
