package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json", RedactSensitive: true}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "defaults", config: Config{}},
		{name: "invalid log level", config: Config{Level: "invalid"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "invalid"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Writer = &buf
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestLogger_RedactsSensitiveValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, RedactSensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("prompt received",
		"prompt", "my ssn is 123-45-6789",
		"error", errors.New("upstream echoed alice@example.com"),
		"count", 3,
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["prompt"] != "my ssn is [SSN_REDACTED]" {
		t.Errorf("prompt = %v", rec["prompt"])
	}
	if rec["error"] != "upstream echoed [EMAIL_REDACTED]" {
		t.Errorf("error = %v", rec["error"])
	}
	if rec["count"] != float64(3) {
		t.Errorf("count = %v", rec["count"])
	}
	if strings.Contains(buf.String(), "123-45-6789") {
		t.Error("raw SSN reached the log")
	}
}

func TestLogger_NoRedactionByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Writer: &buf})
	logger.Info("x", "prompt", "alice@example.com")
	if !strings.Contains(buf.String(), "alice@example.com") {
		t.Errorf("value unexpectedly altered: %s", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Writer: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTransactionID(ctx, "tx-1")
	ctx = WithUserID(ctx, "alice")
	logger.With("component", "test").InfoContext(ctx, "handled")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{"request_id": "req-1", "transaction_id": "tx-1", "user_id": "alice", "component": "test"} {
		if rec[key] != want {
			t.Errorf("%s = %v, want %s", key, rec[key], want)
		}
	}

	if got := Fields(ctx); len(got) != 6 {
		t.Errorf("Fields() = %v", got)
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}
