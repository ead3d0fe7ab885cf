package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/cli"
)

func writeAuditLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store, err := audit.NewJSONLStore(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	base := time.Now().Add(-2 * time.Hour).UTC()
	entries := []audit.Entry{
		{Timestamp: base, EventType: audit.EventInputScan, TransactionID: "tx-1", UserID: "alice", Status: audit.StatusSafe, PolicyVersion: "v1"},
		{Timestamp: base.Add(time.Hour), EventType: audit.EventInputScan, TransactionID: "tx-2", UserID: "bob", Status: audit.StatusBlocked, PolicyVersion: "v1",
			Details: map[string]any{"violations": "ssn(BLOCK)"}},
		{Timestamp: base.Add(time.Hour), EventType: audit.EventTransactionComplete, TransactionID: "tx-2", UserID: "bob", Status: audit.StatusBlocked, PolicyVersion: "v1"},
	}
	for _, e := range entries {
		if err := store.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestAuditQuery_Filters(t *testing.T) {
	path := writeAuditLog(t)

	out, err := execute(t, "", "audit", "query", "--jsonl", path, "--transaction", "tx-2", "--event", "INPUT_SCAN")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out, "violations=ssn(BLOCK)") || !strings.Contains(out, "1 entries") || strings.Contains(out, "tx-1") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "", "audit", "query", "--jsonl", path, "--since", "90m", "--format", "csv")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Errorf("csv rows = %d, want header plus 2:\n%s", len(lines), out)
	}
}

func TestAuditQuery_Errors(t *testing.T) {
	path := writeAuditLog(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"both sources", []string{"--jsonl", path, "--sqlite", "x.db"}, cli.ExitUsage},
		{"bad since", []string{"--jsonl", path, "--since", "yesterday"}, cli.ExitUsage},
		{"inverted range", []string{"--jsonl", path, "--since", "1h", "--until", "2h"}, cli.ExitUsage},
		{"bad format", []string{"--jsonl", path, "--format", "xml"}, cli.ExitUsage},
		{"missing sqlite", []string{"--sqlite", filepath.Join(t.TempDir(), "none.db")}, cli.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", append([]string{"audit", "query"}, tt.args...)...)
			if got := cli.ExitCode(err); got != tt.code {
				t.Errorf("exit code = %d (err %v), want %d", got, err, tt.code)
			}
		})
	}
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeFlag("2026-04-30T00:00:00Z", now)
	if err != nil || !got.Equal(time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("rfc3339: %v, %v", got, err)
	}
	got, err = parseTimeFlag("30m", now)
	if err != nil || !got.Equal(now.Add(-30*time.Minute)) {
		t.Errorf("duration: %v, %v", got, err)
	}
	if got, err = parseTimeFlag("", now); err != nil || !got.IsZero() {
		t.Errorf("empty: %v, %v", got, err)
	}
	if _, err = parseTimeFlag("-5m", now); err == nil {
		t.Error("negative duration should fail")
	}
}
