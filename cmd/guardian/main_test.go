package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/report"
)

// execute runs the root command with args and returns its output. Flag
// variables are reset first because cobra keeps them between runs.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	scanFlags.policyFile, scanFlags.phase, scanFlags.mode, scanFlags.format = "", "input", "", report.FormatTable
	policyFlags.strict = false
	auditFlags = struct {
		jsonlPath     string
		sqlitePath    string
		sqliteDriver  string
		transactionID string
		userID        string
		eventType     string
		status        string
		since         string
		until         string
		limit         int
		format        string
	}{sqliteDriver: audit.DriverPureGo, format: report.FormatTable}
	cfgFile, verbose = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	orig := Version
	Version = "0.1.0-test"
	defer func() { Version = orig }()

	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Guardian 0.1.0-test") || !strings.Contains(out, "Go Version:") {
		t.Errorf("output = %q", out)
	}
}
