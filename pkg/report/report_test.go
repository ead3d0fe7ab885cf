package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/policy"
	"mercator-hq/guardian/pkg/scan"
)

func scanText(t *testing.T, text string) *scan.Result {
	t.Helper()
	engine := scan.NewEngine(detect.MustBuiltin(), policy.NewStoreWith(policy.Fallback()))
	return engine.Scan(text, scan.PhaseInput)
}

func TestScan_TableRedacted(t *testing.T) {
	res := scanText(t, "mail alice@example.com and bob@example.com")

	var buf bytes.Buffer
	if err := Scan(&buf, res, FormatTable); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Status:   REDACTED", "DETECTOR", "email", "2", "[EMAIL_REDACTED]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "alice@example.com") {
		t.Errorf("matched text in report:\n%s", out)
	}
}

func TestScan_TableBlockedHidesText(t *testing.T) {
	res := scanText(t, "ssn 123-45-6789")

	var buf bytes.Buffer
	if err := Scan(&buf, res, ""); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Status:   BLOCKED") || !strings.Contains(out, "Severity: CRITICAL") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if strings.Contains(out, "123-45-6789") || strings.Contains(out, "Sanitized:") {
		t.Errorf("blocked payload should not be printed:\n%s", out)
	}
}

func TestScan_JSON(t *testing.T) {
	res := scanText(t, "nothing to see")

	var buf bytes.Buffer
	if err := Scan(&buf, res, FormatJSON); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var view ScanView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.Status != scan.StatusSafe || len(view.Violations) != 0 || view.Sanitized != "nothing to see" {
		t.Errorf("view = %+v", view)
	}
	if !strings.Contains(buf.String(), `"violations": []`) {
		t.Errorf("violations should render as an empty list:\n%s", buf.String())
	}
}

func TestScan_UnsupportedFormat(t *testing.T) {
	var fe *FormatError
	if err := Scan(&bytes.Buffer{}, scanText(t, "x"), "xml"); !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
}

func TestNewScanView_GroupsViolations(t *testing.T) {
	res := &scan.Result{
		Phase:  scan.PhaseOutput,
		Status: scan.StatusBlocked,
		Violations: []scan.Violation{
			{Detector: "ssn", Action: policy.ActionBlock, Sensitivity: policy.SensitivityCritical},
			{Detector: "email", Action: policy.ActionRedact},
			{Detector: "ssn", Action: policy.ActionBlock, Sensitivity: policy.SensitivityCritical},
		},
		Faults: []detect.Fault{{Detector: "zeta"}, {Detector: "alpha"}},
	}

	v := NewScanView(res)
	if len(v.Violations) != 2 || v.Violations[0].Detector != "ssn" || v.Violations[0].Count != 2 {
		t.Errorf("violations = %+v", v.Violations)
	}
	if strings.Join(v.Faults, ",") != "alpha,zeta" {
		t.Errorf("faults = %v", v.Faults)
	}
	if v.Severity != string(policy.SensitivityCritical) {
		t.Errorf("severity = %q", v.Severity)
	}
}

func sampleEntries() []audit.Entry {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []audit.Entry{
		{Timestamp: ts, EventType: audit.EventInputScan, TransactionID: "tx-1", UserID: "alice", Status: audit.StatusBlocked, PolicyVersion: "v1",
			Details: map[string]any{"violations": "ssn(BLOCK)", "violation_count": 1}},
		{Timestamp: ts.Add(time.Second), EventType: audit.EventUpstreamCall, TransactionID: "tx-2", Status: audit.StatusFailed, PolicyVersion: "v1",
			Details: map[string]any{"reason": "timeout"}},
	}
}

func TestAudit_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Audit(&buf, sampleEntries(), FormatTable); err != nil {
		t.Fatalf("Audit: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"TRANSACTION", "tx-1", "alice", "INPUT_SCAN", "violations=ssn(BLOCK)", "reason=timeout", "2 entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAudit_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Audit(&buf, nil, FormatTable); err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !strings.Contains(buf.String(), "No entries found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestAudit_DelegatesExport(t *testing.T) {
	var buf bytes.Buffer
	if err := Audit(&buf, sampleEntries(), FormatCSV); err != nil {
		t.Fatalf("Audit: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "timestamp,") {
		t.Errorf("csv = %q", buf.String())
	}

	var fe *FormatError
	if err := Audit(&buf, nil, "yaml"); !errors.As(err, &fe) {
		t.Errorf("err = %v, want *FormatError", err)
	}
}
