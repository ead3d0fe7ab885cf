package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/scan"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// FormatError reports an output format a renderer does not support.
type FormatError struct {
	Format    string
	Supported []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (supported: %s)", e.Format, strings.Join(e.Supported, ", "))
}

// ScanView is the presentation form of a scan result. It carries detector
// names and counts, never the matched text.
type ScanView struct {
	Phase         scan.Phase       `json:"phase"`
	Status        scan.Status      `json:"status"`
	Severity      string           `json:"severity"`
	PolicyVersion string           `json:"policy_version"`
	Sanitized     string           `json:"sanitized"`
	Violations    []ViolationCount `json:"violations"`
	Faults        []string         `json:"faulted_detectors,omitempty"`
}

// ViolationCount groups identical violations.
type ViolationCount struct {
	Detector    string `json:"detector"`
	Category    string `json:"category"`
	Sensitivity string `json:"sensitivity"`
	Action      string `json:"action"`
	Suppressed  bool   `json:"suppressed,omitempty"`
	Count       int    `json:"count"`
}

// NewScanView summarizes res. Violations are grouped per detector and
// action, in first-seen order.
func NewScanView(res *scan.Result) ScanView {
	v := ScanView{
		Phase:         res.Phase,
		Status:        res.Status,
		Severity:      string(res.Severity()),
		PolicyVersion: res.PolicyVersion,
		Sanitized:     res.Sanitized,
		Violations:    []ViolationCount{},
	}
	index := make(map[string]int)
	for _, viol := range res.Violations {
		key := viol.Detector + "|" + string(viol.Action) + "|" + fmt.Sprint(viol.Suppressed)
		if i, ok := index[key]; ok {
			v.Violations[i].Count++
			continue
		}
		index[key] = len(v.Violations)
		v.Violations = append(v.Violations, ViolationCount{
			Detector:    viol.Detector,
			Category:    string(viol.Category),
			Sensitivity: string(viol.Sensitivity),
			Action:      string(viol.Action),
			Suppressed:  viol.Suppressed,
			Count:       1,
		})
	}
	for _, f := range res.Faults {
		v.Faults = append(v.Faults, f.Detector)
	}
	sort.Strings(v.Faults)
	return v
}

// Scan renders a scan result as a table or JSON.
func Scan(w io.Writer, res *scan.Result, format string) error {
	view := NewScanView(res)
	switch format {
	case FormatTable, "":
		return scanTable(w, view)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	default:
		return &FormatError{Format: format, Supported: []string{FormatTable, FormatJSON}}
	}
}

func scanTable(w io.Writer, v ScanView) error {
	fmt.Fprintf(w, "Phase:    %s\n", v.Phase)
	fmt.Fprintf(w, "Status:   %s\n", v.Status)
	if v.Status == scan.StatusBlocked {
		fmt.Fprintf(w, "Severity: %s\n", v.Severity)
	}
	fmt.Fprintf(w, "Policy:   %s\n", v.PolicyVersion)
	if len(v.Faults) > 0 {
		fmt.Fprintf(w, "Faulted:  %s\n", strings.Join(v.Faults, ", "))
	}
	fmt.Fprintln(w)

	if len(v.Violations) == 0 {
		fmt.Fprintln(w, "No violations.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DETECTOR\tCATEGORY\tSENSITIVITY\tACTION\tCOUNT")
		for _, viol := range v.Violations {
			action := viol.Action
			if viol.Suppressed {
				action += " (suppressed)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", viol.Detector, viol.Category, viol.Sensitivity, action, viol.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if v.Status != scan.StatusBlocked {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sanitized:")
		_, err := fmt.Fprintln(w, v.Sanitized)
		return err
	}
	return nil
}

// Audit renders entries as a table, JSON lines or CSV.
func Audit(w io.Writer, entries []audit.Entry, format string) error {
	switch format {
	case FormatTable, "":
		return auditTable(w, entries)
	case FormatJSON, FormatCSV:
		return audit.Export(w, entries, format)
	default:
		return &FormatError{Format: format, Supported: []string{FormatTable, FormatJSON, FormatCSV}}
	}
}

func auditTable(w io.Writer, entries []audit.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTRANSACTION\tUSER\tEVENT\tSTATUS\tPOLICY\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.UTC().Format(time.RFC3339),
			e.TransactionID,
			dash(e.UserID),
			e.EventType,
			e.Status,
			e.PolicyVersion,
			detailSummary(e.Details),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d entries\n", len(entries))
	return err
}

// detailSummary shows the fields an operator scans for first.
func detailSummary(d map[string]any) string {
	var parts []string
	for _, key := range []string{"violations", "reason", "upstream_status", "faulted_detectors"} {
		if v, ok := d[key]; ok && v != nil && fmt.Sprint(v) != "" {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
