package scan

import (
	"strings"

	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/policy"
)

// Phase identifies which side of the upstream call a scan covers.
type Phase string

const (
	PhaseInput  Phase = "INPUT"
	PhaseOutput Phase = "OUTPUT"
)

// Status is the aggregate outcome of a scan.
type Status string

const (
	StatusSafe     Status = "SAFE"
	StatusRedacted Status = "REDACTED"
	StatusBlocked  Status = "BLOCKED"
)

// Violation is one detector match resolved against the policy.
type Violation struct {
	Detector    string             `json:"detector"`
	Category    detect.Category    `json:"category"`
	Sensitivity policy.Sensitivity `json:"sensitivity"`
	Action      policy.Action      `json:"action"`
	Match       string             `json:"-"`
	Placeholder string             `json:"placeholder"`
	Phase       Phase              `json:"phase"`

	// Suppressed marks a BLOCK that MONITOR mode did not enforce.
	Suppressed bool `json:"suppressed,omitempty"`
}

// Result is the outcome of one scan call.
type Result struct {
	Phase         Phase
	Sanitized     string
	Status        Status
	Violations    []Violation
	Faults        []detect.Fault
	PolicyVersion string
}

// Blocked reports whether the scan blocked the payload.
func (r *Result) Blocked() bool {
	return r.Status == StatusBlocked
}

// Summary renders the violations as "detector(ACTION)" pairs in detection
// order, marking suppressed blocks. Matched text is never included.
func (r *Result) Summary() string {
	if len(r.Violations) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(r.Violations))
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		label := v.Detector + "(" + string(v.Action)
		if v.Suppressed {
			label += ",suppressed"
		}
		label += ")"
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

// Severity returns the highest sensitivity among the violations whose action
// is BLOCK, or UNKNOWN when there are none.
func (r *Result) Severity() policy.Sensitivity {
	best := policy.SensitivityUnknown
	for _, v := range r.Violations {
		if v.Action == policy.ActionBlock && v.Sensitivity.Rank() > best.Rank() {
			best = v.Sensitivity
		}
	}
	return best
}

// Placeholder returns the redaction token for a detector.
func Placeholder(detector string) string {
	return "[" + strings.ToUpper(detector) + "_REDACTED]"
}
