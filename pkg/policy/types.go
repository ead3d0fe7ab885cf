package policy

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Sensitivity ranks how damaging a leak of the matched data would be.
type Sensitivity string

const (
	SensitivityLow      Sensitivity = "LOW"
	SensitivityMedium   Sensitivity = "MEDIUM"
	SensitivityHigh     Sensitivity = "HIGH"
	SensitivityCritical Sensitivity = "CRITICAL"
	SensitivityUnknown  Sensitivity = "UNKNOWN"
)

// Rank orders sensitivities for severity comparisons. UNKNOWN ranks below LOW.
func (s Sensitivity) Rank() int {
	switch s {
	case SensitivityLow:
		return 1
	case SensitivityMedium:
		return 2
	case SensitivityHigh:
		return 3
	case SensitivityCritical:
		return 4
	default:
		return 0
	}
}

// ParseSensitivity parses a sensitivity name case-insensitively.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch v := Sensitivity(strings.ToUpper(strings.TrimSpace(s))); v {
	case SensitivityLow, SensitivityMedium, SensitivityHigh, SensitivityCritical, SensitivityUnknown:
		return v, nil
	default:
		return "", fmt.Errorf("unknown sensitivity %q", s)
	}
}

// Action is the remediation applied to a match.
type Action string

const (
	ActionAllow  Action = "ALLOW"
	ActionRedact Action = "REDACT"
	ActionBlock  Action = "BLOCK"
)

// ParseAction parses an action name case-insensitively.
func ParseAction(s string) (Action, error) {
	switch v := Action(strings.ToUpper(strings.TrimSpace(s))); v {
	case ActionAllow, ActionRedact, ActionBlock:
		return v, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// EnforcementMode toggles between blocking and classify-only operation.
type EnforcementMode string

const (
	ModeBlocking EnforcementMode = "BLOCKING"
	ModeMonitor  EnforcementMode = "MONITOR"
)

// ParseMode parses an enforcement mode. An empty string means BLOCKING.
func ParseMode(s string) (EnforcementMode, error) {
	switch v := EnforcementMode(strings.ToUpper(strings.TrimSpace(s))); v {
	case "":
		return ModeBlocking, nil
	case ModeBlocking, ModeMonitor:
		return v, nil
	default:
		return "", fmt.Errorf("unknown enforcement mode %q", s)
	}
}

// Rule governs remediation for one detector.
type Rule struct {
	Detector    string
	Sensitivity Sensitivity
	Action      Action
}

// Settings are the policy-wide switches.
type Settings struct {
	EnforcementMode      EnforcementMode
	AllowedModelPatterns []string
}

// DefaultRuleKey is the data_rules entry that overrides DefaultRule for every
// detector without its own rule.
const DefaultRuleKey = "default"

// DefaultRule is applied to detectors without an explicit rule so that new
// detectors are enforced rather than ignored.
func DefaultRule(detector string) Rule {
	return Rule{Detector: detector, Sensitivity: SensitivityUnknown, Action: ActionRedact}
}

// Snapshot is an immutable, loaded policy. Readers obtain it from a Store and
// may use it without locking.
type Snapshot struct {
	Version  string
	Settings Settings
	rules    map[string]Rule
}

// NewSnapshot builds a snapshot from rules and settings. The rules slice is
// copied.
func NewSnapshot(version string, settings Settings, rules []Rule) *Snapshot {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[r.Detector] = r
	}
	settings.AllowedModelPatterns = append([]string(nil), settings.AllowedModelPatterns...)
	if settings.EnforcementMode == "" {
		settings.EnforcementMode = ModeBlocking
	}
	return &Snapshot{Version: version, Settings: settings, rules: m}
}

// RuleFor resolves the rule for a detector. Detectors without a rule get the
// policy's "default" entry when it has one, and DefaultRule otherwise.
func (s *Snapshot) RuleFor(detector string) Rule {
	if r, ok := s.rules[detector]; ok {
		return r
	}
	if d, ok := s.rules[DefaultRuleKey]; ok {
		return Rule{Detector: detector, Sensitivity: d.Sensitivity, Action: d.Action}
	}
	return DefaultRule(detector)
}

// Rules returns the explicit rules in no particular order.
func (s *Snapshot) Rules() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out
}

// UnknownDetectors returns rule names that are not in known, sorted. Such
// rules are harmless but usually indicate a typo in the policy file.
func (s *Snapshot) UnknownDetectors(known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out []string
	for name := range s.rules {
		if name == DefaultRuleKey {
			continue
		}
		if _, ok := set[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Monitor reports whether blocks are suppressed.
func (s *Snapshot) Monitor() bool {
	return s.Settings.EnforcementMode == ModeMonitor
}

// ModelAllowed reports whether model matches one of the allowed patterns. An
// empty pattern list allows every model. Malformed patterns never match.
func (s *Snapshot) ModelAllowed(model string) bool {
	if len(s.Settings.AllowedModelPatterns) == 0 {
		return true
	}
	for _, p := range s.Settings.AllowedModelPatterns {
		if ok, err := path.Match(p, model); err == nil && ok {
			return true
		}
	}
	return false
}
