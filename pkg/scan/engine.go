package scan

import (
	"log/slog"
	"sort"
	"strings"

	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/policy"
)

// PolicyProvider supplies the active policy snapshot.
type PolicyProvider interface {
	Snapshot() *policy.Snapshot
}

// Observer receives scan results, typically a metrics collector.
type Observer interface {
	ObserveScan(r *Result)
}

// Engine evaluates text against the detector registry under the active
// policy. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	registry *detect.Registry
	policies PolicyProvider
	observer Observer
	logger   *slog.Logger
}

// NewEngine creates a scan engine.
func NewEngine(registry *detect.Registry, policies PolicyProvider) *Engine {
	return &Engine{
		registry: registry,
		policies: policies,
		logger:   slog.Default().With("component", "scan"),
	}
}

// WithObserver sets an observer notified after each scan.
func (e *Engine) WithObserver(o Observer) *Engine {
	e.observer = o
	return e
}

// Scan evaluates text. A BLOCK match (outside MONITOR mode) returns the input
// unchanged with status BLOCKED; otherwise every REDACT match is replaced by
// its placeholder.
func (e *Engine) Scan(text string, phase Phase) *Result {
	snap := e.policies.Snapshot()
	res := e.evaluate(snap, text, phase)
	if e.observer != nil {
		e.observer.ObserveScan(res)
	}
	return res
}

func (e *Engine) evaluate(snap *policy.Snapshot, text string, phase Phase) *Result {
	res := &Result{
		Phase:         phase,
		Sanitized:     text,
		Status:        StatusSafe,
		PolicyVersion: snap.Version,
	}
	if text == "" {
		return res
	}

	matches, faults := e.registry.DetectWithFaults(text)
	res.Faults = faults
	for _, f := range faults {
		e.logger.Warn("detector skipped", "detector", f.Detector, "error", f.Err)
	}

	monitor := snap.Monitor()
	blocked := false
	replacements := make(map[string]string)

	for _, m := range matches {
		rule := snap.RuleFor(m.Detector)
		v := Violation{
			Detector:    m.Detector,
			Category:    m.Category,
			Sensitivity: rule.Sensitivity,
			Action:      rule.Action,
			Match:       m.Text,
			Phase:       phase,
		}

		switch rule.Action {
		case policy.ActionBlock:
			if monitor {
				v.Suppressed = true
			} else {
				blocked = true
			}
		case policy.ActionRedact:
			v.Placeholder = Placeholder(m.Detector)
			if _, ok := replacements[m.Text]; !ok {
				replacements[m.Text] = v.Placeholder
			}
		}
		res.Violations = append(res.Violations, v)
	}

	if blocked {
		res.Status = StatusBlocked
		return res
	}

	if sanitized := redact(text, replacements); sanitized != text {
		res.Sanitized = sanitized
		res.Status = StatusRedacted
	}
	return res
}

// span is a byte range of the input covered by one placeholder.
type span struct {
	start, end  int
	placeholder string
}

// redact covers every occurrence of each key with a placeholder. Overlapping
// or adjacent occurrences are merged into one span and rewritten once, so a
// match that only partly overlaps another cannot leave a fragment behind.
// A merged span takes the placeholder of its longest member; ties go to the
// earliest.
func redact(text string, replacements map[string]string) string {
	var spans []span
	for match, placeholder := range replacements {
		if match == "" {
			continue
		}
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], match)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, span{start: start, end: start + len(match), placeholder: placeholder})
			from = start + 1
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return a.placeholder < b.placeholder
	})

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	cur := spans[0]
	longest := cur.end - cur.start
	emit := func() {
		b.WriteString(text[last:cur.start])
		b.WriteString(cur.placeholder)
		last = cur.end
	}
	for _, s := range spans[1:] {
		if s.start <= cur.end {
			if s.end > cur.end {
				cur.end = s.end
			}
			if n := s.end - s.start; n > longest {
				longest = n
				cur.placeholder = s.placeholder
			}
			continue
		}
		emit()
		cur = s
		longest = s.end - s.start
	}
	emit()
	b.WriteString(text[last:])
	return b.String()
}
