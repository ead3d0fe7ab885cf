package logging

import (
	"log/slog"
	"sort"
	"strings"

	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/scan"
)

// Redactor replaces sensitive values in log attributes with the same
// placeholders the scan engine uses.
type Redactor struct {
	registry *detect.Registry
}

// NewRedactor creates a redactor backed by registry.
func NewRedactor(registry *detect.Registry) *Redactor {
	return &Redactor{registry: registry}
}

// Redact returns s with every detector match replaced, longest first.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	matches := r.registry.Detect(s)
	if len(matches) == 0 {
		return s
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].Text) > len(matches[j].Text)
	})
	for _, m := range matches {
		s = strings.ReplaceAll(s, m.Text, scan.Placeholder(m.Detector))
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Strings and errors
// are redacted; time, level and source attributes pass through.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.SourceKey:
			return a
		}
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if red := r.Redact(a.Value.String()); red != a.Value.String() {
			return slog.String(a.Key, red)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.Redact(err.Error()))
		}
	}
	return a
}
