package audit

import "time"

// EventType names the pipeline phase an entry records.
type EventType string

const (
	EventInputScan           EventType = "INPUT_SCAN"
	EventOutputScan          EventType = "OUTPUT_SCAN"
	EventUpstreamCall        EventType = "UPSTREAM_CALL"
	EventTransactionComplete EventType = "TRANSACTION_COMPLETE"
)

// Status is the outcome recorded for a phase.
type Status string

const (
	StatusSafe     Status = "SAFE"
	StatusRedacted Status = "REDACTED"
	StatusBlocked  Status = "BLOCKED"
	StatusFailed   Status = "FAILED"
	StatusSuccess  Status = "SUCCESS"
)

// Entry is one append-only audit record. Each entry is self-contained; there
// are no references between entries beyond the transaction id.
type Entry struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     EventType      `json:"event_type"`
	TransactionID string         `json:"transaction_id"`
	UserID        string         `json:"user_id"`
	Status        Status         `json:"status"`
	Details       map[string]any `json:"details,omitempty"`
	PolicyVersion string         `json:"policy_version"`
}

// Filter selects entries in queries. Zero fields match everything.
type Filter struct {
	TransactionID string
	UserID        string
	EventType     EventType
	Status        Status
	Since         time.Time
	Until         time.Time

	// Limit caps the result size; zero means unlimited.
	Limit int
}

// Matches reports whether e passes the filter (ignoring Limit).
func (f Filter) Matches(e Entry) bool {
	if f.TransactionID != "" && e.TransactionID != f.TransactionID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
