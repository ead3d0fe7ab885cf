package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var csvHeader = []string{"timestamp", "event_type", "transaction_id", "user_id", "status", "policy_version", "details"}

// Export writes entries to w as JSON lines or CSV.
func Export(w io.Writer, entries []Entry, format string) error {
	switch format {
	case FormatJSON, "":
		return exportJSON(w, entries)
	case FormatCSV:
		return exportCSV(w, entries)
	default:
		return &ExportError{Format: format, Err: fmt.Errorf("unsupported format")}
	}
}

func exportJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	for i, e := range entries {
		if err := enc.Encode(e); err != nil {
			return &ExportError{Format: FormatJSON, Count: i, Err: err}
		}
	}
	return nil
}

func exportCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return &ExportError{Format: FormatCSV, Err: err}
	}
	for i, e := range entries {
		details, err := marshalDetails(e.Details)
		if err != nil {
			return &ExportError{Format: FormatCSV, Count: i, Err: err}
		}
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			string(e.EventType),
			e.TransactionID,
			e.UserID,
			string(e.Status),
			e.PolicyVersion,
			details,
		}
		if err := writer.Write(row); err != nil {
			return &ExportError{Format: FormatCSV, Count: i, Err: err}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: FormatCSV, Count: len(entries), Err: err}
	}
	return nil
}
