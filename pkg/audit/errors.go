package audit

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Record after the log has been closed.
var ErrClosed = errors.New("audit log closed")

// StoreError represents an error from an audit store backend.
type StoreError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("audit store %s %s failed: %v", e.Backend, e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, err error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Err:       err,
	}
}

// ExportError represents an error while exporting entries.
type ExportError struct {
	Format string
	Count  int
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("audit export (%s) failed after %d entries: %v", e.Format, e.Count, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
