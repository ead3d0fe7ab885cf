package pipeline

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/guardian/pkg/providers"
	"mercator-hq/guardian/pkg/scan"
)

// BlockError reports a policy rejection.
type BlockError struct {
	Phase scan.Phase

	// Reason is a summary without matched text, e.g. "ssn(BLOCK)".
	Reason string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%s blocked by policy: %s", e.Phase, e.Reason)
}

// Code is the error code used in API error envelopes.
func (e *BlockError) Code() string {
	if e.Phase == scan.PhaseOutput {
		return "output_blocked"
	}
	return "input_blocked"
}

// UpstreamError reports a failed upstream call or a transaction abandoned
// by the caller.
type UpstreamError struct {
	Timeout  bool
	Canceled bool
	Err      error
}

// NewUpstreamError classifies err.
func NewUpstreamError(err error) *UpstreamError {
	var timeout *providers.TimeoutError
	return &UpstreamError{
		Timeout:  errors.As(err, &timeout) || errors.Is(err, context.DeadlineExceeded),
		Canceled: errors.Is(err, context.Canceled),
		Err:      err,
	}
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Canceled:
		return "request canceled by caller"
	case e.Timeout:
		return fmt.Sprintf("upstream timeout: %v", e.Err)
	default:
		return fmt.Sprintf("upstream error: %v", e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
