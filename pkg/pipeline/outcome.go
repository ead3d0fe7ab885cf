package pipeline

import (
	"net/http"

	"mercator-hq/guardian/pkg/providers"
	"mercator-hq/guardian/pkg/scan"
)

// OutcomeStatus classifies how a transaction ended.
type OutcomeStatus string

const (
	OutcomeBlockedInput  OutcomeStatus = "BLOCKED_INPUT"
	OutcomeBlockedOutput OutcomeStatus = "BLOCKED_OUTPUT"
	OutcomeUpstreamError OutcomeStatus = "UPSTREAM_ERROR"
	OutcomeDelivered     OutcomeStatus = "DELIVERED"
)

// StatusClientClosedRequest is the non-standard status used when the caller
// went away before the transaction finished.
const StatusClientClosedRequest = 499

// Outcome is what the transport layer needs to answer the caller.
type Outcome struct {
	Status        OutcomeStatus
	HTTPStatus    int
	TransactionID string

	// Completion is the sanitized completion; empty unless delivered.
	Completion string

	// Response carries upstream metadata (id, usage) for delivered outcomes.
	// Its Content is the raw completion and must not be returned to callers.
	Response *providers.CompletionResponse

	// Err is a *BlockError or *UpstreamError for non-delivered outcomes.
	Err error

	Violations []scan.Violation

	// Transaction is the final record, for tests and diagnostics.
	Transaction *Transaction
}

// Delivered reports whether a completion is returned to the caller.
func (o Outcome) Delivered() bool {
	return o.Status == OutcomeDelivered
}

func blockedOutcome(tx *Transaction, phase scan.Phase, res *scan.Result, reason string) Outcome {
	status := OutcomeBlockedInput
	if phase == scan.PhaseOutput {
		status = OutcomeBlockedOutput
	}
	var violations []scan.Violation
	if res != nil {
		violations = res.Violations
	}
	return Outcome{
		Status:        status,
		HTTPStatus:    http.StatusForbidden,
		TransactionID: tx.ID,
		Err:           &BlockError{Phase: phase, Reason: reason},
		Violations:    violations,
		Transaction:   tx,
	}
}

func upstreamOutcome(tx *Transaction, err *UpstreamError, violations []scan.Violation) Outcome {
	code := http.StatusBadGateway
	switch {
	case err.Canceled:
		code = StatusClientClosedRequest
	case err.Timeout:
		code = http.StatusGatewayTimeout
	}
	return Outcome{
		Status:        OutcomeUpstreamError,
		HTTPStatus:    code,
		TransactionID: tx.ID,
		Err:           err,
		Violations:    violations,
		Transaction:   tx,
	}
}
