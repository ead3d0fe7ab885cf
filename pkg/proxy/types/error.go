package types

// ErrorResponse represents an OpenAI-compatible error response.
// Every non-2xx answer uses it so that OpenAI SDKs surface the message.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message. It never carries matched
	// sensitive text or raw upstream errors.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// TransactionID correlates the error with the audit trail.
	TransactionID string `json:"transaction_id,omitempty"`
}

// Error type constants.
const (
	ErrorTypeInvalidRequest  = "invalid_request_error"
	ErrorTypePolicyViolation = "policy_violation"
	ErrorTypeServerError     = "server_error"
	ErrorTypeBadGateway      = "bad_gateway"
	ErrorTypeGatewayTimeout  = "gateway_timeout"
	ErrorTypeClientClosed    = "client_closed_request"
)

// Error code constants for common error scenarios.
const (
	CodeInvalidValue     = "invalid_value"
	CodeInvalidJSON      = "invalid_json"
	CodeRequestTooLarge  = "request_too_large"
	CodeInputBlocked     = "input_blocked"
	CodeOutputBlocked    = "output_blocked"
	CodeUpstreamError    = "upstream_error"
	CodeUpstreamTimeout  = "upstream_timeout"
	CodeCanceled         = "canceled"
	CodeInternalError    = "internal_error"
	CodeMethodNotAllowed = "method_not_allowed"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewPolicyViolationError creates an error response for a blocked
// transaction (403). code is CodeInputBlocked or CodeOutputBlocked.
func NewPolicyViolationError(message, code, transactionID string) *ErrorResponse {
	resp := NewErrorResponse(message, ErrorTypePolicyViolation, "", code)
	resp.Error.TransactionID = transactionID
	return resp
}
