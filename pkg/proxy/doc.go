// Package proxy is the OpenAI-compatible ingress of Guardian.
//
// It turns HTTP requests into pipeline requests and pipeline outcomes back
// into HTTP responses:
//
//   - ParseChatCompletionRequest decodes and validates the body, capped at a
//     configured size
//   - ExtractUserID applies the X-User-ID header over the body's user field
//   - WriteOutcome renders a delivered completion, or an error envelope for
//     blocks (403, type "policy_violation") and upstream failures (502, 504,
//     or 499 when the caller went away)
//
// Subpackages:
//
//   - handlers: the /v1/chat/completions handler
//   - middleware: request IDs, access logging, panic recovery, body limits
//   - types: wire types
//
// Every response carries X-Request-ID; chat responses also carry
// X-Transaction-ID, which keys the audit trail.
package proxy
