// Package types defines the OpenAI-compatible wire types served by the proxy.
//
// Request types:
//   - ChatCompletionRequest: body of POST /v1/chat/completions
//   - Message: one conversation message; Text flattens content parts
//
// Response types:
//   - ChatCompletionResponse, Choice, Usage
//
// Error types:
//   - ErrorResponse / ErrorDetail: the OpenAI error envelope. Policy blocks
//     use type "policy_violation" with code "input_blocked" or
//     "output_blocked" and carry the transaction ID.
package types
