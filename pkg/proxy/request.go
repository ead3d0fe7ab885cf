package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mercator-hq/guardian/pkg/pipeline"
	"mercator-hq/guardian/pkg/providers"
	"mercator-hq/guardian/pkg/proxy/types"
)

const (
	// DefaultMaxBodyBytes caps request bodies when no limit is configured.
	DefaultMaxBodyBytes = 1 << 20

	// UserIDHeader identifies the caller. It overrides the body's user field.
	UserIDHeader = "X-User-ID"

	// TransactionIDHeader is set on every chat completion response.
	TransactionIDHeader = "X-Transaction-ID"
)

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
	Status  int
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an OpenAI-compatible error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}

// ParseChatCompletionRequest decodes and validates a chat completion body.
// Bodies over maxBytes are rejected with 413.
func ParseChatCompletionRequest(r *http.Request, maxBytes int64) (*types.ChatCompletionRequest, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLargeError(tooLarge.Limit)
		}
		return nil, &RequestError{Message: "failed to read request body", Code: types.CodeInvalidValue, Param: "body", Status: http.StatusBadRequest}
	}
	if int64(len(body)) > maxBytes {
		return nil, tooLargeError(maxBytes)
	}

	var req types.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("invalid JSON: %v", err), Code: types.CodeInvalidJSON, Param: "body", Status: http.StatusBadRequest}
	}

	if err := req.Validate(); err != nil {
		var valErr *types.ValidationError
		if errors.As(err, &valErr) {
			return nil, &RequestError{Message: valErr.Message, Code: types.CodeInvalidValue, Param: valErr.Field, Status: http.StatusBadRequest}
		}
		return nil, err
	}
	return &req, nil
}

func tooLargeError(limit int64) *RequestError {
	return &RequestError{
		Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", limit),
		Code:    types.CodeRequestTooLarge,
		Param:   "body",
		Status:  http.StatusRequestEntityTooLarge,
	}
}

// ExtractUserID returns the X-User-ID header, or fallback when it is absent.
func ExtractUserID(r *http.Request, fallback string) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id
	}
	return fallback
}

// ToPipelineRequest converts a validated wire request into the pipeline's
// request. Message content is flattened to text.
func ToPipelineRequest(req *types.ChatCompletionRequest, userID string) pipeline.Request {
	msgs := make([]providers.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		text, _ := m.Text() // validated already
		msgs = append(msgs, providers.Message{Role: m.Role, Content: text, Name: m.Name})
	}
	return pipeline.Request{
		UserID:   userID,
		Model:    req.Model,
		Messages: msgs,
		Params: pipeline.Params{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			TopP:        req.TopP,
			Stop:        req.Stop,
		},
	}
}
