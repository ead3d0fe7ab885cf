package types

import (
	"fmt"
	"strings"
)

// ChatCompletionRequest represents an OpenAI-compatible chat completion request.
// Only the fields Guardian forwards are modelled; unknown fields are ignored.
type ChatCompletionRequest struct {
	// Model is the ID of the model to use (e.g., "gpt-4o").
	Model string `json:"model"`

	// Messages is the conversation history as a list of messages.
	Messages []Message `json:"messages"`

	// Temperature controls randomness in the response (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// Stop is a list of sequences where the API will stop generating tokens.
	// Maximum 4 sequences.
	Stop []string `json:"stop,omitempty"`

	// Stream requests server-sent events. Guardian must see the whole
	// completion before releasing it, so streaming is rejected.
	Stream bool `json:"stream,omitempty"`

	// User is a unique identifier for the end-user making the request.
	// The X-User-ID header takes precedence.
	User string `json:"user,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user", "assistant", or "tool").
	Role string `json:"role"`

	// Content is either a string or an array of content parts. Only text
	// parts are kept.
	Content any `json:"content"`

	// Name is the name of the author (optional).
	Name string `json:"name,omitempty"`
}

// Text flattens Content into a single string. Text parts of an array are
// joined with newlines; other part types are dropped.
func (m Message) Text() (string, error) {
	switch c := m.Content.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	case []any:
		var parts []string
		for i, raw := range c {
			part, ok := raw.(map[string]any)
			if !ok {
				return "", fmt.Errorf("content[%d] must be an object", i)
			}
			if part["type"] != "text" {
				continue
			}
			text, ok := part["text"].(string)
			if !ok {
				return "", fmt.Errorf("content[%d].text must be a string", i)
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, "\n"), nil
	default:
		return "", fmt.Errorf("content must be a string or an array of parts")
	}
}

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validRoles = map[string]bool{"system": true, "user": true, "assistant": true, "tool": true, "developer": true}

// Validate checks required fields and parameter ranges.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(r.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "messages must contain at least one message"}
	}
	if r.Stream {
		return &ValidationError{Field: "stream", Message: "streaming responses are not supported"}
	}
	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 2.0) {
		return &ValidationError{Field: "temperature", Message: "temperature must be between 0.0 and 2.0"}
	}
	if r.TopP != nil && (*r.TopP < 0.0 || *r.TopP > 1.0) {
		return &ValidationError{Field: "top_p", Message: "top_p must be between 0.0 and 1.0"}
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return &ValidationError{Field: "max_tokens", Message: "max_tokens must be greater than 0"}
	}
	if len(r.Stop) > 4 {
		return &ValidationError{Field: "stop", Message: "stop sequences must not exceed 4"}
	}
	for i, msg := range r.Messages {
		if !validRoles[msg.Role] {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("invalid role %q", msg.Role),
			}
		}
		if _, err := msg.Text(); err != nil {
			return &ValidationError{Field: fmt.Sprintf("messages[%d].content", i), Message: err.Error()}
		}
	}
	return nil
}
