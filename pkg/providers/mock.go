package providers

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockProvider is an in-process Provider. With no Response or Reply it echoes
// the last user message back, which is what `guardian run --mock-upstream`
// serves.
type MockProvider struct {
	// Response is returned verbatim when set.
	Response *CompletionResponse

	// Reply, when set, computes the response content from the request.
	Reply func(req *CompletionRequest) string

	// Err is returned instead of a response when set.
	Err error

	// Delay is waited (honouring ctx) before answering.
	Delay time.Duration

	mu    sync.Mutex
	calls []*CompletionRequest
}

// NewEchoProvider returns a mock that echoes the last user message.
func NewEchoProvider() *MockProvider {
	return &MockProvider{}
}

// SendCompletion records req and answers per the mock's configuration.
func (m *MockProvider) SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, &TimeoutError{Provider: m.Name(), Cause: ctx.Err()}
			}
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		resp := *m.Response
		return &resp, nil
	}

	content := lastUserMessage(req)
	if m.Reply != nil {
		content = m.Reply(req)
	}
	return &CompletionResponse{
		ID:           "mock-" + req.Model,
		Model:        req.Model,
		Content:      content,
		FinishReason: "stop",
		Usage: TokenUsage{
			PromptTokens:     len(strings.Fields(lastUserMessage(req))),
			CompletionTokens: len(strings.Fields(content)),
			TotalTokens:      len(strings.Fields(lastUserMessage(req))) + len(strings.Fields(content)),
		},
	}, nil
}

// Calls returns the requests received so far.
func (m *MockProvider) Calls() []*CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*CompletionRequest(nil), m.calls...)
}

// CallCount returns the number of requests received so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Close() error { return nil }

func lastUserMessage(req *CompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

var _ Provider = (*MockProvider)(nil)
