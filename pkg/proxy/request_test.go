package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/guardian/pkg/pipeline"
	"mercator-hq/guardian/pkg/providers"
	"mercator-hq/guardian/pkg/proxy/types"
	"mercator-hq/guardian/pkg/scan"
)

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
}

func TestParseChatCompletionRequest(t *testing.T) {
	req, err := ParseChatCompletionRequest(newRequest(`{
		"model": "gpt-4o",
		"user": "body-user",
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": [{"type": "text", "text": "line one"}, {"type": "text", "text": "line two"}]}
		]
	}`), 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	preq := ToPipelineRequest(req, "alice")
	if preq.UserID != "alice" || preq.Model != "gpt-4o" || len(preq.Messages) != 2 {
		t.Fatalf("pipeline request = %+v", preq)
	}
	if got := preq.Messages[1].Content; got != "line one\nline two" {
		t.Errorf("flattened content = %q", got)
	}
}

func TestParseChatCompletionRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		limit  int64
		status int
		code   string
		param  string
	}{
		{"invalid json", `{"model":`, 0, http.StatusBadRequest, types.CodeInvalidJSON, "body"},
		{"streaming", `{"model":"m","stream":true,"messages":[{"role":"user","content":"hi"}]}`, 0, http.StatusBadRequest, types.CodeInvalidValue, "stream"},
		{"too large", `{"model":"m","messages":[{"role":"user","content":"` + strings.Repeat("a", 200) + `"}]}`, 64, http.StatusRequestEntityTooLarge, types.CodeRequestTooLarge, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChatCompletionRequest(newRequest(tt.body), tt.limit)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("err = %v, want *RequestError", err)
			}
			if reqErr.Status != tt.status || reqErr.Code != tt.code || reqErr.Param != tt.param {
				t.Errorf("got status=%d code=%s param=%s", reqErr.Status, reqErr.Code, reqErr.Param)
			}
		})
	}
}

func TestExtractUserID(t *testing.T) {
	r := newRequest("{}")
	if got := ExtractUserID(r, "fallback"); got != "fallback" {
		t.Errorf("no header: %q", got)
	}
	r.Header.Set(UserIDHeader, "  bob ")
	if got := ExtractUserID(r, "fallback"); got != "bob" {
		t.Errorf("header: %q", got)
	}
}

func TestFormatChatCompletionResponse_UsesSanitizedCompletion(t *testing.T) {
	out := pipeline.Outcome{
		Status:        pipeline.OutcomeDelivered,
		TransactionID: "tx-1",
		Completion:    "write to [EMAIL_REDACTED]",
		Response: &providers.CompletionResponse{
			Model:   "gpt-4o-2024",
			Content: "write to dave@example.com",
			Usage:   providers.TokenUsage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7},
		},
	}
	resp := FormatChatCompletionResponse(out, "gpt-4o", time.Unix(100, 0))

	if resp.ID != "chatcmpl-tx-1" || resp.Model != "gpt-4o-2024" || resp.Created != 100 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Choices[0].Message.Content != "write to [EMAIL_REDACTED]" {
		t.Errorf("content = %v", resp.Choices[0].Message.Content)
	}
	if resp.Choices[0].FinishReason != "stop" || resp.Usage.TotalTokens != 7 {
		t.Errorf("choice = %+v usage = %+v", resp.Choices[0], resp.Usage)
	}
}

func TestOutcomeError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType string
		code    string
	}{
		{"input block", &pipeline.BlockError{Phase: scan.PhaseInput, Reason: "ssn(BLOCK)"}, types.ErrorTypePolicyViolation, types.CodeInputBlocked},
		{"output block", &pipeline.BlockError{Phase: scan.PhaseOutput, Reason: "ssn(BLOCK)"}, types.ErrorTypePolicyViolation, types.CodeOutputBlocked},
		{"timeout", &pipeline.UpstreamError{Timeout: true}, types.ErrorTypeGatewayTimeout, types.CodeUpstreamTimeout},
		{"canceled", &pipeline.UpstreamError{Canceled: true}, types.ErrorTypeClientClosed, types.CodeCanceled},
		{"upstream", &pipeline.UpstreamError{Err: errors.New("502 from backend")}, types.ErrorTypeBadGateway, types.CodeUpstreamError},
		{"other", errors.New("boom"), types.ErrorTypeServerError, types.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := OutcomeError(pipeline.Outcome{TransactionID: "tx-9", Err: tt.err})
			if resp.Error.Type != tt.errType || resp.Error.Code != tt.code {
				t.Errorf("got type=%s code=%s", resp.Error.Type, resp.Error.Code)
			}
			if resp.Error.TransactionID != "tx-9" {
				t.Errorf("transaction id = %q", resp.Error.TransactionID)
			}
			if strings.Contains(resp.Error.Message, "ssn") || strings.Contains(resp.Error.Message, "502") {
				t.Errorf("message leaks internals: %q", resp.Error.Message)
			}
		})
	}
}
