package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/guardian/pkg/pipeline"
	"mercator-hq/guardian/pkg/proxy/types"
)

// FormatChatCompletionResponse renders a delivered outcome. The completion
// is the sanitized text; the raw upstream content is never used.
func FormatChatCompletionResponse(out pipeline.Outcome, requestedModel string, now time.Time) *types.ChatCompletionResponse {
	resp := &types.ChatCompletionResponse{
		ID:      "chatcmpl-" + out.TransactionID,
		Object:  types.ObjectChatCompletion,
		Created: now.Unix(),
		Model:   requestedModel,
		Choices: []types.Choice{{
			Index:        0,
			Message:      types.ResponseMessage{Role: "assistant", Content: out.Completion},
			FinishReason: "stop",
		}},
	}
	if up := out.Response; up != nil {
		if up.Model != "" {
			resp.Model = up.Model
		}
		if up.FinishReason != "" {
			resp.Choices[0].FinishReason = up.FinishReason
		}
		resp.Usage = types.Usage{
			PromptTokens:     up.Usage.PromptTokens,
			CompletionTokens: up.Usage.CompletionTokens,
			TotalTokens:      up.Usage.TotalTokens,
		}
	}
	return resp
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().With("component", "proxy").Debug("failed to write response", "error", err)
	}
}

// WriteErrorResponse writes an error envelope with the given status code.
func WriteErrorResponse(w http.ResponseWriter, status int, errResp *types.ErrorResponse) {
	WriteJSON(w, status, errResp)
}

// WriteOutcome answers the caller for a finished transaction.
func WriteOutcome(w http.ResponseWriter, out pipeline.Outcome, requestedModel string) {
	if out.TransactionID != "" {
		w.Header().Set(TransactionIDHeader, out.TransactionID)
	}
	if out.Delivered() {
		WriteJSON(w, http.StatusOK, FormatChatCompletionResponse(out, requestedModel, time.Now()))
		return
	}
	WriteErrorResponse(w, out.HTTPStatus, OutcomeError(out))
}
