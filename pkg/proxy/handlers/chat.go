package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/guardian/pkg/pipeline"
	"mercator-hq/guardian/pkg/proxy"
	"mercator-hq/guardian/pkg/proxy/types"
	"mercator-hq/guardian/pkg/telemetry/logging"
)

// Transactions runs one chat transaction. *pipeline.Pipeline implements it.
type Transactions interface {
	Handle(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// ChatHandler serves POST /v1/chat/completions.
type ChatHandler struct {
	transactions Transactions
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewChatHandler creates a chat completions handler. maxBodyBytes <= 0
// uses proxy.DefaultMaxBodyBytes.
func NewChatHandler(t Transactions, maxBodyBytes int64) *ChatHandler {
	return &ChatHandler{
		transactions: t,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "proxy.chat"),
	}
}

// ServeHTTP parses the request, runs the transaction and renders its outcome.
// The request context is passed through, so a client disconnect abandons
// the transaction.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		proxy.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			types.NewInvalidRequestError("only POST is supported", "", types.CodeMethodNotAllowed))
		return
	}

	req, err := proxy.ParseChatCompletionRequest(r, h.maxBodyBytes)
	if err != nil {
		var reqErr *proxy.RequestError
		if errors.As(err, &reqErr) {
			h.logger.DebugContext(r.Context(), "rejected request", "param", reqErr.Param, "code", reqErr.Code)
			proxy.WriteErrorResponse(w, reqErr.Status, reqErr.ToErrorResponse())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to parse request", "error", err)
		proxy.WriteErrorResponse(w, http.StatusInternalServerError, types.NewServerError("An internal error occurred. Please try again later."))
		return
	}

	userID := proxy.ExtractUserID(r, req.User)
	ctx := logging.WithUserID(r.Context(), userID)

	out := h.transactions.Handle(ctx, proxy.ToPipelineRequest(req, userID))
	proxy.WriteOutcome(w, out, req.Model)
}
