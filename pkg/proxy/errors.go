package proxy

import (
	"errors"

	"mercator-hq/guardian/pkg/pipeline"
	"mercator-hq/guardian/pkg/proxy/types"
)

// OutcomeError converts a non-delivered outcome into an OpenAI-compatible
// error envelope. Messages are fixed strings: neither matched text nor raw
// upstream errors reach the caller.
func OutcomeError(out pipeline.Outcome) *types.ErrorResponse {
	var blockErr *pipeline.BlockError
	if errors.As(out.Err, &blockErr) {
		msg := "The request was blocked by the data protection policy."
		if blockErr.Code() == types.CodeOutputBlocked {
			msg = "The response was blocked by the data protection policy."
		}
		return types.NewPolicyViolationError(msg, blockErr.Code(), out.TransactionID)
	}

	var upErr *pipeline.UpstreamError
	if errors.As(out.Err, &upErr) {
		var resp *types.ErrorResponse
		switch {
		case upErr.Canceled:
			resp = types.NewErrorResponse("The request was canceled.", types.ErrorTypeClientClosed, "", types.CodeCanceled)
		case upErr.Timeout:
			resp = types.NewErrorResponse("The upstream model did not respond in time.", types.ErrorTypeGatewayTimeout, "", types.CodeUpstreamTimeout)
		default:
			resp = types.NewErrorResponse("The upstream model request failed.", types.ErrorTypeBadGateway, "", types.CodeUpstreamError)
		}
		resp.Error.TransactionID = out.TransactionID
		return resp
	}

	resp := types.NewServerError("An internal error occurred. Please try again later.")
	resp.Error.TransactionID = out.TransactionID
	return resp
}
