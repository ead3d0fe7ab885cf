package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// TransactionIDKey is the context key for pipeline transaction IDs.
	TransactionIDKey contextKey = "transaction_id"

	// UserIDKey is the context key for caller identities.
	UserIDKey contextKey = "user_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithTransactionID adds a transaction ID to the context.
func WithTransactionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TransactionIDKey, id)
}

// GetTransactionID retrieves the transaction ID from the context.
func GetTransactionID(ctx context.Context) string {
	v, _ := ctx.Value(TransactionIDKey).(string)
	return v
}

// WithUserID adds a user identifier to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID retrieves the user identifier from the context.
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

// Fields returns the context's log fields as slog key/value pairs.
func Fields(ctx context.Context) []any {
	var fields []any
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, string(RequestIDKey), id)
	}
	if id := GetTransactionID(ctx); id != "" {
		fields = append(fields, string(TransactionIDKey), id)
	}
	if id := GetUserID(ctx); id != "" {
		fields = append(fields, string(UserIDKey), id)
	}
	return fields
}

// FromContext returns the default logger enriched with the context's fields.
func FromContext(ctx context.Context) *slog.Logger {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return slog.Default()
	}
	return slog.Default().With(fields...)
}

// contextHandler adds context fields to records logged with *Context methods.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetRequestID(ctx); id != "" {
		r.AddAttrs(slog.String(string(RequestIDKey), id))
	}
	if id := GetTransactionID(ctx); id != "" {
		r.AddAttrs(slog.String(string(TransactionIDKey), id))
	}
	if id := GetUserID(ctx); id != "" {
		r.AddAttrs(slog.String(string(UserIDKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
