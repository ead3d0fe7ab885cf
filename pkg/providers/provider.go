package providers

import "context"

// Provider is the upstream model collaborator. Implementations own transport
// concerns: timeouts, authentication and transport-level retries.
type Provider interface {
	// SendCompletion sends a non-streaming completion request. Failures are
	// returned as one of the typed errors in this package.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the configured provider name.
	Name() string

	// Close releases idle connections.
	Close() error
}
