package audit

import (
	"context"
	"errors"
	"log/slog"
)

// Store persists audit entries. Append is called from a single goroutine by
// Log, but implementations must still be safe for concurrent use since
// queries may run alongside.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Querier is implemented by stores that can answer filtered reads.
type Querier interface {
	Query(ctx context.Context, f Filter) ([]Entry, error)
}

// MultiStore writes to a primary store and any number of mirrors. Only the
// primary determines success; mirror failures are logged and reported to
// OnMirrorError.
type MultiStore struct {
	primary Store
	mirrors []Store
	logger  *slog.Logger

	// OnMirrorError, if set, is called for every failed mirror write.
	OnMirrorError func(backend string, err error)
}

// NewMultiStore creates a fan-out store.
func NewMultiStore(primary Store, mirrors ...Store) *MultiStore {
	return &MultiStore{
		primary: primary,
		mirrors: mirrors,
		logger:  slog.Default().With("component", "audit.multistore"),
	}
}

// Append writes to the primary store first, then to each mirror.
func (m *MultiStore) Append(ctx context.Context, e Entry) error {
	if err := m.primary.Append(ctx, e); err != nil {
		return err
	}
	for _, mirror := range m.mirrors {
		if err := mirror.Append(ctx, e); err != nil {
			backend := backendName(mirror)
			m.logger.Error("audit mirror write failed",
				"backend", backend,
				"transaction_id", e.TransactionID,
				"error", err,
			)
			if m.OnMirrorError != nil {
				m.OnMirrorError(backend, err)
			}
		}
	}
	return nil
}

// Query delegates to the first store (primary, then mirrors) that supports
// queries.
func (m *MultiStore) Query(ctx context.Context, f Filter) ([]Entry, error) {
	for _, s := range append([]Store{m.primary}, m.mirrors...) {
		if q, ok := s.(Querier); ok {
			return q.Query(ctx, f)
		}
	}
	return nil, NewStoreError("multi", "query", errors.New("no queryable store configured"))
}

// Close closes every store and returns the joined errors.
func (m *MultiStore) Close() error {
	errs := []error{m.primary.Close()}
	for _, mirror := range m.mirrors {
		errs = append(errs, mirror.Close())
	}
	return errors.Join(errs...)
}

type named interface {
	Backend() string
}

func backendName(s Store) string {
	if n, ok := s.(named); ok {
		return n.Backend()
	}
	return "unknown"
}
