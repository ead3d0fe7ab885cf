package policy

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Load reads a snapshot from source. If the source fails, the fallback policy
// is returned together with a *LoadFailure so callers can tell which path was
// taken. The returned snapshot is never nil.
func Load(ctx context.Context, source Source) (*Snapshot, error) {
	snap, err := source.Load(ctx)
	if err != nil {
		return Fallback(), NewLoadFailure(source.Name(), err)
	}
	return snap, nil
}

// Store holds the active policy snapshot. Reads are lock-free; loads replace
// the snapshot atomically.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
}

// NewStore creates a store serving the fallback policy until Load is called.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default().With("component", "policy")
	}
	s := &Store{logger: logger}
	s.current.Store(Fallback())
	return s
}

// NewStoreWith creates a store serving snap.
func NewStoreWith(snap *Snapshot) *Store {
	s := &Store{logger: slog.Default().With("component", "policy")}
	s.current.Store(snap)
	return s
}

// Snapshot returns the active policy.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Load installs the policy from source, or the fallback policy if the source
// fails. The store always ends up with a usable snapshot.
func (s *Store) Load(ctx context.Context, source Source) error {
	snap, err := Load(ctx, source)
	s.current.Store(snap)
	if err != nil {
		s.logger.Warn("policy load failed, fallback policy active",
			"source", source.Name(),
			"error", err,
		)
		return err
	}
	s.logger.Info("policy loaded",
		"source", source.Name(),
		"version", snap.Version,
		"mode", snap.Settings.EnforcementMode,
		"rules", len(snap.rules),
	)
	return nil
}

// Reload replaces the snapshot only if source loads cleanly. On failure the
// last good snapshot stays active.
func (s *Store) Reload(ctx context.Context, source Source) error {
	snap, err := source.Load(ctx)
	if err != nil {
		s.logger.Error("policy reload failed, keeping last good policy",
			"source", source.Name(),
			"version", s.Snapshot().Version,
			"error", err,
		)
		return err
	}
	prev := s.current.Swap(snap)
	s.logger.Info("policy reloaded",
		"source", source.Name(),
		"previous_version", prev.Version,
		"version", snap.Version,
	)
	return nil
}
