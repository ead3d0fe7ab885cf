package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Rotator rolls the JSONL file over on a cron schedule. Segments are renamed,
// never removed.
type Rotator struct {
	store    *JSONLStore
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRotator creates a rotator for store. schedule uses standard cron syntax,
// e.g. "0 0 * * *" for daily at midnight.
func NewRotator(store *JSONLStore, schedule string) *Rotator {
	return &Rotator{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "audit.rotator"),
	}
}

// Start schedules rotation and stops it when ctx is cancelled. An empty
// schedule disables rotation.
func (r *Rotator) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info("rotation schedule not configured, skipping")
		return nil
	}
	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}
	if _, err := r.cron.AddFunc(r.schedule, r.rotate); err != nil {
		return fmt.Errorf("failed to schedule rotation: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("audit rotation scheduled", "schedule", r.schedule, "path", r.store.Path())

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

func (r *Rotator) rotate() {
	segment, err := r.store.Rotate(time.Now())
	if err != nil {
		r.logger.Error("audit rotation failed", "error", err)
		return
	}
	r.logger.Info("audit log rotated", "segment", segment)
}

// Stop stops the scheduler and waits for a running rotation to finish.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("audit rotation stopped")
	}
}

// NextRun returns the next scheduled rotation, or nil when not scheduled.
func (r *Rotator) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
