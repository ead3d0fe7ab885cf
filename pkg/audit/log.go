package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config contains configuration for the audit log writer.
type Config struct {
	// QueueSize is the capacity of the writer queue.
	// Default: 1024
	QueueSize int

	// WriteTimeout bounds a single store append.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default audit log configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:    1024,
		WriteTimeout: 5 * time.Second,
	}
}

// Observer is notified after every append attempt.
type Observer interface {
	ObserveAuditWrite(e Entry, d time.Duration, err error)
}

type request struct {
	entry  Entry
	result chan error
}

// Log serializes appends from concurrent transactions through a single
// writer goroutine, so entries never interleave and keep submission order.
type Log struct {
	store    Store
	config   Config
	queue    chan request
	version  func() string
	observer Observer
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts a log writing to store. version, if non-nil, supplies the
// policy version for entries that do not carry one.
func New(store Store, config Config, version func() string) *Log {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	l := &Log{
		store:   store,
		config:  config,
		queue:   make(chan request, config.QueueSize),
		version: version,
		logger:  slog.Default().With("component", "audit"),
	}
	l.wg.Add(1)
	go l.worker()
	return l
}

// WithObserver sets the write observer. It must be called before the first
// Record.
func (l *Log) WithObserver(o Observer) *Log {
	l.observer = o
	return l
}

// Record appends e and waits until the store has accepted it. The caller's
// cancellation does not abandon an entry: a phase that completed is always
// recorded.
func (l *Log) Record(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.PolicyVersion == "" && l.version != nil {
		e.PolicyVersion = l.version()
	}

	req := request{entry: e, result: make(chan error, 1)}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	l.queue <- req
	l.mu.RUnlock()

	return <-req.result
}

// Close stops accepting entries, drains the queue and closes the store.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()
	return l.store.Close()
}

func (l *Log) worker() {
	defer l.wg.Done()
	for req := range l.queue {
		req.result <- l.write(req.entry)
	}
}

func (l *Log) write(e Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := l.store.Append(ctx, e)
	d := time.Since(start)

	if l.observer != nil {
		l.observer.ObserveAuditWrite(e, d, err)
	}
	if err != nil {
		l.logger.Error("audit append failed",
			"event_type", e.EventType,
			"transaction_id", e.TransactionID,
			"status", e.Status,
			"error", err,
		)
		return err
	}

	l.logger.Debug("audit entry recorded",
		"event_type", e.EventType,
		"transaction_id", e.TransactionID,
		"status", e.Status,
		"duration_ms", d.Milliseconds(),
	)
	return nil
}
