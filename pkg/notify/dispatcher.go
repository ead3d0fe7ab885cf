package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is the payload sent to sinks when a transaction is blocked.
type Event struct {
	Summary       string `json:"summary"`
	Severity      string `json:"severity"`
	TransactionID string `json:"transaction_id"`

	// UserID is carried for logging only; it is not part of the sink payload.
	UserID string `json:"-"`
}

// Sink delivers events (webhook, log, etc.).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// Observer receives delivery outcomes, typically a metrics collector.
type Observer interface {
	ObserveNotification(sink, result string)
}

// Delivery results reported to the Observer.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)

// Notifier is what the pipeline depends on.
type Notifier interface {
	Notify(ctx context.Context, transactionID, userID, summary, severity string)
}

// Config controls queue and worker sizing.
type Config struct {
	// QueueSize is the number of pending events held before new ones are
	// dropped.
	// Default: 256
	QueueSize int

	// Workers is the number of delivery goroutines.
	// Default: 2
	Workers int

	// DeliveryTimeout bounds a single sink delivery.
	// Default: 5 seconds
	DeliveryTimeout time.Duration

	// ShutdownTimeout bounds how long Close waits for the queue to drain.
	// Default: 2 seconds
	ShutdownTimeout time.Duration
}

// Dispatcher delivers events to sinks on background workers. Notify never
// blocks; when the queue is full the event is dropped and counted.
type Dispatcher struct {
	queue    chan Event
	sinks    []Sink
	config   Config
	observer Observer
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers delivering to sinks. With no sinks it returns
// a dispatcher whose Notify is a no-op.
func NewDispatcher(cfg Config, sinks ...Sink) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 2 * time.Second
	}

	d := &Dispatcher{
		sinks:  sinks,
		config: cfg,
		logger: slog.Default().With("component", "notify"),
	}
	if len(sinks) == 0 {
		return d
	}

	d.queue = make(chan Event, cfg.QueueSize)
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// WithObserver sets the delivery observer. It must be called before the first
// Notify.
func (d *Dispatcher) WithObserver(o Observer) *Dispatcher {
	d.observer = o
	return d
}

// Notify enqueues an alert and returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, transactionID, userID, summary, severity string) {
	if d == nil || d.queue == nil {
		return
	}
	ev := Event{Summary: summary, Severity: severity, TransactionID: transactionID, UserID: userID}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.observe("queue", ResultDropped)
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("notification queue full, dropping event",
			"transaction_id", transactionID,
			"queue_size", d.config.QueueSize,
		)
		d.observe("queue", ResultDropped)
	}
}

// Close stops accepting events and waits up to ShutdownTimeout for pending
// deliveries.
func (d *Dispatcher) Close(ctx context.Context) {
	if d == nil || d.queue == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, d.config.ShutdownTimeout)
	defer cancel()
	select {
	case <-done:
	case <-waitCtx.Done():
		d.logger.Warn("notification queue not drained before shutdown")
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		for _, s := range d.sinks {
			d.deliver(s, ev)
		}
	}
}

func (d *Dispatcher) deliver(s Sink, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.DeliveryTimeout)
	defer cancel()

	if err := s.Deliver(ctx, ev); err != nil {
		d.logger.Error("notification delivery failed",
			"sink", s.Name(),
			"transaction_id", ev.TransactionID,
			"user_id", ev.UserID,
			"error", &DeliveryError{Sink: s.Name(), Err: err},
		)
		d.observe(s.Name(), ResultFailed)
		return
	}
	d.logger.Debug("notification delivered", "sink", s.Name(), "transaction_id", ev.TransactionID)
	d.observe(s.Name(), ResultDelivered)
}

func (d *Dispatcher) observe(sink, result string) {
	if d.observer != nil {
		d.observer.ObserveNotification(sink, result)
	}
}
