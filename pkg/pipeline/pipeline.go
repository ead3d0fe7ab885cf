package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/notify"
	"mercator-hq/guardian/pkg/policy"
	"mercator-hq/guardian/pkg/providers"
	"mercator-hq/guardian/pkg/scan"
)

// DefaultUpstreamTimeout bounds the upstream call when Config leaves it unset.
const DefaultUpstreamTimeout = 30 * time.Second

// Scanner is the scan engine as seen by the pipeline.
type Scanner interface {
	Scan(text string, phase scan.Phase) *scan.Result
}

// Recorder appends audit entries. *audit.Log implements it.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Observer receives per-transaction measurements.
type Observer interface {
	ObserveTransaction(outcome string, d time.Duration)
	ObserveUpstream(d time.Duration, err error)
}

// Params are generation parameters forwarded upstream untouched.
type Params struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	Stop        []string
}

// Request is one inbound chat completion. Only the content of the last
// message is scanned; earlier messages and Params pass through.
type Request struct {
	UserID   string
	Model    string
	Messages []providers.Message
	Params   Params
}

// Config holds pipeline tunables.
type Config struct {
	UpstreamTimeout time.Duration
}

// Pipeline drives each request through input scan, upstream call and output
// scan, writing one audit entry per phase outcome.
type Pipeline struct {
	scanner  Scanner
	policies scan.PolicyProvider
	upstream providers.Provider
	recorder Recorder
	notifier notify.Notifier
	observer Observer
	tracer   trace.Tracer
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a pipeline. Notifications default to a no-op dispatcher and
// spans go to the global tracer provider.
func New(scanner Scanner, policies scan.PolicyProvider, upstream providers.Provider, recorder Recorder, cfg Config) *Pipeline {
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = DefaultUpstreamTimeout
	}
	return &Pipeline{
		scanner:  scanner,
		policies: policies,
		upstream: upstream,
		recorder: recorder,
		notifier: notify.NewDispatcher(notify.Config{}),
		tracer:   otel.Tracer("guardian/pipeline"),
		timeout:  cfg.UpstreamTimeout,
		logger:   slog.Default().With("component", "pipeline"),
	}
}

// WithNotifier sets the block notification target.
func (p *Pipeline) WithNotifier(n notify.Notifier) *Pipeline {
	if n != nil {
		p.notifier = n
	}
	return p
}

// WithObserver sets the metrics observer.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// WithTracer overrides the tracer.
func (p *Pipeline) WithTracer(t trace.Tracer) *Pipeline {
	if t != nil {
		p.tracer = t
	}
	return p
}

// Handle runs one transaction to a terminal state. It never returns a raw
// upstream completion that failed the output scan.
func (p *Pipeline) Handle(ctx context.Context, req Request) Outcome {
	start := time.Now()
	tx := newTransaction(uuid.NewString(), req.UserID, req.Model, lastContent(req.Messages))

	ctx, span := p.tracer.Start(ctx, "pipeline.handle", trace.WithAttributes(
		attribute.String("guardian.transaction_id", tx.ID),
		attribute.String("guardian.model", tx.Model),
	))
	defer span.End()

	logger := p.logger.With("transaction_id", tx.ID, "user_id", tx.UserID, "model", tx.Model)
	out := p.run(ctx, tx, req, logger)

	span.SetAttributes(attribute.String("guardian.outcome", string(out.Status)))
	if out.Status == OutcomeUpstreamError {
		span.SetStatus(codes.Error, out.Err.Error())
	}
	d := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveTransaction(string(out.Status), d)
	}
	logger.Info("transaction finished",
		"outcome", out.Status,
		"http_status", out.HTTPStatus,
		"policy_version", tx.PolicyVersion,
		"duration_ms", d.Milliseconds(),
	)
	return out
}

func (p *Pipeline) run(ctx context.Context, tx *Transaction, req Request, logger *slog.Logger) Outcome {
	tx.advance(StateInputScanning)

	snap := p.policies.Snapshot()
	tx.PolicyVersion = snap.Version
	if !snap.ModelAllowed(req.Model) {
		p.record(ctx, tx, audit.EventInputScan, audit.StatusBlocked, snap.Version, map[string]any{
			"reason": "model not allowed",
			"model":  req.Model,
		}, logger)
		tx.advance(StateBlocked)
		tx.Status = TxInputBlocked
		p.notifier.Notify(ctx, tx.ID, tx.UserID, "model not allowed: "+req.Model, string(policy.SensitivityHigh))
		return blockedOutcome(tx, scan.PhaseInput, nil, "model not allowed")
	}

	in := p.scan(ctx, "pipeline.input_scan", tx.OriginalPrompt, scan.PhaseInput)
	tx.PolicyVersion = in.PolicyVersion
	if in.Blocked() {
		p.record(ctx, tx, audit.EventInputScan, audit.StatusBlocked, in.PolicyVersion, scanDetails(in), logger)
		tx.advance(StateBlocked)
		tx.Status = TxInputBlocked
		p.notifier.Notify(ctx, tx.ID, tx.UserID, in.Summary(), string(in.Severity()))
		return blockedOutcome(tx, scan.PhaseInput, in, in.Summary())
	}
	p.record(ctx, tx, audit.EventInputScan, auditStatus(in), in.PolicyVersion, scanDetails(in), logger)
	tx.SanitizedPrompt = in.Sanitized

	if err := ctx.Err(); err != nil {
		return p.fail(ctx, tx, NewUpstreamError(err), in.Violations, logger)
	}

	tx.advance(StateUpstreamCalling)
	resp, err := p.callUpstream(ctx, tx, req)
	if err != nil {
		return p.fail(ctx, tx, err, in.Violations, logger)
	}
	tx.RawResponse = resp.Content

	tx.advance(StateOutputScanning)
	out := p.scan(ctx, "pipeline.output_scan", resp.Content, scan.PhaseOutput)
	violations := append(append([]scan.Violation(nil), in.Violations...), out.Violations...)
	if out.Blocked() {
		p.record(ctx, tx, audit.EventOutputScan, audit.StatusBlocked, out.PolicyVersion, scanDetails(out), logger)
		tx.advance(StateBlocked)
		tx.Status = TxOutputBlocked
		p.notifier.Notify(ctx, tx.ID, tx.UserID, out.Summary(), string(out.Severity()))
		o := blockedOutcome(tx, scan.PhaseOutput, out, out.Summary())
		o.Violations = violations
		return o
	}
	p.record(ctx, tx, audit.EventOutputScan, auditStatus(out), out.PolicyVersion, scanDetails(out), logger)
	tx.SanitizedResponse = out.Sanitized

	tx.advance(StateDelivered)
	tx.Status = TxComplete
	p.record(ctx, tx, audit.EventTransactionComplete, audit.StatusSuccess, out.PolicyVersion, map[string]any{
		"input_status":  string(in.Status),
		"output_status": string(out.Status),
	}, logger)

	return Outcome{
		Status:        OutcomeDelivered,
		HTTPStatus:    http.StatusOK,
		TransactionID: tx.ID,
		Completion:    out.Sanitized,
		Response:      resp,
		Violations:    violations,
		Transaction:   tx,
	}
}

func (p *Pipeline) scan(ctx context.Context, spanName, text string, phase scan.Phase) *scan.Result {
	_, span := p.tracer.Start(ctx, spanName)
	defer span.End()

	res := p.scanner.Scan(text, phase)
	span.SetAttributes(
		attribute.String("guardian.scan.status", string(res.Status)),
		attribute.Int("guardian.scan.violations", len(res.Violations)),
		attribute.String("guardian.policy_version", res.PolicyVersion),
	)
	return res
}

// callUpstream forwards the sanitized prompt. No lock is held and no retry
// happens at this layer.
func (p *Pipeline) callUpstream(ctx context.Context, tx *Transaction, req Request) (*providers.CompletionResponse, *UpstreamError) {
	ctx, span := p.tracer.Start(ctx, "pipeline.upstream", trace.WithAttributes(
		attribute.String("guardian.provider", p.upstream.Name()),
	))
	defer span.End()

	creq := &providers.CompletionRequest{
		Model:       req.Model,
		Messages:    withLastContent(req.Messages, tx.SanitizedPrompt),
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
		TopP:        req.Params.TopP,
		Stop:        req.Params.Stop,
		User:        req.UserID,
	}

	uctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.upstream.SendCompletion(uctx, creq)
	if err == nil && resp == nil {
		err = errors.New("empty upstream response")
	}
	if p.observer != nil {
		p.observer.ObserveUpstream(time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream call failed")
		ue := NewUpstreamError(err)
		if errors.Is(ctx.Err(), context.Canceled) {
			ue.Canceled = true
		} else if errors.Is(uctx.Err(), context.DeadlineExceeded) {
			ue.Timeout = true
		}
		return nil, ue
	}
	span.SetAttributes(
		attribute.Int("guardian.tokens.prompt", resp.Usage.PromptTokens),
		attribute.Int("guardian.tokens.completion", resp.Usage.CompletionTokens),
	)
	return resp, nil
}

func (p *Pipeline) fail(ctx context.Context, tx *Transaction, err *UpstreamError, violations []scan.Violation, logger *slog.Logger) Outcome {
	details := map[string]any{"reason": failureReason(err)}
	var perr *providers.ProviderError
	if errors.As(err, &perr) && perr.StatusCode > 0 {
		details["upstream_status"] = perr.StatusCode
	}
	p.record(ctx, tx, audit.EventUpstreamCall, audit.StatusFailed, tx.PolicyVersion, details, logger)
	tx.advance(StateFailed)
	tx.Status = TxUpstreamFailed
	logger.Warn("upstream call failed", "reason", details["reason"], "error", err.Err)
	return upstreamOutcome(tx, err, violations)
}

// record writes an audit entry. A failed write is logged and counted by the
// audit log's observer; it does not change the transaction outcome.
func (p *Pipeline) record(ctx context.Context, tx *Transaction, event audit.EventType, status audit.Status, version string, details map[string]any, logger *slog.Logger) {
	err := p.recorder.Record(ctx, audit.Entry{
		EventType:     event,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Status:        status,
		Details:       details,
		PolicyVersion: version,
	})
	if err != nil {
		logger.Error("audit record failed", "event_type", event, "status", status, "error", err)
	}
}

func failureReason(err *UpstreamError) string {
	switch {
	case err.Canceled:
		return "canceled"
	case err.Timeout:
		return "timeout"
	default:
		return "upstream_error"
	}
}

func auditStatus(res *scan.Result) audit.Status {
	switch res.Status {
	case scan.StatusBlocked:
		return audit.StatusBlocked
	case scan.StatusRedacted:
		return audit.StatusRedacted
	default:
		return audit.StatusSafe
	}
}

// scanDetails summarises a scan for the audit trail. Matched text is never
// included.
func scanDetails(res *scan.Result) map[string]any {
	details := map[string]any{"violation_count": len(res.Violations)}
	if s := res.Summary(); s != "" {
		details["violations"] = s
	}
	if len(res.Faults) > 0 {
		names := make([]string, len(res.Faults))
		for i, f := range res.Faults {
			names[i] = f.Detector
		}
		details["faulted_detectors"] = names
	}
	return details
}

func lastContent(msgs []providers.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

func withLastContent(msgs []providers.Message, content string) []providers.Message {
	out := append([]providers.Message(nil), msgs...)
	if len(out) > 0 {
		out[len(out)-1].Content = content
	}
	return out
}
