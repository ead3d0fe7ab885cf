package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/config"
	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/notify"
	"mercator-hq/guardian/pkg/pipeline"
	"mercator-hq/guardian/pkg/policy"
	"mercator-hq/guardian/pkg/providers"
	"mercator-hq/guardian/pkg/providers/openai"
	"mercator-hq/guardian/pkg/proxy/handlers"
	"mercator-hq/guardian/pkg/scan"
	"mercator-hq/guardian/pkg/server"
	"mercator-hq/guardian/pkg/telemetry/health"
	"mercator-hq/guardian/pkg/telemetry/metrics"
	"mercator-hq/guardian/pkg/telemetry/tracing"
)

// app is the fully wired proxy. close releases everything in reverse
// construction order.
type app struct {
	server   *server.Server
	policies *policy.Store
	audit    *audit.Log
	closers  []func(context.Context) error
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close runs the registered closers in reverse order and joins their errors.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newApp builds every component from cfg. On error, whatever was already
// opened is closed before returning.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.close(context.Background())
		}
	}()
	logger := slog.Default().With("component", "app")

	// Tracing
	tracer, err := tracing.New(tracing.Config{
		Enabled:     cfg.Telemetry.Tracing.Enabled,
		ServiceName: "guardian",
		Version:     Version,
		Endpoint:    cfg.Telemetry.Tracing.Endpoint,
		Insecure:    cfg.Telemetry.Tracing.Insecure,
		Sampler:     cfg.Telemetry.Tracing.Sampler,
		SampleRatio: cfg.Telemetry.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.onClose(tracer.Shutdown)

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewCollector(metrics.Config{}, registry)
	}

	// Policy
	registry := detect.MustBuiltin()
	a.policies = policy.NewStore(nil)
	var source *policy.FileSource
	if cfg.Policy.FilePath != "" {
		source = policy.NewFileSource(cfg.Policy.FilePath)
		// A failed load leaves the fallback policy active; health reports it.
		_ = a.policies.Load(ctx, source)
		if unknown := a.policies.Snapshot().UnknownDetectors(registry.Names()); len(unknown) > 0 {
			logger.Warn("policy names unknown detectors", "detectors", unknown)
		}
	} else {
		logger.Warn("no policy file configured, fallback policy active")
	}
	if collector != nil {
		collector.SetPolicyFallback(a.policies.Snapshot().Version == policy.FallbackVersion)
	}

	engine := scan.NewEngine(registry, a.policies)
	if collector != nil {
		engine.WithObserver(collector)
	}

	// Audit
	store, rotator, err := openAuditStore(cfg.Audit, collector)
	if err != nil {
		return nil, err
	}
	a.audit = audit.New(store, audit.Config{
		QueueSize:    cfg.Audit.QueueSize,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, func() string { return a.policies.Snapshot().Version })
	if collector != nil {
		a.audit.WithObserver(collector)
	}
	a.onClose(func(context.Context) error { return a.audit.Close() })

	// Notifications
	var sinks []notify.Sink
	if cfg.Notify.WebhookURL != "" {
		sink, err := notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.Headers, &http.Client{Timeout: cfg.Notify.Timeout})
		if err != nil {
			return nil, fmt.Errorf("notify: %w", err)
		}
		sinks = append(sinks, sink)
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		QueueSize:       cfg.Notify.QueueSize,
		Workers:         cfg.Notify.Workers,
		DeliveryTimeout: cfg.Notify.Timeout,
	}, sinks...)
	if collector != nil {
		dispatcher.WithObserver(collector)
	}
	a.onClose(func(ctx context.Context) error {
		dispatcher.Close(ctx)
		return nil
	})

	// Upstream
	upstream, err := newUpstream(cfg.Upstream)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return upstream.Close() })

	p := pipeline.New(engine, a.policies, upstream, a.audit, pipeline.Config{
		UpstreamTimeout: cfg.Upstream.Timeout,
	}).WithNotifier(dispatcher).WithTracer(tracer.Tracer())
	if collector != nil {
		p.WithObserver(collector)
	}

	// Health
	checker := health.New(Version, 0)
	checker.RegisterCheck("policy", func(context.Context) error {
		if source != nil && a.policies.Snapshot().Version == policy.FallbackVersion {
			return errors.New("fallback policy active")
		}
		return nil
	})
	checker.RegisterCheck("detectors", func(context.Context) error {
		if faults := registry.Faults(); len(faults) > 0 {
			return fmt.Errorf("%d detectors failed to compile", len(faults))
		}
		return nil
	})
	if q, ok := store.(audit.Querier); ok && cfg.Audit.SQLite.Enabled {
		checker.RegisterCheck("audit", func(ctx context.Context) error {
			_, err := q.Query(ctx, audit.Filter{Limit: 1})
			return err
		})
	}

	routes := server.Routes{
		Chat:        handlers.NewChatHandler(p, cfg.Proxy.MaxBodyBytes),
		Health:      checker.Handler(),
		MetricsPath: cfg.Telemetry.Metrics.Path,
	}
	if collector != nil {
		routes.Metrics = collector.Handler()
	}
	a.server = server.New(cfg.Proxy, routes)

	// Background tasks
	if cfg.Policy.Watch && source != nil {
		watcher, err := policy.NewWatcher(a.policies, source, cfg.Policy.Debounce)
		if err != nil {
			return nil, err
		}
		watcher.OnReload = func(err error) {
			if collector != nil {
				collector.ObservePolicyReload(err)
				collector.SetPolicyFallback(a.policies.Snapshot().Version == policy.FallbackVersion)
			}
		}
		a.server.AddTask("policy-watcher", watcher.Run)
	}
	if rotator != nil {
		a.server.AddTask("audit-rotation", func(ctx context.Context) error {
			if err := rotator.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			rotator.Stop()
			return nil
		})
	}

	logger.Info("guardian configured",
		"policy_version", a.policies.Snapshot().Version,
		"detectors", registry.Len(),
		"upstream", upstream.Name(),
		"metrics", collector != nil,
		"tracing", tracer.Enabled(),
		"webhook", len(sinks) > 0,
	)
	return a, nil
}

// openAuditStore opens the JSONL primary log and any configured mirrors.
// The returned store is owned by the audit.Log built on it; stores opened
// before a failure are closed here.
func openAuditStore(cfg config.AuditConfig, collector *metrics.Collector) (audit.Store, *audit.Rotator, error) {
	jsonl, err := audit.NewJSONLStore(cfg.JSONLPath, cfg.Sync)
	if err != nil {
		return nil, nil, err
	}

	var mirrors []audit.Store
	release := func() error {
		errs := []error{jsonl.Close()}
		for _, m := range mirrors {
			errs = append(errs, m.Close())
		}
		return errors.Join(errs...)
	}

	if cfg.SQLite.Enabled {
		sc := audit.DefaultSQLiteConfig()
		sc.Path = cfg.SQLite.Path
		sc.Driver = cfg.SQLite.Driver
		sqlite, err := audit.NewSQLiteStore(sc)
		if err != nil {
			_ = release()
			return nil, nil, err
		}
		mirrors = append(mirrors, sqlite)
	}
	if cfg.Kafka.Enabled {
		kafka, err := audit.NewKafkaStore(audit.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			_ = release()
			return nil, nil, err
		}
		mirrors = append(mirrors, kafka)
	}

	var rotator *audit.Rotator
	if cfg.Rotation.Enabled {
		rotator = audit.NewRotator(jsonl, cfg.Rotation.Schedule)
	}

	if len(mirrors) == 0 {
		return jsonl, rotator, nil
	}
	multi := audit.NewMultiStore(jsonl, mirrors...)
	if collector != nil {
		multi.OnMirrorError = collector.ObserveMirrorError
	}
	return multi, rotator, nil
}

// newUpstream builds the configured provider. The echo provider is only used
// when explicitly enabled.
func newUpstream(cfg config.UpstreamConfig) (providers.Provider, error) {
	if cfg.Mock {
		slog.Default().Warn("using echo upstream, completions repeat the sanitized prompt")
		return providers.NewEchoProvider(), nil
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("upstream: base_url is required unless upstream.mock is enabled")
	}
	p, err := openai.NewProvider(providers.Config{
		Name:         cfg.Name,
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}
	return p, nil
}

// shutdownTimeout bounds closing the app after the server stopped.
const shutdownTimeout = 10 * time.Second
