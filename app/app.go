// Package app wires configuration, providers and orchestrators into one
// application value shared by the CLI commands and the HTTP server.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/backend/builtin"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/diarization"
	"github.com/kbukum/samuelizer/diarization/pyannote"
	"github.com/kbukum/samuelizer/export"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/orchestrator"
	"github.com/kbukum/samuelizer/process"
	"github.com/kbukum/samuelizer/templates"
)

// App holds everything a command needs. Build it with New and release it
// with Shutdown, or let RunTask do both.
type App struct {
	Cfg       *Config
	Logger    *logger.Logger
	Telemetry *observability.Telemetry
	Metrics   *observability.Metrics

	Providers   *backend.Registry
	Templates   *templates.Registry
	Cache       cache.Store
	Optimizer   *media.Optimizer
	Diarizer    diarization.Provider
	Transcriber *orchestrator.Transcriber
	Analyzer    *orchestrator.Analyzer
	Exporter    *export.Exporter

	gracefulTimeout time.Duration
	onStop          []Hook
	summary         *Summary
}

// New applies defaults, validates cfg and builds the object graph.
func New(ctx context.Context, cfg *Config, opts ...Option) (_ *App, err error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)
	start := time.Now()

	a := &App{
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		summary:         NewSummary(cfg.Name, cfg.Version),
	}
	if o.gracefulTimeout != nil {
		a.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		a.Logger = o.logger
	} else {
		if err := logger.Init(cfg.Logging, cfg.Name); err != nil {
			return nil, configError(fmt.Errorf("logging: %w", err))
		}
		a.Logger = logger.GetGlobalLogger()
		a.OnStop(func(context.Context) error { return logger.Close() })
	}
	defer func() {
		if err != nil {
			_ = a.Shutdown(context.Background())
		}
	}()

	if err := a.setupTelemetry(ctx); err != nil {
		return nil, err
	}

	runner := o.runner
	if runner == nil {
		runner = process.NewAdapter(process.Config{Name: "media", GracePeriod: 5 * time.Second})
	}

	a.Providers = backend.NewRegistry()
	if err := builtin.Register(a.Providers, cfg.Providers.Local, runner, a.Logger); err != nil {
		return nil, err
	}
	for _, r := range o.registrations {
		if err := a.Providers.Register(r); err != nil {
			return nil, err
		}
	}
	a.Providers.Instrument(&backend.Instrumentation{
		Log:     a.Logger,
		Metrics: a.Metrics,
		Service: cfg.Name,
	})
	a.summary.Add("providers", fmt.Sprintf("%d registered", len(a.Providers.Descriptors())))

	a.Templates = templates.NewRegistry()
	n, err := a.Templates.LoadDir(cfg.Templates.Dir)
	if err != nil {
		return nil, err
	}
	a.summary.Add("templates", fmt.Sprintf("%d built-in, %d from %s", len(a.Templates.Names())-n, n, cfg.Templates.Dir))

	if err := a.setupCache(); err != nil {
		return nil, err
	}

	a.Optimizer = media.NewOptimizer(cfg.Media, runner, a.Logger)

	if o.diarizer != nil {
		a.Diarizer = o.diarizer
	} else {
		d, err := pyannote.NewProvider(cfg.Providers.Pyannote)
		if err != nil {
			return nil, configError(fmt.Errorf("pyannote: %w", err))
		}
		a.Diarizer = d
	}

	a.Transcriber = orchestrator.NewTranscriber(a.Providers, a.Cache, a.Optimizer, orchestrator.TranscriberConfig{
		Backend:          cfg.Providers.Config,
		DefaultProvider:  cfg.Transcription.Provider,
		DefaultModel:     cfg.Models.Transcription,
		FallbackToRemote: cfg.Transcription.FallbackToRemote,
		FallbackProvider: cfg.Transcription.FallbackProvider,
		Timeout:          cfg.Transcription.Timeout,
	}, orchestrator.WithLogger(a.Logger), orchestrator.WithDiarizer(a.Diarizer))

	a.Analyzer = orchestrator.NewAnalyzer(a.Providers, a.Templates, orchestrator.AnalyzerConfig{
		Backend:         cfg.Providers.Config,
		DefaultProvider: cfg.Analysis.Provider,
		DefaultModel:    cfg.Models.Analysis,
		ChunkSize:       cfg.Analysis.ChunkSize,
		Concurrency:     cfg.Analysis.Concurrency,
		Timeout:         cfg.Analysis.Timeout,
	}, orchestrator.WithLogger(a.Logger))

	a.Exporter, err = export.New(cfg.Output.Dir)
	if err != nil {
		return nil, configError(fmt.Errorf("output: %w", err))
	}
	a.summary.Add("output", a.Exporter.Dir())

	a.summary.SetStartupDuration(time.Since(start))
	a.summary.Log(a.Logger)
	return a, nil
}

func (a *App) setupTelemetry(ctx context.Context) error {
	tel, err := observability.Setup(ctx, a.Cfg.Observability, a.Cfg.Name, a.Cfg.Version, a.Cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	a.Telemetry = tel
	a.OnStop(tel.Shutdown)

	m, err := observability.NewMetrics(observability.Meter(a.Cfg.Name))
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	a.Metrics = m
	if tel.Enabled() {
		a.summary.Add("telemetry", a.Cfg.Observability.Endpoint)
	}
	return nil
}

func (a *App) setupCache() error {
	if !a.Cfg.Cache.Enabled {
		a.summary.Add("cache", "disabled")
		return nil
	}
	store, closeFn, err := cache.Open(a.Cfg.Cache, a.Metrics, a.Logger)
	if err != nil {
		return err
	}
	a.Cache = store
	a.OnStop(func(context.Context) error { return closeFn() })

	detail := string(a.Cfg.Cache.Backend)
	if a.Cfg.Cache.Backend != cache.BackendRedis {
		detail += " " + a.Cfg.Cache.Dir
	}
	a.summary.Add("cache", detail)
	return nil
}

// RunTask runs a finite task with SIGINT and SIGTERM cancelling its context,
// then shuts the application down. The task error wins over a shutdown error.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.Shutdown(context.Background()); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Shutdown runs the stop hooks in reverse registration order within the
// graceful timeout. Every hook runs; the first error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	hooks := a.onStop
	a.onStop = nil

	var first error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			a.Logger.Error("Stop hook failed", logger.Fields(logger.FieldError, err.Error()))
			if first == nil {
				first = err
			}
		}
	}
	a.Logger.Debug("Application shutdown complete")
	return first
}
