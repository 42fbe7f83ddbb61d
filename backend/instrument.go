package backend

import (
	"context"

	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/provider"
	"github.com/kbukum/samuelizer/transcription"
)

// Instrumentation is the middleware applied to adapters built by a Registry.
type Instrumentation struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// Service prefixes span names. Empty disables tracing.
	Service string
}

func (in *Instrumentation) log() *logger.Logger {
	if in.Log == nil {
		return logger.Nop()
	}
	return in.Log.WithComponent("backend")
}

func (in *Instrumentation) transcriber(p transcription.Provider) transcription.Provider {
	if in == nil {
		return p
	}
	rr := provider.Func(p.Name(), "transcribe", p.Transcribe)
	rr = chain[transcription.Request, *transcription.Response](in)(rr)
	return &instrumentedTranscriber{Provider: p, rr: rr}
}

func (in *Instrumentation) analyst(p llm.Provider) llm.Provider {
	if in == nil {
		return p
	}
	rr := provider.Func(p.Name(), "complete", p.Complete)
	rr = chain[llm.CompletionRequest, *llm.CompletionResponse](in)(rr)
	return &instrumentedAnalyst{Provider: p, rr: rr}
}

func chain[I, O any](in *Instrumentation) provider.Middleware[I, O] {
	var tracing provider.Middleware[I, O]
	if in.Service != "" {
		tracing = provider.WithTracing[I, O](in.Service)
	}
	return provider.Chain(
		provider.WithLogging[I, O](in.log()),
		tracing,
		provider.WithMetrics[I, O](in.Metrics),
	)
}

type instrumentedTranscriber struct {
	transcription.Provider
	rr provider.RequestResponse[transcription.Request, *transcription.Response]
}

func (t *instrumentedTranscriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	return t.rr.Execute(ctx, req)
}

// AcceptsAnyFormat forwards to the wrapped adapter.
func (t *instrumentedTranscriber) AcceptsAnyFormat() bool {
	return transcription.AcceptsAnyFormat(t.Provider)
}

// Unwrap returns the adapter without middleware.
func (t *instrumentedTranscriber) Unwrap() transcription.Provider { return t.Provider }

type instrumentedAnalyst struct {
	llm.Provider
	rr provider.RequestResponse[llm.CompletionRequest, *llm.CompletionResponse]
}

func (a *instrumentedAnalyst) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return a.rr.Execute(ctx, req)
}

// Unwrap returns the adapter without middleware.
func (a *instrumentedAnalyst) Unwrap() llm.Provider { return a.Provider }
