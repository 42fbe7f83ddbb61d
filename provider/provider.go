package provider

import "context"

// Provider is what every backend adapter exposes.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// RequestResponse is one call shape of an adapter: a transcription upload,
// a chat completion or a whisper.cpp run.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Factory builds an adapter from its typed configuration.
type Factory[T Provider, C any] func(cfg C) (T, error)

// Func lifts fn into a RequestResponse named "<provider>.<operation>".
// It always reports available; availability belongs to the owning adapter.
func Func[I, O any](providerName, operation string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return funcRR[I, O]{name: providerName + "." + operation, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(context.Context, I) (O, error)
}

func (f funcRR[I, O]) Name() string                     { return f.name }
func (f funcRR[I, O]) IsAvailable(context.Context) bool { return true }

func (f funcRR[I, O]) Execute(ctx context.Context, in I) (O, error) { return f.fn(ctx, in) }
