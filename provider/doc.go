// Package provider holds the generic building blocks behind samuelizer's
// transcription and analysis backends.
//
// A backend adapter is a Provider (Name, IsAvailable). One request/response
// call of an adapter can be lifted into RequestResponse[I, O] with Func and
// decorated with middleware:
//
//	call := provider.Chain(
//	    provider.WithLogging[Req, Resp](log),
//	    provider.WithTracing[Req, Resp]("samuelizer"),
//	    provider.WithMetrics[Req, Resp](metrics),
//	)(provider.Func("openai", "transcribe", raw))
//
// Middlewares that have nothing to do (nil metrics, no service name) come
// back nil and Chain skips them. Rate limiting and retries live in a Guard;
// adapters run each outbound call through Guarded.
//
// Registry[T, C] is a concurrency-safe table of named factories taking a
// typed config C. Every Create builds a fresh adapter.
package provider
