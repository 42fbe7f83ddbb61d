package provider

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/observability"
)

// Middleware decorates a RequestResponse.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares with the first one outermost, so
// Chain(a, b)(p) is a(b(p)). Nil entries are skipped.
func Chain[I, O any](mws ...Middleware[I, O]) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] != nil {
				rr = mws[i](rr)
			}
		}
		return rr
	}
}

// around builds a Middleware whose Execute is fn; Name and IsAvailable
// still come from the wrapped provider.
func around[I, O any](fn func(ctx context.Context, next RequestResponse[I, O], in I) (O, error)) Middleware[I, O] {
	return func(next RequestResponse[I, O]) RequestResponse[I, O] {
		return wrapped[I, O]{RequestResponse: next, exec: func(ctx context.Context, in I) (O, error) {
			return fn(ctx, next, in)
		}}
	}
}

type wrapped[I, O any] struct {
	RequestResponse[I, O]
	exec func(context.Context, I) (O, error)
}

func (w wrapped[I, O]) Execute(ctx context.Context, in I) (O, error) { return w.exec(ctx, in) }

// WithLogging logs every call with its duration: failures at error level,
// successes at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return around(func(ctx context.Context, next RequestResponse[I, O], in I) (O, error) {
		start := time.Now()
		out, err := next.Execute(ctx, in)
		fields := logger.Fields(
			logger.FieldProvider, next.Name(),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if err != nil {
			fields[logger.FieldError] = err.Error()
			log.WithContext(ctx).Error("provider call failed", fields)
		} else {
			log.WithContext(ctx).Debug("provider call done", fields)
		}
		return out, err
	})
}

// WithTracing opens a "<service>.<provider>.<operation>" span per call.
func WithTracing[I, O any](service string) Middleware[I, O] {
	return around(func(ctx context.Context, next RequestResponse[I, O], in I) (O, error) {
		ctx, span := observability.StartSpan(ctx, service+"."+next.Name())
		defer span.End()

		name, op := splitName(next.Name())
		observability.SetSpanAttribute(ctx, observability.AttrServiceName, service)
		observability.SetSpanAttribute(ctx, observability.AttrProvider, name)
		observability.SetSpanAttribute(ctx, observability.AttrOperationName, op)

		out, err := next.Execute(ctx, in)
		observability.SetSpanError(ctx, err)
		return out, err
	})
}

// WithMetrics counts calls and errors and records durations. A nil m
// leaves the provider undecorated.
func WithMetrics[I, O any](m *observability.Metrics) Middleware[I, O] {
	if m == nil {
		return nil
	}
	return around(func(ctx context.Context, next RequestResponse[I, O], in I) (O, error) {
		start := time.Now()
		out, err := next.Execute(ctx, in)
		name, op := splitName(next.Name())
		status := "ok"
		if err != nil {
			status = "error"
			m.RecordError(ctx, op, name)
		}
		m.RecordOperation(ctx, name, op, status, time.Since(start))
		return out, err
	})
}

// splitName splits "openai.transcribe" into provider and operation.
func splitName(full string) (name, operation string) {
	if name, operation, ok := strings.Cut(full, "."); ok {
		return name, operation
	}
	return full, "execute"
}
