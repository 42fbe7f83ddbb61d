package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by provider middleware and the
// cache layer.
type Metrics struct {
	calls        metric.Int64Counter
	callDuration metric.Float64Histogram
	errors       metric.Int64Counter
	cacheLookups metric.Int64Counter
	cachePuts    metric.Int64Counter
}

// NewMetrics registers the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return c
	}

	m := &Metrics{
		calls:        counter("provider.calls", "Provider adapter calls by status"),
		errors:       counter("error.total", "Errors by type and component"),
		cacheLookups: counter("cache.lookups", "Transcription cache lookups by result"),
		cachePuts:    counter("cache.puts", "Transcription cache writes by status"),
	}
	var err error
	m.callDuration, err = meter.Float64Histogram("provider.duration",
		metric.WithDescription("Provider adapter call duration"), metric.WithUnit("s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("provider.duration: %w", err))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// RecordOperation records one provider call.
func (m *Metrics) RecordOperation(ctx context.Context, provider, operation, status string, d time.Duration) {
	who := attribute.NewSet(attribute.String("provider", provider), attribute.String("operation", operation))
	m.calls.Add(ctx, 1, metric.WithAttributeSet(who), metric.WithAttributes(attribute.String("status", status)))
	m.callDuration.Record(ctx, d.Seconds(), metric.WithAttributeSet(who))
}

// RecordError counts an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordCacheLookup counts a hit or miss on backend.
func (m *Metrics) RecordCacheLookup(ctx context.Context, backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("result", result),
	))
}

// RecordCachePut counts a write on backend.
func (m *Metrics) RecordCachePut(ctx context.Context, backend, status string) {
	m.cachePuts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
	))
}
