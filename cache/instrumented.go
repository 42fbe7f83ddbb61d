package cache

import (
	"context"

	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/observability"
)

// Instrumented wraps a Store with hit/miss/put counters and debug logging.
type Instrumented struct {
	next    Store
	backend string
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewInstrumented wraps next. A nil metrics only logs.
func NewInstrumented(next Store, backend string, metrics *observability.Metrics, log *logger.Logger) *Instrumented {
	if log == nil {
		log = logger.Nop()
	}
	return &Instrumented{next: next, backend: backend, metrics: metrics, log: log.WithComponent("cache")}
}

func (s *Instrumented) Get(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	text, ok, err := s.next.Get(ctx, fp)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError(ctx, "cache_get", s.backend)
		}
		return text, ok, err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(ctx, s.backend, ok)
	}
	s.log.Debug("cache lookup", logger.Fields(
		logger.FieldFingerprint, fp.Short(), "hit", ok, "backend", s.backend))
	return text, ok, nil
}

func (s *Instrumented) Put(ctx context.Context, fp fingerprint.Fingerprint, text string) error {
	err := s.next.Put(ctx, fp, text)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.RecordCachePut(ctx, s.backend, status)
	}
	s.log.Debug("cache put", logger.Fields(
		logger.FieldFingerprint, fp.Short(), logger.FieldStatus, status, "bytes", len(text)))
	return err
}

func (s *Instrumented) Has(ctx context.Context, fp fingerprint.Fingerprint) (bool, error) {
	return s.next.Has(ctx, fp)
}

func (s *Instrumented) Invalidate(ctx context.Context, fp fingerprint.Fingerprint) error {
	s.log.Debug("cache invalidate", logger.Fields(logger.FieldFingerprint, fp.Short()))
	return s.next.Invalidate(ctx, fp)
}

func (s *Instrumented) Clear(ctx context.Context) error {
	s.log.Info("clearing cache", logger.Fields("backend", s.backend))
	return s.next.Clear(ctx)
}

func (s *Instrumented) Stats(ctx context.Context) (Stats, error) {
	return s.next.Stats(ctx)
}

// Unwrap returns the wrapped store.
func (s *Instrumented) Unwrap() Store { return s.next }

var _ Store = (*Instrumented)(nil)
