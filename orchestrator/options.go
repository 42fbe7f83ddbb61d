package orchestrator

import (
	"github.com/kbukum/samuelizer/diarization"
	"github.com/kbukum/samuelizer/logger"
)

// Option configures an orchestrator.
type Option func(*options)

type options struct {
	log      *logger.Logger
	diarizer diarization.Provider
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDiarizer enables the speaker-labelling post-pass.
func WithDiarizer(d diarization.Provider) Option {
	return func(o *options) { o.diarizer = d }
}
