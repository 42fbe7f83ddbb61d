package app

import (
	"time"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/diarization"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/process"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	runner          process.Runner
	diarizer        diarization.Provider
	registrations   []backend.Registration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger uses l instead of initializing the global logger from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds Shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithRunner replaces the subprocess runner used by ffmpeg and local models.
func WithRunner(r process.Runner) Option {
	return func(o *appOptions) {
		o.runner = r
	}
}

// WithDiarizer replaces the Pyannote sidecar client.
func WithDiarizer(d diarization.Provider) Option {
	return func(o *appOptions) {
		o.diarizer = d
	}
}

// WithRegistrations adds providers after the built-in ones.
func WithRegistrations(regs ...backend.Registration) Option {
	return func(o *appOptions) {
		o.registrations = append(o.registrations, regs...)
	}
}
