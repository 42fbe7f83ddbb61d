// Package capture records system or microphone audio into WAV files that
// the transcriber can consume.
//
// Device access goes through PortAudio and is only compiled into builds
// with the "portaudio" tag; other builds return ErrUnavailable from Record.
package capture

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/logger"
)

// ErrUnavailable is returned when the binary was built without audio
// device support.
var ErrUnavailable = stderrors.New("audio capture requires a build with the portaudio tag")

// Config describes the recording format.
type Config struct {
	OutputDir       string `yaml:"output_dir" mapstructure:"output_dir"`
	SampleRate      int    `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0"`
	Channels        int    `yaml:"channels" mapstructure:"channels" validate:"gte=0,lte=2"`
	FramesPerBuffer int    `yaml:"frames_per_buffer" mapstructure:"frames_per_buffer" validate:"gte=0"`
}

// ApplyDefaults sets 16 kHz mono, the format speech models expect.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = 1024
	}
}

// Stream is an open input stream. Read blocks until the next buffer of
// interleaved samples is available; the returned slice is only valid until
// the next call.
type Stream interface {
	Read() ([]int16, error)
	Close() error
}

// OpenFunc opens an input stream for cfg.
type OpenFunc func(cfg Config) (Stream, error)

// Recorder writes captured audio to WAV files.
type Recorder struct {
	cfg  Config
	open OpenFunc
	log  *logger.Logger
	now  func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithOpener replaces the device stream opener.
func WithOpener(open OpenFunc) Option {
	return func(r *Recorder) { r.open = open }
}

// WithClock sets the clock used for file names.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder using the default input device.
func NewRecorder(cfg Config, log *logger.Logger, opts ...Option) *Recorder {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	r := &Recorder{
		cfg:  cfg,
		open: openDefault,
		log:  log.WithComponent("capture"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective configuration.
func (r *Recorder) Config() Config { return r.cfg }

// Record captures up to d of audio into
// <OutputDir>/recording_<timestamp>.wav and returns the path. Cancelling ctx
// stops early and keeps what was captured so far.
func (r *Recorder) Record(ctx context.Context, d time.Duration) (string, error) {
	if d <= 0 {
		return "", errors.InvalidInput("duration", "must be positive")
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", errors.Internal(err).WithStage(errors.StageCapture)
	}

	stream, err := r.open(r.cfg)
	if err != nil {
		if stderrors.Is(err, ErrUnavailable) {
			appErr := errors.ServiceUnavailable("audio capture").WithCause(err).WithStage(errors.StageCapture)
			appErr.Retryable = false
			return "", appErr
		}
		return "", errors.ExternalServiceError("audio input device", err).WithStage(errors.StageCapture)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			r.log.Warn("close input stream", logger.Fields(logger.FieldError, cerr.Error()))
		}
	}()

	name := fmt.Sprintf("recording_%s.wav", r.now().Format("20060102_150405"))
	path := filepath.Join(r.cfg.OutputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Internal(err).WithStage(errors.StageCapture)
	}
	defer f.Close()

	w, err := NewWAVWriter(f, r.cfg.SampleRate, r.cfg.Channels)
	if err != nil {
		return "", errors.Internal(err).WithStage(errors.StageCapture)
	}

	want := int(d.Seconds() * float64(r.cfg.SampleRate))
	r.log.Info("recording started", logger.Fields(logger.FieldPath, path, "seconds", d.Seconds()))

	for w.Frames() < want {
		if ctx.Err() != nil {
			break
		}
		buf, err := stream.Read()
		if err != nil {
			_ = w.Close()
			return "", errors.ExternalServiceError("audio input device", err).WithStage(errors.StageCapture)
		}
		remaining := (want - w.Frames()) * r.cfg.Channels
		if len(buf) > remaining {
			buf = buf[:remaining]
		}
		if err := w.WriteSamples(buf); err != nil {
			return "", errors.Internal(err).WithStage(errors.StageCapture)
		}
	}

	if err := w.Close(); err != nil {
		return "", errors.Internal(err).WithStage(errors.StageCapture)
	}
	if err := f.Sync(); err != nil {
		return "", errors.Internal(err).WithStage(errors.StageCapture)
	}
	r.log.Info("recording finished", logger.Fields(
		logger.FieldPath, path,
		"frames", w.Frames(),
	))
	return path, nil
}
