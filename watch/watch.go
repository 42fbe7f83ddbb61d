// Package watch processes recordings dropped into a folder.
package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/pipeline"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Config configures a Watcher.
type Config struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Concurrency bounds how many files are handled at once.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=32"`
	// Settle is how long a file must go without writes before it is handled.
	Settle time.Duration `yaml:"settle" mapstructure:"settle"`
	// ProcessExisting handles files already in Dir at startup.
	ProcessExisting bool `yaml:"process_existing" mapstructure:"process_existing"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Settle <= 0 {
		c.Settle = 2 * time.Second
	}
}

// Watcher hands every new supported media file in a directory to a Handler
// once its writes have settled. Each path is handled at most once per run.
type Watcher struct {
	cfg     Config
	handler Handler
	log     *logger.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]bool
}

// New checks that cfg.Dir is a directory.
func New(cfg Config, handler Handler, log *logger.Logger) (*Watcher, error) {
	cfg.ApplyDefaults()
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", cfg.Dir)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		log:     log.WithComponent("watch"),
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]bool),
	}, nil
}

type outcome struct {
	path string
	err  error
	took time.Duration
}

// Run watches until ctx is done. Handler errors are logged and do not stop
// the watcher. Cancellation returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close() //nolint:errcheck
	if err := fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.cfg.Dir, err)
	}

	ready := make(chan string, w.cfg.Concurrency)
	w.log.Info("watching for recordings", logger.Fields(
		logger.FieldPath, w.cfg.Dir, "concurrency", w.cfg.Concurrency))

	if w.cfg.ProcessExisting {
		if err := w.scan(ctx, ready); err != nil {
			return err
		}
	}
	go w.events(ctx, fsw, ready)

	work := pipeline.Parallel(pipeline.FromChannel(ready), w.cfg.Concurrency,
		func(ctx context.Context, path string) (outcome, error) {
			start := time.Now()
			err := w.handler(ctx, path)
			return outcome{path: path, err: err, took: time.Since(start)}, nil
		})
	err = pipeline.Drain(work, func(_ context.Context, o outcome) error {
		if o.err != nil {
			w.log.Error("processing failed", logger.Fields(logger.FieldPath, o.path, logger.FieldError, o.err.Error()))
			return nil
		}
		w.log.Info("processed", logger.Fields(logger.FieldPath, o.path, logger.FieldDuration, o.took.Milliseconds()))
		return nil
	}).Run(ctx)

	w.stopTimers()
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (w *Watcher) events(ctx context.Context, fsw *fsnotify.Watcher, ready chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.touch(ctx, ev.Name, ready)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}

// scan queues files already present. They settle like new ones.
func (w *Watcher) scan(ctx context.Context, ready chan<- string) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("watch: read %s: %w", w.cfg.Dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.touch(ctx, filepath.Join(w.cfg.Dir, e.Name()), ready)
		}
	}
	return nil
}

// touch (re)starts the settle timer for path.
func (w *Watcher) touch(ctx context.Context, path string, ready chan<- string) {
	if !media.IsSupported(path) {
		w.log.Debug("ignoring unsupported file", logger.Fields(logger.FieldPath, path))
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.cfg.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.cfg.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if w.seen[path] {
			w.mu.Unlock()
			return
		}
		w.seen[path] = true
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
