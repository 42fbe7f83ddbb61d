package orchestrator_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/transcription"
)

// fakeTranscriber fails the first failures calls, then returns text.
type fakeTranscriber struct {
	name     string
	text     string
	any      bool
	failures int32
	err      error
	calls    atomic.Int32
	mu       sync.Mutex
	paths    []string
	segments []transcription.Segment
}

func (f *fakeTranscriber) Name() string                     { return f.name }
func (f *fakeTranscriber) IsAvailable(context.Context) bool { return true }
func (f *fakeTranscriber) AcceptsAnyFormat() bool           { return f.any }
func (f *fakeTranscriber) Transcribe(_ context.Context, req transcription.Request) (*transcription.Response, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.paths = append(f.paths, req.AudioPath)
	f.mu.Unlock()
	if f.err != nil && (f.failures == 0 || n <= f.failures) {
		return nil, f.err
	}
	return &transcription.Response{Text: f.text, Segments: f.segments, Duration: 2}, nil
}

func (f *fakeTranscriber) lastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) == 0 {
		return ""
	}
	return f.paths[len(f.paths)-1]
}

// fakeAnalyst answers with respond(prompt) and counts calls.
type fakeAnalyst struct {
	calls   atomic.Int32
	respond func(req llm.CompletionRequest) (string, error)
}

func (f *fakeAnalyst) Name() string                     { return "fake" }
func (f *fakeAnalyst) IsAvailable(context.Context) bool { return true }
func (f *fakeAnalyst) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	out, err := f.respond(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: out}, nil
}

// fakeOptimizer writes a small "optimized" copy for every input.
type fakeOptimizer struct {
	calls atomic.Int32
	err   error
}

func (o *fakeOptimizer) Config() media.Config {
	return media.Config{Enabled: true, TargetBitrate: "32k", MaxSizeMB: 100}
}

func (o *fakeOptimizer) Prepare(_ context.Context, path string, _ media.Format) (*media.Prepared, error) {
	o.calls.Add(1)
	if o.err != nil {
		return nil, errors.AudioExtraction(path, o.err)
	}
	out := filepath.Join(filepath.Dir(path), "optimized.mp3")
	if err := os.WriteFile(out, id3(128), 0o600); err != nil {
		return nil, err
	}
	return &media.Prepared{Path: out, Optimized: true}, nil
}

func register(t *testing.T, reg *backend.Registry, name string, mode backend.Mode, tr transcription.Provider, an llm.Provider) {
	t.Helper()
	r := backend.Registration{
		Descriptor: backend.Descriptor{
			Name: name,
			Mode: mode,
			Models: map[backend.Capability][]string{
				backend.Transcription: {"m1", "m2"},
			},
			DefaultModels: map[backend.Capability]string{backend.Transcription: "m1", backend.Analysis: "llm-1"},
		},
	}
	if tr != nil {
		r.Descriptor.Capabilities = append(r.Descriptor.Capabilities, backend.Transcription)
		r.Transcription = func(backend.Config) (transcription.Provider, error) { return tr, nil }
	}
	if an != nil {
		r.Descriptor.Capabilities = append(r.Descriptor.Capabilities, backend.Analysis)
		r.Analysis = func(backend.Config) (llm.Provider, error) { return an, nil }
	}
	if err := reg.Register(r); err != nil {
		t.Fatal(err)
	}
}

func id3(n int) []byte {
	return append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, n)...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func fileStore(t *testing.T) *cache.FileStore {
	t.Helper()
	s, err := cache.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func entries(t *testing.T, s cache.Store) int {
	t.Helper()
	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return st.Entries
}

var errTransient = fmt.Errorf("upstream 503")
