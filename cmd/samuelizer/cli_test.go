package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/capture"
	"github.com/kbukum/samuelizer/diarization"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/transcription"
)

type fakeTranscriber struct{ calls atomic.Int32 }

func (f *fakeTranscriber) Name() string                     { return "fake" }
func (f *fakeTranscriber) IsAvailable(context.Context) bool { return true }
func (f *fakeTranscriber) AcceptsAnyFormat() bool           { return true }
func (f *fakeTranscriber) Transcribe(context.Context, transcription.Request) (*transcription.Response, error) {
	f.calls.Add(1)
	return &transcription.Response{Text: "we agreed to ship on friday"}, nil
}

type fakeAnalyst struct{ calls atomic.Int32 }

func (f *fakeAnalyst) Name() string                     { return "fake" }
func (f *fakeAnalyst) IsAvailable(context.Context) bool { return true }
func (f *fakeAnalyst) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	return &llm.CompletionResponse{Content: `{"summary": "Ship on Friday."}`}, nil
}

type fakeDiarizer struct{}

func (fakeDiarizer) Name() string                     { return "fake" }
func (fakeDiarizer) IsAvailable(context.Context) bool { return true }
func (fakeDiarizer) Diarize(context.Context, diarization.Request) (*diarization.Response, error) {
	return &diarization.Response{}, nil
}

type env struct {
	dir         string
	config      string
	transcriber *fakeTranscriber
	analyst     *fakeAnalyst
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
provider: fake
cache:
  dir: %s
output:
  dir: %s
templates:
  dir: %s
capture:
  output_dir: %s
`, filepath.Join(dir, "cache"), filepath.Join(dir, "out"), filepath.Join(dir, "templates"),
		filepath.Join(dir, "recordings"))
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return &env{dir: dir, config: path, transcriber: &fakeTranscriber{}, analyst: &fakeAnalyst{}}
}

func (e *env) registration() backend.Registration {
	return backend.Registration{
		Descriptor: backend.Descriptor{
			Name:         "fake",
			Mode:         backend.ModeRemote,
			Capabilities: []backend.Capability{backend.Transcription, backend.Analysis},
			DefaultModels: map[backend.Capability]string{
				backend.Transcription: "fake-whisper",
				backend.Analysis:      "fake-llm",
			},
		},
		Transcription: func(backend.Config) (transcription.Provider, error) { return e.transcriber, nil },
		Analysis:      func(backend.Config) (llm.Provider, error) { return e.analyst, nil },
	}
}

func (e *env) appOptions() []app.Option {
	return []app.Option{
		app.WithLogger(logger.Nop()),
		app.WithDiarizer(fakeDiarizer{}),
		app.WithRegistrations(e.registration()),
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (e *env) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	c := &cli{stdin: strings.NewReader(stdin), stdout: &out, stderr: &errOut, appOpts: e.appOptions()}
	root := c.rootCmd()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)
	code := errors.ExitOK
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(&errOut, "error: %s\n", errors.UserMessage(err))
		code = errors.ExitCode(err)
	}
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (e *env) mp3(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	data := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 256)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"version"}, strings.NewReader(""), &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.HasPrefix(out.String(), "samuelizer version ") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestUsageErrorsExitTwo(t *testing.T) {
	e := newEnv(t)
	for _, args := range [][]string{
		{"transcribe"},
		{"transcribe", "--bogus", "x.mp3"},
		{"cache", "invalidate"},
	} {
		res := e.run(t, "", args...)
		if res.code != errors.ExitInvalidInput {
			t.Errorf("%v: exit %d, stderr %q", args, res.code, res.stderr)
		}
		if !strings.HasPrefix(res.stderr, "error: ") {
			t.Errorf("%v: stderr %q", args, res.stderr)
		}
	}
}

func TestTranscribe(t *testing.T) {
	e := newEnv(t)
	path := e.mp3(t, "standup.mp3")

	res := e.run(t, "", "transcribe", path)
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if strings.TrimSpace(res.stdout) != "we agreed to ship on friday" {
		t.Errorf("stdout = %q", res.stdout)
	}

	res = e.run(t, "", "transcribe", "--json", path)
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	var got struct {
		Cached   bool   `json:"cached"`
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("decode %q: %v", res.stdout, err)
	}
	if !got.Cached || got.Provider != "fake" {
		t.Errorf("second run = %+v", got)
	}
	if n := e.transcriber.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestTranscribe_DriveURL(t *testing.T) {
	e := newEnv(t)
	path := e.mp3(t, "drive.mp3")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}))
	defer srv.Close()

	res := e.run(t, "", "transcribe", "--drive-url", srv.URL+"/shared/recording")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if strings.TrimSpace(res.stdout) != "we agreed to ship on friday" {
		t.Errorf("stdout = %q", res.stdout)
	}

	res = e.run(t, "", "transcribe", "--drive-url", srv.URL, path)
	if res.code != errors.ExitInvalidInput {
		t.Errorf("a file and a URL together: exit %d", res.code)
	}
}

func TestTranscribe_ExitCodes(t *testing.T) {
	e := newEnv(t)
	txt := filepath.Join(e.dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file", []string{"transcribe", filepath.Join(e.dir, "missing.mp3")}, errors.ExitInputUnreadable},
		{"unsupported", []string{"transcribe", txt}, errors.ExitUnsupportedFormat},
		{"unknown provider", []string{"transcribe", "-p", "nope", e.mp3(t, "a.mp3")}, errors.ExitUnknownProvider},
		{"bad mode", []string{"transcribe", "--mode", "cloud", e.mp3(t, "b.mp3")}, errors.ExitInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.run(t, "", tt.args...)
			if res.code != tt.code {
				t.Errorf("exit %d, want %d (stderr %q)", res.code, tt.code, res.stderr)
			}
		})
	}
	if n := e.transcriber.calls.Load(); n != 0 {
		t.Errorf("provider should not be called, got %d", n)
	}
}

func TestAnalyze_Stdin(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, "we agreed to ship on friday", "analyze", "-t", "summary")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if want := "## Summary\n\nShip on Friday.\n"; res.stdout != want {
		t.Errorf("stdout = %q, want %q", res.stdout, want)
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, "   ", "analyze")
	if res.code != errors.ExitInvalidInput {
		t.Errorf("exit %d: %s", res.code, res.stderr)
	}
	if e.analyst.calls.Load() != 0 {
		t.Error("analyst should not be called")
	}
}

func TestSummarize_MultipleFiles(t *testing.T) {
	e := newEnv(t)
	var files []string
	for _, name := range []string{"a.txt", "b.txt"} {
		p := filepath.Join(e.dir, name)
		if err := os.WriteFile(p, []byte("notes for "+name), 0o644); err != nil {
			t.Fatal(err)
		}
		files = append(files, p)
	}
	res := e.run(t, "", append([]string{"summarize", "--export", "json"}, files...)...)
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if strings.Count(res.stdout, "==> ") != 2 || strings.Count(res.stdout, "Ship on Friday.") != 2 {
		t.Errorf("stdout = %q", res.stdout)
	}
	for _, name := range []string{"a.json", "b.json"} {
		if _, err := os.Stat(filepath.Join(e.dir, "out", name)); err != nil {
			t.Errorf("%s not exported: %v", name, err)
		}
	}
}

func TestProcess_ExportsMinutes(t *testing.T) {
	e := newEnv(t)
	path := e.mp3(t, "weekly sync.mp3")
	res := e.run(t, "", "process", "-t", "summary", "-f", "json,txt", path)
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two exported paths, got %q", res.stdout)
	}
	data, err := os.ReadFile(filepath.Join(e.dir, "out", "weekly_sync.txt"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Ship on Friday.") || !strings.Contains(string(data), "we agreed to ship on friday") {
		t.Errorf("export = %q", data)
	}
}

func TestCacheCommands(t *testing.T) {
	e := newEnv(t)
	store, err := cache.NewFileStore(filepath.Join(e.dir, "cache"), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range "ab" {
		fp := fingerprint.Fingerprint(strings.Repeat(string(c), 64))
		if err := store.Put(context.Background(), fp, "text"); err != nil {
			t.Fatal(err)
		}
	}

	res := e.run(t, "", "cache", "stats")
	if res.code != 0 || !strings.Contains(res.stdout, "entries: 2") {
		t.Fatalf("stats: exit %d, stdout %q, stderr %q", res.code, res.stdout, res.stderr)
	}
	res = e.run(t, "", "cache", "clear")
	if res.code != 0 || !strings.Contains(res.stdout, "removed 2") {
		t.Fatalf("clear: exit %d, stdout %q, stderr %q", res.code, res.stdout, res.stderr)
	}
	res = e.run(t, "", "cache", "stats", "--json")
	if !strings.Contains(res.stdout, `"entries": 0`) {
		t.Errorf("stats after clear = %q", res.stdout)
	}
}

func TestCacheInvalidate(t *testing.T) {
	e := newEnv(t)
	path := e.mp3(t, "call.mp3")
	if res := e.run(t, "", "transcribe", path); res.code != 0 {
		t.Fatalf("transcribe: %s", res.stderr)
	}
	res := e.run(t, "", "cache", "invalidate", path)
	if res.code != 0 || !strings.HasPrefix(res.stdout, "invalidated ") {
		t.Fatalf("invalidate: exit %d, stdout %q, stderr %q", res.code, res.stdout, res.stderr)
	}
	if res := e.run(t, "", "transcribe", path); res.code != 0 {
		t.Fatalf("transcribe: %s", res.stderr)
	}
	if n := e.transcriber.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2 after invalidation", n)
	}
}

func TestCacheDisabled(t *testing.T) {
	e := newEnv(t)
	cfg := fmt.Sprintf("cache:\n  enabled: false\noutput:\n  dir: %s\n", filepath.Join(e.dir, "out"))
	if err := os.WriteFile(e.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	res := e.run(t, "", "cache", "stats")
	if res.code != errors.ExitInvalidInput || !strings.Contains(res.stderr, "disabled") {
		t.Errorf("exit %d, stderr %q", res.code, res.stderr)
	}
}

func TestLists(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, "", "providers", "list")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	for _, want := range []string{"NAME", "openai", "gemini", "local", "fake"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("providers list missing %q", want)
		}
	}

	res = e.run(t, "", "templates", "list")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "summary") || strings.Contains(res.stdout, "classify") {
		t.Errorf("templates list = %q", res.stdout)
	}
}

type fakeStream struct{ closed bool }

func (s *fakeStream) Read() ([]int16, error) { return make([]int16, 1600), nil }
func (s *fakeStream) Close() error           { s.closed = true; return nil }

func TestRecord(t *testing.T) {
	e := newEnv(t)
	stream := &fakeStream{}
	var out, errOut bytes.Buffer
	c := &cli{
		stdin: strings.NewReader(""), stdout: &out, stderr: &errOut,
		appOpts:     e.appOptions(),
		captureOpts: []capture.Option{capture.WithOpener(func(capture.Config) (capture.Stream, error) { return stream, nil })},
	}
	root := c.rootCmd()
	root.SetArgs([]string{"--config", e.config, "record", "-d", "200ms", "--no-transcribe"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("record: %v", err)
	}
	path := strings.TrimSpace(out.String())
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("recording missing: %v", err)
	}
	// 0.2s at 16 kHz mono is 3200 frames of 2 bytes after the 44-byte header.
	if info.Size() != 44+3200*2 {
		t.Errorf("size = %d", info.Size())
	}
	if !stream.closed {
		t.Error("stream not closed")
	}
}

func TestRecord_Unavailable(t *testing.T) {
	e := newEnv(t)
	var out, errOut bytes.Buffer
	c := &cli{
		stdin: strings.NewReader(""), stdout: &out, stderr: &errOut,
		appOpts:     e.appOptions(),
		captureOpts: []capture.Option{capture.WithOpener(func(capture.Config) (capture.Stream, error) { return nil, capture.ErrUnavailable })},
	}
	root := c.rootCmd()
	root.SetArgs([]string{"--config", e.config, "record", "-d", "1s"})
	err := root.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(errors.UserMessage(err), "capture: ") {
		t.Errorf("message = %q", errors.UserMessage(err))
	}
}

func TestAPIServer(t *testing.T) {
	e := newEnv(t)
	cfg, err := app.LoadConfig(e.config)
	if err != nil {
		t.Fatal(err)
	}
	a, err := app.New(context.Background(), cfg, e.appOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown(context.Background()) //nolint:errcheck

	ts := httptest.NewServer(newAPIServer(a).Handler())
	defer ts.Close()
	client := &http.Client{Timeout: 5 * time.Second}

	for path, want := range map[string]int{
		"/health":       http.StatusOK,
		"/v1/templates": http.StatusOK,
		"/v1/providers": http.StatusOK,
		"/v1/cache":     http.StatusOK,
	} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET %s = %d, want %d", path, resp.StatusCode, want)
		}
	}

	body := strings.NewReader(`{"text": "we agreed to ship on friday", "template": "summary"}`)
	resp, err := client.Post(ts.URL+"/v1/analyses", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/analyses = %d", resp.StatusCode)
	}
}
