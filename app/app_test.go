package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/diarization"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/process"
	"github.com/kbukum/samuelizer/server/endpoint"
)

type fakeDiarizer struct{ available bool }

func (f *fakeDiarizer) Name() string                       { return "fake" }
func (f *fakeDiarizer) IsAvailable(context.Context) bool   { return f.available }
func (f *fakeDiarizer) Diarize(context.Context, diarization.Request) (*diarization.Response, error) {
	return &diarization.Response{}, nil
}

type noopRunner struct{}

func (noopRunner) Run(context.Context, process.Command) (*process.Result, error) {
	return nil, fmt.Errorf("not available in tests")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Templates.Dir = filepath.Join(dir, "templates")
	return cfg
}

func newTestApp(t *testing.T, cfg *Config, d *fakeDiarizer) *App {
	t.Helper()
	a, err := New(context.Background(), cfg,
		WithLogger(logger.Nop()),
		WithRunner(noopRunner{}),
		WithDiarizer(d),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "name: samuelizer\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.Cache.Dir != ".cache/transcriptions" {
		t.Errorf("cache dir = %q", cfg.Cache.Dir)
	}
	if cfg.BatchSize != 1000 || cfg.RateLimitPause() != time.Second {
		t.Errorf("batch = %d, pause = %s", cfg.BatchSize, cfg.RateLimitPause())
	}
	if cfg.Analysis.Template != "auto" {
		t.Errorf("template = %q", cfg.Analysis.Template)
	}
	if strings.Join(cfg.Output.Formats, ",") != "docx,json,txt" {
		t.Errorf("formats = %v", cfg.Output.Formats)
	}
	if cfg.Transcription.Provider != "openai" || !cfg.Transcription.FallbackToRemote {
		t.Errorf("transcription = %+v", cfg.Transcription)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider: local
batch_size: 10
rate_limit_delay: 0.25
cache:
  enabled: false
analysis:
  provider: gemini
  template: meeting
output:
  formats: [txt]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transcription.Provider != "local" || cfg.Analysis.Provider != "gemini" {
		t.Errorf("providers = %q / %q", cfg.Transcription.Provider, cfg.Analysis.Provider)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled: false should win over the default")
	}
	if cfg.BatchSize != 10 || cfg.RateLimitPause() != 250*time.Millisecond {
		t.Errorf("batch = %d, pause = %s", cfg.BatchSize, cfg.RateLimitPause())
	}
	if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != "txt" {
		t.Errorf("formats = %v", cfg.Output.Formats)
	}
}

func TestLoadConfig_LegacyEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("SLACK_BATCH_SIZE", "50")
	t.Setenv("SLACK_RATE_LIMIT_DELAY", "2.5")
	t.Setenv("SAMUELIZER_PROVIDER", "gemini")

	cfg, err := LoadConfig(writeConfig(t, "provider: openai\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-legacy" {
		t.Errorf("api key = %q", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("batch = %d", cfg.BatchSize)
	}
	if cfg.RateLimitPause() != 2500*time.Millisecond {
		t.Errorf("pause = %s", cfg.RateLimitPause())
	}
	if cfg.Provider != "gemini" {
		t.Errorf("prefixed env should override the file, got %q", cfg.Provider)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown format", "output:\n  formats: [pdf]\n"},
		{"bad environment", "environment: moon\n"},
		{"bad cache backend", "cache:\n  backend: s3\n"},
		{"negative batch", "batch_size: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.ExitCode(err) == 0 {
				t.Errorf("expected non-zero exit code for %v", err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for a missing explicit file")
	}
}

func TestNew_WiresComponents(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, &fakeDiarizer{available: true})

	for _, name := range []string{"openai", "gemini", "local"} {
		if _, ok := a.Providers.Lookup(name); !ok {
			t.Errorf("provider %s not registered", name)
		}
	}
	if !a.Templates.Has("summary") {
		t.Error("built-in templates missing")
	}
	if a.Cache == nil || a.Transcriber == nil || a.Analyzer == nil || a.Exporter == nil {
		t.Fatal("expected every component to be wired")
	}
	if _, err := os.Stat(cfg.Output.Dir); err != nil {
		t.Errorf("output dir not created: %v", err)
	}

	var names []string
	for _, it := range a.Summary().Items() {
		names = append(names, it.Name)
	}
	if got := strings.Join(names, ","); got != "providers,templates,cache,output" {
		t.Errorf("summary items = %s", got)
	}
}

func TestNew_LoadsCustomTemplates(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Templates.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	tpl := `
name: standup
description: Daily standup
instructions: Summarize the standup.
sections:
  - key: blockers
    title: Blockers
    instruction: List blockers.
`
	if err := os.WriteFile(filepath.Join(cfg.Templates.Dir, "standup.yaml"), []byte(tpl), 0o644); err != nil {
		t.Fatal(err)
	}
	a := newTestApp(t, cfg, &fakeDiarizer{available: true})
	if !a.Templates.Has("standup") {
		t.Error("custom template not loaded")
	}
}

func TestNew_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	a := newTestApp(t, cfg, &fakeDiarizer{available: true})
	if a.Cache != nil {
		t.Error("expected no cache store")
	}
	for _, c := range a.HealthChecker()(context.Background()) {
		if c.Name == "cache" {
			t.Error("disabled cache should not be checked")
		}
	}
}

func TestHealth(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, &fakeDiarizer{available: false})

	fp := fingerprint.Fingerprint(strings.Repeat("a", 64))
	if err := a.Cache.Put(context.Background(), fp, "hello"); err != nil {
		t.Fatalf("put: %v", err)
	}

	checks := a.HealthChecker()(context.Background())
	got := map[string]string{}
	for _, c := range checks {
		got[c.Name] = c.Status
	}
	if got["cache"] != endpoint.StatusHealthy {
		t.Errorf("cache = %q", got["cache"])
	}
	if got["diarization"] != endpoint.StatusDegraded {
		t.Errorf("diarization = %q", got["diarization"])
	}

	sh := a.Health(context.Background())
	if sh.Status != "degraded" {
		t.Errorf("overall = %q", sh.Status)
	}
	if sh.Components[0].Details["backend"] != cache.BackendFile {
		t.Errorf("details = %v", sh.Components[0].Details)
	}
}

func TestShutdown_RunsHooksInReverse(t *testing.T) {
	a := newTestApp(t, testConfig(t), &fakeDiarizer{available: true})
	var order []int
	a.OnStop(
		func(context.Context) error { order = append(order, 1); return nil },
		func(context.Context) error { order = append(order, 2); return fmt.Errorf("boom") },
		func(context.Context) error { order = append(order, 3); return nil },
	)
	err := a.Shutdown(context.Background())
	if err == nil || err.Error() != "boom" {
		t.Errorf("err = %v", err)
	}
	if fmt.Sprint(order) != "[3 2 1]" {
		t.Errorf("order = %v", order)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown should be a no-op, got %v", err)
	}
}

func TestRunTask(t *testing.T) {
	a := newTestApp(t, testConfig(t), &fakeDiarizer{available: true})
	stopped := false
	a.OnStop(func(context.Context) error { stopped = true; return nil })

	want := fmt.Errorf("task failed")
	err := a.RunTask(context.Background(), func(ctx context.Context) error {
		if ctx.Err() != nil {
			t.Error("task context should be live")
		}
		return want
	})
	if err != want {
		t.Errorf("err = %v", err)
	}
	if !stopped {
		t.Error("RunTask should shut down")
	}
}

func TestRunTask_ContextCancelled(t *testing.T) {
	a := newTestApp(t, testConfig(t), &fakeDiarizer{available: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != context.Canceled {
		t.Errorf("err = %v", err)
	}
}

func TestSummaryWrite(t *testing.T) {
	s := NewSummary("samuelizer", "0.1.0")
	s.Add("cache", "file .cache")
	s.Add("output", "/tmp/out")
	s.TrackRoute("POST", "/v1/transcriptions")

	var b bytes.Buffer
	s.Write(&b)
	out := b.String()
	for _, want := range []string{"samuelizer v0.1.0", "├── cache: file .cache", "└── output: /tmp/out", "└── POST /v1/transcriptions"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
