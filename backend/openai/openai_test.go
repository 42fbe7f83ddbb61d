package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/resilience"
	"github.com/kbukum/samuelizer/transcription"
)

func testConfig(url string) backend.Config {
	return backend.Config{
		Model: "whisper-1",
		OpenAI: backend.RemoteConfig{
			APIKey:  "sk-test",
			BaseURL: url,
			Timeout: 5 * time.Second,
			Retry: resilience.RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: time.Millisecond,
				MaxBackoff:     5 * time.Millisecond,
			},
		},
	}
}

func audioFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "meeting.mp3")
	if err := os.WriteFile(p, []byte("ID3 audio bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if r.FormValue("model") != "whisper-1" || r.FormValue("response_format") != "verbose_json" || r.FormValue("language") != "es" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "meeting.mp3" || string(data) != "ID3 audio bytes" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text": "hola mundo", "language": "spanish", "duration": 2.5,
			"segments": []map[string]any{{"start": 0, "end": 2.5, "text": "hola mundo"}},
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Language = "es"
	tr, err := NewTranscriber(cfg)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := tr.Transcribe(context.Background(), transcription.Request{AudioPath: audioFile(t)})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hola mundo" || len(resp.Segments) != 1 || resp.Duration != 2.5 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestTranscribe_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer srv.Close()

	tr, _ := NewTranscriber(testConfig(srv.URL))
	resp, err := tr.Transcribe(context.Background(), transcription.Request{AudioPath: audioFile(t)})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hello world" || calls.Load() != 3 {
		t.Errorf("text=%q calls=%d", resp.Text, calls.Load())
	}
}

func TestTranscribe_RetryBound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr, _ := NewTranscriber(testConfig(srv.URL))
	_, err := tr.Transcribe(context.Background(), transcription.Request{AudioPath: audioFile(t)})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("expected exactly max_attempts=3 calls, got %d", calls.Load())
	}
	if !errors.IsAppError(err) {
		t.Errorf("expected AppError, got %T", err)
	}
}

func TestTranscribe_NoRetryOnAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr, _ := NewTranscriber(testConfig(srv.URL))
	_, err := tr.Transcribe(context.Background(), transcription.Request{AudioPath: audioFile(t)})
	if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("401 must not be retried, got %d calls", calls.Load())
	}
}

func TestTranscribe_GPT4oUsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("response_format"); got != "json" {
			t.Errorf("expected json format, got %q", got)
		}
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Model = "gpt-4o-transcribe"
	tr, _ := NewTranscriber(cfg)
	if _, err := tr.Transcribe(context.Background(), transcription.Request{AudioPath: audioFile(t)}); err != nil {
		t.Fatal(err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.OpenAI.APIKey = ""
	if _, err := NewTranscriber(cfg); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if _, err := NewAnalyst(cfg); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestAnalyst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model %v", body["model"])
		}
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"summary"}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Model = "gpt-4o-mini"
	a, err := NewAnalyst(cfg)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := a.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "summarize"}},
	})
	if err != nil || !strings.Contains(resp.Content, "summary") {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestRegistration(t *testing.T) {
	reg := backend.NewRegistry()
	if err := reg.Register(Registration()); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Transcriber(Name, backend.ModeRemote, backend.Config{Model: "whisper-9"}); !errors.IsModelNotAvailable(err) {
		t.Errorf("expected ModelNotAvailable, got %v", err)
	}
	if _, err := reg.Transcriber(Name, backend.ModeLocal, backend.Config{}); !errors.HasCode(err, errors.ErrCodeUnknownProvider) {
		t.Errorf("expected UnknownProvider for local mode, got %v", err)
	}
}
