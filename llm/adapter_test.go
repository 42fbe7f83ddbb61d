package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/resilience"
)

// echoDialect posts the request as-is and reads {"content","model"} back.
type echoDialect struct {
	name     string
	health   string
	buildErr error
}

func (d echoDialect) Name() string {
	if d.name == "" {
		return "echo"
	}
	return d.name
}
func (echoDialect) ChatPath() string     { return "/chat" }
func (d echoDialect) HealthPath() string { return d.health }

func (d echoDialect) BuildRequest(req CompletionRequest) (any, error) {
	if d.buildErr != nil {
		return nil, d.buildErr
	}
	return req, nil
}

func (echoDialect) ParseResponse(body []byte) (*CompletionResponse, error) {
	var resp CompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// chatServer answers /chat with handler and counts the calls.
func chatServer(t *testing.T, handler func(w http.ResponseWriter, req CompletionRequest)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req CompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func reply(w http.ResponseWriter, content, model string) {
	_ = json.NewEncoder(w).Encode(CompletionResponse{Content: content, Model: model})
}

func TestNew_ResolvesDialect(t *testing.T) {
	isolateDialects(t)
	RegisterDialect("echo", echoDialect{})

	a, err := New(Config{Dialect: "echo", BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "echo-llm" || a.Dialect().Name() != "echo" {
		t.Errorf("name=%q dialect=%q", a.Name(), a.Dialect().Name())
	}

	if _, err := New(Config{Dialect: "nope"}); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("unknown dialect: %v", err)
	}
}

func TestNewWithDialect(t *testing.T) {
	if _, err := NewWithDialect(nil, Config{}); !errors.Is(err, ErrNoDialect) {
		t.Errorf("nil dialect: %v", err)
	}
	a, err := NewWithDialect(echoDialect{}, Config{Name: "local", BaseURL: "http://localhost:1"})
	if err != nil || a.Name() != "local" {
		t.Fatalf("got %v, %v", a, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestComplete_FillsDefaults(t *testing.T) {
	srv, _ := chatServer(t, func(w http.ResponseWriter, req CompletionRequest) {
		if req.Model != "base" || req.Temperature == nil || *req.Temperature != 0.2 || req.MaxTokens != 64 {
			t.Errorf("defaults not applied: %+v", req)
		}
		reply(w, "hello", req.Model)
	})
	a, _ := NewWithDialect(echoDialect{}, Config{BaseURL: srv.URL, Model: "base", Temperature: ptr(0.2), MaxTokens: 64})

	resp, err := a.Complete(context.Background(), UserPrompt("sys", "hi"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello" || resp.Model != "base" {
		t.Errorf("got %+v", resp)
	}
}

func TestComplete_RequestOverridesDefaults(t *testing.T) {
	srv, _ := chatServer(t, func(w http.ResponseWriter, req CompletionRequest) {
		reply(w, "", req.Model)
	})
	a, _ := NewWithDialect(echoDialect{}, Config{BaseURL: srv.URL, Model: "base"})

	resp, err := a.Complete(context.Background(), CompletionRequest{Model: "large"})
	if err != nil || resp.Model != "large" {
		t.Fatalf("got %+v, %v", resp, err)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   apperrors.ErrorCode
	}{
		{"unknown model", http.StatusNotFound, apperrors.ErrCodeModelNotAvailable},
		{"bad key", http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
		{"throttled", http.StatusTooManyRequests, apperrors.ErrCodeRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, func(w http.ResponseWriter, _ CompletionRequest) {
				w.WriteHeader(tt.status)
			})
			a, _ := NewWithDialect(echoDialect{}, Config{Name: "local", BaseURL: srv.URL, Model: "llama9"})
			_, err := a.Complete(context.Background(), CompletionRequest{})
			if !apperrors.HasCode(err, tt.code) {
				t.Fatalf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestComplete_BuildError(t *testing.T) {
	a, _ := NewWithDialect(echoDialect{buildErr: errors.New("boom")}, Config{BaseURL: "http://localhost:1"})
	_, err := a.Complete(context.Background(), CompletionRequest{})
	if err == nil || !strings.Contains(err.Error(), "build request") {
		t.Errorf("got %v", err)
	}
}

func TestComplete_Retry(t *testing.T) {
	retry := &resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	t.Run("transient", func(t *testing.T) {
		var n atomic.Int32
		srv, calls := chatServer(t, func(w http.ResponseWriter, _ CompletionRequest) {
			if n.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			reply(w, "done", "m")
		})
		a, _ := NewWithDialect(echoDialect{}, Config{BaseURL: srv.URL, Retry: retry})
		resp, err := a.Complete(context.Background(), CompletionRequest{})
		if err != nil || resp.Content != "done" || calls.Load() != 3 {
			t.Fatalf("resp=%+v err=%v calls=%d", resp, err, calls.Load())
		}
	})

	t.Run("auth is terminal", func(t *testing.T) {
		srv, calls := chatServer(t, func(w http.ResponseWriter, _ CompletionRequest) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		a, _ := NewWithDialect(echoDialect{}, Config{BaseURL: srv.URL, Retry: retry})
		if _, err := a.Complete(context.Background(), CompletionRequest{}); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tests := []struct {
		health string
		want   bool
	}{
		{"/health", true},
		{"/missing", false},
		{"", true},
	}
	for _, tt := range tests {
		a, _ := NewWithDialect(echoDialect{health: tt.health}, Config{BaseURL: srv.URL})
		if got := a.IsAvailable(context.Background()); got != tt.want {
			t.Errorf("health %q: got %v", tt.health, got)
		}
	}
}
