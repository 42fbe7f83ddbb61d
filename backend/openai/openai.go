// Package openai adapts the OpenAI API: Whisper-family transcription over
// multipart upload and chat-completion analysis through the llm dialect.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/httpclient"
	"github.com/kbukum/samuelizer/llm"
	llmopenai "github.com/kbukum/samuelizer/llm/openai"
	"github.com/kbukum/samuelizer/transcription"
)

// Name is the registered provider name.
const Name = "openai"

var (
	transcriptionModels = []string{"whisper-1", "gpt-4o-transcribe", "gpt-4o-mini-transcribe"}
	analysisModels      = []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1", "gpt-4.1-mini", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"}
)

// Descriptor describes the provider.
func Descriptor() backend.Descriptor {
	return backend.Descriptor{
		Name:         Name,
		Mode:         backend.ModeRemote,
		Description:  "OpenAI API (Whisper transcription, GPT analysis)",
		Capabilities: []backend.Capability{backend.Transcription, backend.Analysis},
		Models: map[backend.Capability][]string{
			backend.Transcription: transcriptionModels,
			backend.Analysis:      analysisModels,
		},
		DefaultModels: map[backend.Capability]string{
			backend.Transcription: "whisper-1",
			backend.Analysis:      "gpt-4o-mini",
		},
	}
}

// Registration is the provider table row.
func Registration() backend.Registration {
	return backend.Registration{
		Descriptor: Descriptor(),
		Transcription: func(cfg backend.Config) (transcription.Provider, error) {
			return NewTranscriber(cfg)
		},
		Analysis: func(cfg backend.Config) (llm.Provider, error) {
			return NewAnalyst(cfg)
		},
	}
}

func clientConfig(cfg backend.Config) (httpclient.Config, error) {
	rc := cfg.OpenAI
	rc.ApplyDefaults()
	if rc.APIKey == "" {
		return httpclient.Config{}, errors.InvalidInput("providers.openai.api_key", "OPENAI_API_KEY is not set")
	}
	baseURL := rc.BaseURL
	if baseURL == "" {
		baseURL = llmopenai.DefaultBaseURL
	}
	return httpclient.Config{
		BaseURL:     baseURL,
		Timeout:     rc.Timeout,
		Auth:        httpclient.BearerAuth(rc.APIKey),
		Retry:       httpclient.RetryConfigFrom(rc.Retry),
		RateLimiter: rc.RateLimiter(),
	}, nil
}

// NewAnalyst builds a chat-completion adapter for cfg.Model.
func NewAnalyst(cfg backend.Config) (*llm.Adapter, error) {
	hc, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewWithDialect(llmopenai.Dialect{}, llm.Config{
		Name:        Name,
		BaseURL:     hc.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     hc.Timeout,
		Auth:        hc.Auth,
		Retry:       hc.Retry,
		RateLimiter: hc.RateLimiter,
	})
}

// Transcriber uploads audio to /audio/transcriptions.
type Transcriber struct {
	client   *httpclient.Client
	model    string
	language string
}

// NewTranscriber builds a transcription adapter for cfg.Model.
func NewTranscriber(cfg backend.Config) (*Transcriber, error) {
	hc, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &Transcriber{client: client, model: cfg.Model, language: cfg.Language}, nil
}

func (t *Transcriber) Name() string { return Name }

// IsAvailable lists models to check the key and connectivity.
func (t *Transcriber) IsAvailable(ctx context.Context) bool {
	_, err := t.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/models"})
	return err == nil
}

// Transcribe uploads req.AudioPath. The file is reopened on every retry.
func (t *Transcriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	model := req.Model
	if model == "" {
		model = t.model
	}
	lang := req.Language
	if lang == "" {
		lang = t.language
	}

	// Only whisper-1 returns segments.
	format := "json"
	if model == "whisper-1" {
		format = "verbose_json"
	}
	fields := map[string]string{"model": model, "response_format": format}
	if lang != "" {
		fields["language"] = lang
	}

	resp, err := t.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/audio/transcriptions",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName: "file",
				FileName:  filepath.Base(req.AudioPath),
				Path:      req.AudioPath,
			}},
		},
	})
	if err != nil {
		return nil, httpclient.ToAppError(Name, err)
	}

	var out transcriptionResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, errors.ExternalServiceError(Name, fmt.Errorf("decode transcription: %w", err))
	}
	return out.toResponse(), nil
}

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (r *transcriptionResponse) toResponse() *transcription.Response {
	out := &transcription.Response{Text: r.Text, Language: r.Language, Duration: r.Duration}
	for _, s := range r.Segments {
		out.Segments = append(out.Segments, transcription.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return out
}

var _ transcription.Provider = (*Transcriber)(nil)
