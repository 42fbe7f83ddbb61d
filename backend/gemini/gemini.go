// Package gemini adapts Google's Gemini models for analysis through the
// genai SDK.
package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/provider"
)

// Name is the registered provider name.
const Name = "gemini"

var analysisModels = []string{
	"gemini-2.0-flash", "gemini-2.0-flash-lite",
	"gemini-2.5-flash", "gemini-2.5-pro",
	"gemini-1.5-flash", "gemini-1.5-pro",
}

// Descriptor describes the provider.
func Descriptor() backend.Descriptor {
	return backend.Descriptor{
		Name:          Name,
		Mode:          backend.ModeRemote,
		Description:   "Google Gemini API (analysis)",
		Capabilities:  []backend.Capability{backend.Analysis},
		Models:        map[backend.Capability][]string{backend.Analysis: analysisModels},
		DefaultModels: map[backend.Capability]string{backend.Analysis: "gemini-2.0-flash"},
	}
}

// Registration is the provider table row.
func Registration() backend.Registration {
	return backend.Registration{
		Descriptor: Descriptor(),
		Analysis: func(cfg backend.Config) (llm.Provider, error) {
			return NewAnalyst(context.Background(), cfg)
		},
	}
}

// Analyst implements llm.Provider on the genai client.
type Analyst struct {
	client    *genai.Client
	model     string
	temp      *float64
	maxTokens int
	guard     *provider.Guard
}

// NewAnalyst builds an analyst for cfg.Model. The SDK client does no I/O
// until the first call.
func NewAnalyst(ctx context.Context, cfg backend.Config) (*Analyst, error) {
	rc := cfg.Gemini
	rc.ApplyDefaults()
	if rc.APIKey == "" {
		return nil, errors.InvalidInput("providers.gemini.api_key", "GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      rc.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: rc.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: rc.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	retry := rc.Retry
	retry.RetryIf = retryable
	return &Analyst{
		client:    client,
		model:     cfg.Model,
		temp:      rc.Temperature,
		maxTokens: rc.MaxTokens,
		guard: provider.NewGuard(provider.ResilienceConfig{
			Retry:       &retry,
			RateLimiter: rc.RateLimiter(),
		}),
	}, nil
}

func (a *Analyst) Name() string { return Name }

// IsAvailable fetches the model's metadata.
func (a *Analyst) IsAvailable(ctx context.Context) bool {
	_, err := a.client.Models.Get(ctx, a.model, nil)
	return err == nil
}

// Complete sends one generateContent call, retrying transient failures.
func (a *Analyst) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	contents, config := a.build(req)

	resp, err := provider.Guarded(ctx, a.guard, func() (*genai.GenerateContentResponse, error) {
		return a.client.Models.GenerateContent(ctx, model, contents, config)
	})
	if err != nil {
		return nil, mapError(model, err)
	}

	out := &llm.CompletionResponse{Content: resp.Text(), Model: model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	if out.Content == "" {
		return nil, errors.ExternalServiceError(Name, fmt.Errorf("empty response"))
	}
	return out, nil
}

func (a *Analyst) build(req llm.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	var system []string
	if req.SystemPrompt != "" {
		system = append(system, req.SystemPrompt)
	}
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	temp := req.Temperature
	if temp == nil {
		temp = a.temp
	}
	if temp != nil {
		config.Temperature = genai.Ptr(float32(*temp))
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.maxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return contents, config
}

func apiError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if stderrors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if stderrors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// retryable retries 429, 5xx and transport failures. Context ends and other
// 4xx are final.
func retryable(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if e, ok := apiError(err); ok {
		return e.Code == http.StatusTooManyRequests || e.Code >= 500
	}
	return true
}

func mapError(model string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(Name).WithCause(err)
	}
	e, ok := apiError(err)
	if !ok {
		return errors.ConnectionFailed(Name).WithCause(err)
	}
	switch {
	case e.Code == http.StatusNotFound:
		return errors.ModelNotAvailable(Name, model).WithCause(err)
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden:
		return errors.Unauthorized(Name + " rejected the credentials").WithCause(err)
	case e.Code == http.StatusTooManyRequests:
		return errors.RateLimited().WithCause(err)
	case e.Code == http.StatusBadRequest:
		return errors.InvalidInput("request", e.Message).WithCause(err)
	default:
		return errors.ExternalServiceError(Name, err)
	}
}

var _ llm.Provider = (*Analyst)(nil)
