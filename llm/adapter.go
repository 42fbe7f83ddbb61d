package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/httpclient"
	"github.com/kbukum/samuelizer/httpclient/rest"
)

// ErrNoDialect is returned by NewWithDialect for a nil dialect.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter speaks one chat API over the JSON client. The dialect owns the
// wire format; the client owns auth, retry, rate limiting and timeouts.
type Adapter struct {
	cfg     Config
	dialect Dialect
	client  *rest.Client
}

// New builds an adapter for the dialect named by cfg.Dialect.
func New(cfg Config) (*Adapter, error) {
	d, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(d, cfg)
}

// NewWithDialect builds an adapter around d. An empty cfg.Name becomes
// "<dialect>-llm".
func NewWithDialect(d Dialect, cfg Config) (*Adapter, error) {
	if d == nil {
		return nil, ErrNoDialect
	}
	if cfg.Name == "" {
		cfg.Name = d.Name() + "-llm"
	}
	client, err := rest.New(cfg.transport())
	if err != nil {
		return nil, fmt.Errorf("llm: %s: %w", cfg.Name, err)
	}
	return &Adapter{cfg: cfg, dialect: d, client: client}, nil
}

// Name implements provider.Provider.
func (a *Adapter) Name() string { return a.cfg.Name }

// IsAvailable probes the dialect's health path, if it has one.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	path := a.dialect.HealthPath()
	if path == "" {
		return true
	}
	_, err := rest.Get[json.RawMessage](ctx, a.client, path)
	return err == nil
}

// Dialect returns the wire mapping in use.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Complete implements Provider. A 404 from the chat path means the server
// does not know the model and maps to MODEL_NOT_AVAILABLE.
func (a *Adapter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	req = a.cfg.defaults(req)
	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	raw, err := rest.Post[json.RawMessage](ctx, a.client, a.dialect.ChatPath(), body)
	switch {
	case httpclient.IsNotFound(err):
		return nil, apperrors.ModelNotAvailable(a.cfg.Name, req.Model).WithCause(err)
	case err != nil:
		return nil, httpclient.ToAppError(a.cfg.Name, err)
	}
	resp, err := a.dialect.ParseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("llm: parse response: %w", err)
	}
	return resp, nil
}

var _ Provider = (*Adapter)(nil)
