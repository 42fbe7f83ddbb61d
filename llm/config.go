package llm

import (
	"time"

	"github.com/kbukum/samuelizer/httpclient"
	"github.com/kbukum/samuelizer/resilience"
)

// DefaultTimeout bounds one chat call when Config.Timeout is zero. Local
// models on CPU are slow, so this is far above the transport default.
const DefaultTimeout = 2 * time.Minute

// Config describes one chat endpoint. Dialect picks the wire mapping and
// must name a dialect added with RegisterDialect (New only).
type Config struct {
	Name    string `yaml:"name" json:"name"`
	Dialect string `yaml:"dialect" json:"dialect"`
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Defaults for requests that leave these unset.
	Model       string  `yaml:"model" json:"model"`
	Temperature *float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`

	Timeout time.Duration     `yaml:"timeout" json:"timeout"`
	Headers map[string]string `yaml:"headers" json:"headers"`

	Auth        *httpclient.AuthConfig         `yaml:"-" json:"-"`
	Retry       *resilience.RetryConfig        `yaml:"retry" json:"retry"` // nil: single attempt
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" json:"rate_limiter"`
}

// transport derives the JSON client settings.
func (c Config) transport() httpclient.Config {
	hc := httpclient.Config{
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		Headers:     c.Headers,
		Auth:        c.Auth,
		RateLimiter: c.RateLimiter,
	}
	if hc.Timeout <= 0 {
		hc.Timeout = DefaultTimeout
	}
	if c.Retry != nil {
		hc.Retry = httpclient.RetryConfigFrom(*c.Retry)
	}
	return hc
}

// defaults fills the zero fields of req from the configured values.
func (c Config) defaults(req CompletionRequest) CompletionRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Temperature == nil {
		req.Temperature = c.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	return req
}
