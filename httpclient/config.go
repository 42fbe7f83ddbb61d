package httpclient

import (
	"time"

	"github.com/kbukum/samuelizer/resilience"
)

// DefaultTimeout caps a single attempt when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Config configures a Client. BaseURL, Timeout and Headers come from
// configuration files; the rest is wired by each adapter.
type Config struct {
	BaseURL string            `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	Auth        *AuthConfig                   `yaml:"-" mapstructure:"-"`
	Retry       *resilience.RetryConfig       `yaml:"-" mapstructure:"-"` // nil: single attempt
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"` // nil: unlimited
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// DefaultRetryConfig returns the resilience defaults restricted to
// transient HTTP failures.
func DefaultRetryConfig() *resilience.RetryConfig {
	return RetryConfigFrom(resilience.DefaultRetryConfig())
}

// RetryConfigFrom fills unset fields of cfg from the defaults and retries
// only what IsRetryable accepts.
func RetryConfigFrom(cfg resilience.RetryConfig) *resilience.RetryConfig {
	cfg = cfg.WithDefaults()
	cfg.RetryIf = IsRetryable
	return &cfg
}
