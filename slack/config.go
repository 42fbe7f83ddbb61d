package slack

import (
	"time"

	"github.com/kbukum/samuelizer/resilience"
)

const (
	defaultBaseURL    = "https://slack.com/api"
	defaultPageSize   = 200
	maxPageSize       = 1000
	defaultUserCache  = ".cache/slack_users"
	defaultRatePerSec = 1.0
)

// Config configures the Slack Web API client.
type Config struct {
	// Token is a bot or user token with the conversations and users read
	// scopes.
	Token   string        `yaml:"token" mapstructure:"token"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// PageSize is the limit sent with every paginated call.
	PageSize int `yaml:"page_size" mapstructure:"page_size" validate:"gte=0,lte=1000"`
	// RequestsPerSecond paces every call; Slack's history and list
	// methods allow about one a second.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
	// UserCacheDir keeps resolved user names between runs. Empty disables
	// the disk tier.
	UserCacheDir string                 `yaml:"user_cache_dir" mapstructure:"user_cache_dir"`
	Retry        resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// OutputDir receives downloaded channel exports.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.PageSize == 0 {
		c.PageSize = defaultPageSize
	}
	c.PageSize = min(c.PageSize, maxPageSize)
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = defaultRatePerSec
	}
	if c.UserCacheDir == "" {
		c.UserCacheDir = defaultUserCache
	}
	if c.OutputDir == "" {
		c.OutputDir = "slack_exports"
	}
}
