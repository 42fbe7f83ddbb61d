package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/capture"
	"github.com/kbukum/samuelizer/config"
	"github.com/kbukum/samuelizer/diarization/pyannote"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/export"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/server"
	"github.com/kbukum/samuelizer/slack"
	"github.com/kbukum/samuelizer/templates"
	"github.com/kbukum/samuelizer/validation"
	"github.com/kbukum/samuelizer/watch"
)

// ServiceName names the binary, its config files and its env prefix.
const ServiceName = "samuelizer"

// legacyEnv maps environment names that predate the config layout.
var legacyEnv = map[string]string{
	"OPENAI_API_KEY":         "providers.openai.api_key",
	"GEMINI_API_KEY":         "providers.gemini.api_key",
	"SLACK_TOKEN":            "slack.token",
	"SLACK_RATE_LIMIT_DELAY": "rate_limit_delay",
	"SLACK_BATCH_SIZE":       "batch_size",
	"OUTPUT_DIR":             "output.dir",
	"LOG_FILE":               "logging.file",
	"CACHE_DIR":              "cache.dir",
}

// Config is the samuelizer configuration file.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Provider is the default provider for both capabilities.
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Models are the default models per capability; empty uses the
	// provider's own default.
	Models ModelDefaults `yaml:"models" mapstructure:"models"`

	// RateLimitDelay is the pause, in seconds, between batches of inputs.
	RateLimitDelay float64 `yaml:"rate_limit_delay" mapstructure:"rate_limit_delay" validate:"gte=0"`
	// BatchSize is the number of inputs processed between pauses.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=0"`

	Transcription TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
	Analysis      AnalysisConfig       `yaml:"analysis" mapstructure:"analysis"`
	Cache         cache.Config         `yaml:"cache" mapstructure:"cache"`
	Providers     ProvidersConfig      `yaml:"providers" mapstructure:"providers"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Templates     TemplatesConfig      `yaml:"templates" mapstructure:"templates"`
	Watch         watch.Config         `yaml:"watch" mapstructure:"watch"`
	Capture       capture.Config       `yaml:"capture" mapstructure:"capture"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Output        OutputConfig         `yaml:"output" mapstructure:"output"`
	Slack         slack.Config         `yaml:"slack" mapstructure:"slack"`
}

// ModelDefaults holds one default model per capability.
type ModelDefaults struct {
	Transcription string `yaml:"transcription" mapstructure:"transcription"`
	Analysis      string `yaml:"analysis" mapstructure:"analysis"`
}

// TranscriptionConfig tunes the transcriber.
type TranscriptionConfig struct {
	// Provider overrides the top-level provider for transcription.
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Language    string `yaml:"language" mapstructure:"language"`
	Diarization bool   `yaml:"diarization" mapstructure:"diarization"`
	// FallbackToRemote retries on FallbackProvider when a local model is
	// missing.
	FallbackToRemote bool          `yaml:"fallback_to_remote" mapstructure:"fallback_to_remote"`
	FallbackProvider string        `yaml:"fallback_provider" mapstructure:"fallback_provider"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AnalysisConfig tunes the analyzer.
type AnalysisConfig struct {
	// Provider overrides the top-level provider for analysis.
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	Template    string        `yaml:"template" mapstructure:"template"`
	ChunkSize   int           `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=16"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ProvidersConfig holds the provider sections plus the diarization sidecar.
type ProvidersConfig struct {
	backend.Config `yaml:",inline" mapstructure:",squash"`
	Pyannote       pyannote.Config `yaml:"pyannote" mapstructure:"pyannote"`
}

// TemplatesConfig locates custom templates.
type TemplatesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// OutputConfig controls where exports go.
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// DefaultConfig returns the settings used when the file and the
// environment say nothing. Booleans that default to true are set here
// because ApplyDefaults cannot tell false from unset.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Cache.Enabled = true
	cfg.Media.Enabled = true
	cfg.Transcription.FallbackToRemote = true
	return cfg
}

// ApplyDefaults fills zero values in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.RateLimitDelay == 0 {
		c.RateLimitDelay = 1.0
	}
	if c.BatchSize == 0 {
		c.BatchSize = 1000
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = c.Provider
	}
	if c.Transcription.FallbackProvider == "" {
		c.Transcription.FallbackProvider = "openai"
	}
	if c.Analysis.Provider == "" {
		c.Analysis.Provider = c.Provider
	}
	if c.Analysis.Template == "" {
		c.Analysis.Template = templates.Auto
	}
	if c.Templates.Dir == "" {
		c.Templates.Dir = "templates"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = []string{"docx", "json", "txt"}
	}
	if c.Capture.OutputDir == "" {
		c.Capture.OutputDir = c.Output.Dir
	}
	c.Cache.ApplyDefaults()
	c.Providers.ApplyDefaults()
	c.Providers.Pyannote.ApplyDefaults()
	c.Media.ApplyDefaults()
	c.Watch.ApplyDefaults()
	c.Capture.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Slack.ApplyDefaults()
}

// Validate checks struct tags and every section's own rules.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return configError(err)
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	for _, check := range []func() error{
		c.Cache.Validate,
		c.Media.Validate,
		c.Server.Validate,
	} {
		if err := check(); err != nil {
			return configError(err)
		}
	}
	if _, err := export.ParseFormats(c.Output.Formats); err != nil {
		return err
	}
	return nil
}

// RateLimitPause is RateLimitDelay as a duration.
func (c *Config) RateLimitPause() time.Duration {
	return time.Duration(c.RateLimitDelay * float64(time.Second))
}

func configError(err error) error {
	return errors.InvalidInput("config", err.Error()).WithCause(err)
}

// LoadConfig reads the configuration. An empty path searches the usual
// locations (./config.yml, ./config/config.yml, ./cmd/samuelizer/config.yml).
// Environment variables override the file, with or without the SAMUELIZER_
// prefix, and the legacy names in legacyEnv are honored.
func LoadConfig(path string, opts ...config.LoaderOption) (*Config, error) {
	cfg := DefaultConfig()
	loader := []config.LoaderOption{
		config.WithEnvPrefix(strings.ToUpper(ServiceName)),
		config.WithEnvAliases(legacyEnv),
	}
	if path != "" {
		loader = append(loader, config.WithConfigFile(path))
	}
	loader = append(loader, opts...)
	if err := config.LoadConfig(ServiceName, cfg, loader...); err != nil {
		return nil, configError(fmt.Errorf("load: %w", err))
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
