package backend

import (
	"time"

	"github.com/kbukum/samuelizer/resilience"
)

// Config carries everything a factory needs to build an adapter. The
// provider sections come from configuration; Model and Language are set per
// call by the Registry and the orchestrators.
type Config struct {
	OpenAI RemoteConfig `yaml:"openai" mapstructure:"openai"`
	Gemini RemoteConfig `yaml:"gemini" mapstructure:"gemini"`
	Local  LocalConfig  `yaml:"local" mapstructure:"local"`

	// Model is the resolved model for the capability being built.
	Model string `yaml:"-" mapstructure:"-"`
	// Language is an optional transcription language hint.
	Language string `yaml:"-" mapstructure:"-"`
}

// DefaultTemperature applies when a remote provider sets no temperature.
const DefaultTemperature = 0.3

// RemoteConfig configures a cloud API provider.
type RemoteConfig struct {
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// RequestsPerSecond throttles calls client-side. Zero disables it.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Temperature nil means DefaultTemperature; 0 is deterministic output.
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ApplyDefaults fills zero values.
func (c *RemoteConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}
	c.Retry = c.Retry.WithDefaults()
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
}

// RateLimiter returns the limiter config, or nil when throttling is off.
func (c *RemoteConfig) RateLimiter() *resilience.RateLimiterConfig {
	if c.RequestsPerSecond <= 0 {
		return nil
	}
	burst := int(c.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &resilience.RateLimiterConfig{Rate: c.RequestsPerSecond, Burst: burst}
}

// LocalConfig configures on-host models.
type LocalConfig struct {
	// WhisperBinary is the whisper.cpp CLI.
	WhisperBinary string `yaml:"whisper_binary" mapstructure:"whisper_binary"`
	// ModelsDir holds ggml-<model>.bin files.
	ModelsDir string `yaml:"models_dir" mapstructure:"models_dir"`
	// WhisperURL selects a faster-whisper sidecar instead of whisper.cpp.
	WhisperURL string `yaml:"whisper_url" mapstructure:"whisper_url"`
	Threads    int    `yaml:"threads" mapstructure:"threads"`
	FFmpeg     string `yaml:"ffmpeg" mapstructure:"ffmpeg"`

	OllamaURL string `yaml:"ollama_url" mapstructure:"ollama_url"`
	// AnalysisModels replaces the built-in list of local analysis models.
	AnalysisModels []string `yaml:"analysis_models" mapstructure:"analysis_models"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills zero values.
func (c *LocalConfig) ApplyDefaults() {
	if c.WhisperBinary == "" {
		c.WhisperBinary = "whisper-cli"
	}
	if c.ModelsDir == "" {
		c.ModelsDir = "models"
	}
	if c.Threads == 0 {
		c.Threads = 4
	}
	if c.FFmpeg == "" {
		c.FFmpeg = "ffmpeg"
	}
	if c.OllamaURL == "" {
		c.OllamaURL = "http://localhost:11434"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Minute
	}
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	c.OpenAI.ApplyDefaults()
	c.Gemini.ApplyDefaults()
	c.Local.ApplyDefaults()
}
