package logger

import (
	"fmt"
	"slices"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "disabled"}
	formats = []string{"json", "console", "pretty"}
	outputs = []string{"stdout", "stderr", "file"}
)

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"` // stdout, stderr or file
	File      string `yaml:"file" mapstructure:"file"`     // path when Output is "file"
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills empty fields. Setting File alone selects file output.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
		if c.File != "" {
			c.Output = "file"
		}
	}
	c.Timestamp = true
}

func (c *Config) Validate() error {
	for _, f := range []struct {
		name, val string
		allowed   []string
	}{
		{"level", c.Level, levels},
		{"format", c.Format, formats},
		{"output", c.Output, outputs},
	} {
		if !slices.Contains(f.allowed, f.val) {
			return fmt.Errorf("logging.%s must be one of %v (got: %s)", f.name, f.allowed, f.val)
		}
	}
	if c.Output == "file" && c.File == "" {
		return fmt.Errorf("logging.file is required when logging.output is file")
	}
	return nil
}
