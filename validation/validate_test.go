package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/samuelizer/errors"
)

type cacheSection struct {
	Backend string `mapstructure:"backend" validate:"oneof=file redis"`
	Dir     string `mapstructure:"dir" validate:"required"`
}

type appSection struct {
	Provider  string       `mapstructure:"provider" validate:"required"`
	BatchSize int          `mapstructure:"batch_size" validate:"gte=1"`
	Cache     cacheSection `mapstructure:"cache"`
}

func TestValidate_OK(t *testing.T) {
	cfg := appSection{Provider: "openai", BatchSize: 10, Cache: cacheSection{Backend: "file", Dir: "/tmp"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_FieldPathsUseConfigKeys(t *testing.T) {
	cfg := appSection{BatchSize: 0, Cache: cacheSection{Backend: "s3"}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT AppError, got %v", err)
	}
	for _, want := range []string{"provider is required", "batch_size must be greater than or equal to 1", "cache.backend must be one of: file redis", "cache.dir is required"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("message %q missing %q", appErr.Message, want)
		}
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Details["fields"])
	}
	if errors.ExitCode(err) != errors.ExitInvalidInput {
		t.Errorf("expected invalid input exit code, got %d", errors.ExitCode(err))
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("ChunkSize"); got != "chunk_size" {
		t.Errorf("got %q", got)
	}
}
