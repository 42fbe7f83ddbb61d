// Package local runs models on the host: whisper.cpp (or a faster-whisper
// sidecar) for transcription and Ollama for analysis.
package local

import (
	"slices"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/llm/ollama"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/process"
	"github.com/kbukum/samuelizer/transcription"
)

// Name is the registered provider name.
const Name = "local"

var (
	whisperModels = []string{
		"tiny", "tiny.en", "base", "base.en", "small", "small.en",
		"medium", "medium.en", "large-v1", "large-v2", "large-v3", "large-v3-turbo",
	}
	ollamaModels = []string{"llama3.2", "llama3.1", "mistral", "qwen2.5", "phi3", "gemma2"}
)

// Descriptor describes the provider. cfg.AnalysisModels replaces the
// built-in Ollama model list; its first entry becomes the default.
func Descriptor(cfg backend.LocalConfig) backend.Descriptor {
	analysis := ollamaModels
	if len(cfg.AnalysisModels) > 0 {
		analysis = cfg.AnalysisModels
	}
	return backend.Descriptor{
		Name:         Name,
		Mode:         backend.ModeLocal,
		Description:  "On-host whisper.cpp transcription and Ollama analysis",
		Capabilities: []backend.Capability{backend.Transcription, backend.Analysis},
		Models: map[backend.Capability][]string{
			backend.Transcription: slices.Clone(whisperModels),
			backend.Analysis:      slices.Clone(analysis),
		},
		DefaultModels: map[backend.Capability]string{
			backend.Transcription: "base",
			backend.Analysis:      analysis[0],
		},
	}
}

// Registration is the provider table row. runner executes ffmpeg and
// whisper.cpp.
func Registration(cfg backend.LocalConfig, runner process.Runner, log *logger.Logger) backend.Registration {
	return backend.Registration{
		Descriptor: Descriptor(cfg),
		Transcription: func(c backend.Config) (transcription.Provider, error) {
			if c.Local.WhisperURL != "" {
				return NewSidecar(c)
			}
			return NewTranscriber(c, runner, log), nil
		},
		Analysis: func(c backend.Config) (llm.Provider, error) {
			return NewAnalyst(c)
		},
	}
}

// NewAnalyst builds an Ollama chat adapter for cfg.Model. An unpulled model
// surfaces as ModelNotAvailable on the first call.
func NewAnalyst(cfg backend.Config) (*llm.Adapter, error) {
	lc := cfg.Local
	lc.ApplyDefaults()
	return llm.NewWithDialect(ollama.Dialect{}, llm.Config{
		Name:    Name,
		BaseURL: lc.OllamaURL,
		Model:   cfg.Model,
		Timeout: lc.Timeout,
	})
}
