package orchestrator

import (
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/transcription"
)

// TranscriptionRequest selects the input and how to transcribe it. Empty
// Provider and Model use the configured defaults; an empty Mode accepts the
// provider's registered mode.
type TranscriptionRequest struct {
	AudioPath   string       `json:"audio_path"`
	Diarization bool         `json:"diarization"`
	Model       string       `json:"model,omitempty"`
	Provider    string       `json:"provider,omitempty"`
	Mode        backend.Mode `json:"mode,omitempty"`
	UseCache    bool         `json:"use_cache"`
	Language    string       `json:"language,omitempty"`
}

// TranscriptionResult is the transcript plus how it was obtained.
type TranscriptionResult struct {
	Text        string                  `json:"text"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Cached      bool                    `json:"cached"`
	Provider    string                  `json:"provider"`
	Model       string                  `json:"model"`
	Optimized   bool                    `json:"optimized"`
	Segments    []transcription.Segment `json:"segments,omitempty"`
	Language    string                  `json:"language,omitempty"`
	Duration    float64                 `json:"duration,omitempty"`
	// Warnings lists degraded steps that did not fail the request.
	Warnings []string `json:"warnings,omitempty"`
}

// AnalysisRequest selects the text and template. Template "auto" or empty
// lets the provider choose.
type AnalysisRequest struct {
	Text     string       `json:"text"`
	Template string       `json:"template,omitempty"`
	Model    string       `json:"model,omitempty"`
	Provider string       `json:"provider,omitempty"`
	Mode     backend.Mode `json:"mode,omitempty"`
}

// AnalysisResult holds the filled template sections in template order.
type AnalysisResult struct {
	Template string            `json:"template"`
	Sections map[string]string `json:"sections"`
	Order    []string          `json:"order"`
	Titles   map[string]string `json:"titles,omitempty"`
	Chunks   int               `json:"chunks"`
	// Incomplete lists chunk indexes that failed and were merged as markers.
	Incomplete []int  `json:"incomplete,omitempty"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// Section returns the text for key.
func (r *AnalysisResult) Section(key string) string { return r.Sections[key] }
