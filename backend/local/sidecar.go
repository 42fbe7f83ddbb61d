package local

import (
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/transcription"
	"github.com/kbukum/samuelizer/transcription/whisper"
)

// Sidecar is the faster-whisper HTTP sidecar reported under the local name.
type Sidecar struct {
	*whisper.Provider
}

// NewSidecar targets cfg.Local.WhisperURL.
func NewSidecar(cfg backend.Config) (*Sidecar, error) {
	lc := cfg.Local
	lc.ApplyDefaults()
	p, err := whisper.NewProvider(whisper.Config{
		URL:      lc.WhisperURL,
		Model:    cfg.Model,
		Language: cfg.Language,
		Timeout:  lc.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Sidecar{Provider: p}, nil
}

func (s *Sidecar) Name() string { return Name }

var (
	_ transcription.Provider       = (*Sidecar)(nil)
	_ transcription.FormatAgnostic = (*Sidecar)(nil)
)
