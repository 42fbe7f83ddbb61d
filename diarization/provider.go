package diarization

import (
	"context"

	"github.com/kbukum/samuelizer/provider"
)

// Provider labels who spoke when in an audio file.
type Provider interface {
	provider.Provider
	Diarize(ctx context.Context, req Request) (*Response, error)
}
