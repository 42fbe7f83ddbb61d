package transcription

import (
	"context"

	"github.com/kbukum/samuelizer/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends audio for transcription and returns the result.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// FormatAgnostic is implemented by providers that convert any container
// themselves, so callers may skip audio optimization.
type FormatAgnostic interface {
	AcceptsAnyFormat() bool
}

// AcceptsAnyFormat reports whether p converts arbitrary media itself.
func AcceptsAnyFormat(p Provider) bool {
	fa, ok := p.(FormatAgnostic)
	return ok && fa.AcceptsAnyFormat()
}
