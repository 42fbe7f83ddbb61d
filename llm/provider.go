package llm

import (
	"context"

	"github.com/kbukum/samuelizer/provider"
)

// Provider is the analysis capability: anything that completes a chat
// request. The dialect Adapter and the Gemini SDK adapter both implement it.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
