// Package llm provides a config-driven chat completion adapter built on the
// httpclient/rest client.
//
// The adapter works with any chat API via the Dialect pattern, similar to how
// database/sql works with driver packages. Two dialects ship with the module:
//
//   - llm/openai: OpenAI chat completions (/v1/chat/completions)
//   - llm/ollama: Ollama native chat (/api/chat) for local models
//
// # Usage
//
//	import (
//	    "github.com/kbukum/samuelizer/llm"
//	    _ "github.com/kbukum/samuelizer/llm/ollama" // registers "ollama"
//	)
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "ollama",
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.2",
//	})
//	text, err := llm.Ask(ctx, adapter, llm.UserPrompt(system, transcript))
//
// A chat request against a model the server does not know maps to a
// MODEL_NOT_AVAILABLE AppError so callers can fall back to another provider.
package llm
