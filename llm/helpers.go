package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Ask sends a single-turn prompt and returns the answer text.
func Ask(ctx context.Context, p Provider, req CompletionRequest) (string, error) {
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// DecodeJSON unmarshals the JSON object embedded in a model answer.
func DecodeJSON(answer string, v any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(answer)), v); err != nil {
		return fmt.Errorf("llm: decode answer: %w", err)
	}
	return nil
}

// ExtractJSON returns the outermost {...} of a model answer, dropping
// markdown fences and any chatter around the object. Answers without an
// object come back trimmed but otherwise unchanged.
func ExtractJSON(answer string) string {
	s := strings.TrimSpace(answer)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Skip the fence's language tag line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
