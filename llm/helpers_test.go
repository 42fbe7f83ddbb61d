package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 1 {
			t.Errorf("messages = %v", body["messages"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "Decisions: ship Friday.", "model": "test"})
	}))
	defer srv.Close()

	a, err := NewWithDialect(echoDialect{}, Config{BaseURL: srv.URL, Model: "test"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Ask(context.Background(), a, UserPrompt("You summarize meetings.", "transcript"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Decisions: ship Friday." {
		t.Errorf("Ask = %q", got)
	}
}

func TestUserPrompt(t *testing.T) {
	req := UserPrompt("sys", "hello")
	if req.SystemPrompt != "sys" || len(req.Messages) != 1 || req.Messages[0].Role != RoleUser {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Summary     string   `json:"summary"`
		ActionItems []string `json:"action_items"`
	}
	answer := "Sure! Here you go:\n```json\n{\"summary\": \"Ship on Friday.\", \"action_items\": [\"Tag release\"]}\n```"
	if err := DecodeJSON(answer, &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary != "Ship on Friday." || len(out.ActionItems) != 1 {
		t.Errorf("decoded %+v", out)
	}
	if err := DecodeJSON("no object here", &out); err == nil {
		t.Error("expected error for an answer without JSON")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"summary": "ok"}`, `{"summary": "ok"}`},
		{"padded", "  {\"summary\": \"ok\"}\n", `{"summary": "ok"}`},
		{"fenced", "```json\n{\"summary\": \"ok\"}\n```", `{"summary": "ok"}`},
		{"bare fence", "```\n{\"summary\": \"ok\"}\n```", `{"summary": "ok"}`},
		{"preamble", `Here is the analysis: {"summary": "ok"} Hope this helps.`, `{"summary": "ok"}`},
		{"nested", `{"a": {"b": 1}}`, `{"a": {"b": 1}}`},
		{"no object", "  just text ", "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
