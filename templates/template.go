package templates

import (
	"fmt"
	"strings"
)

// Reserved template names.
const (
	Auto     = "auto"
	Classify = "classify"
	Chunk    = "chunk"
	Fallback = "summary"
)

// Section is one keyed part of a structured result.
type Section struct {
	Key         string `yaml:"key" json:"key"`
	Title       string `yaml:"title" json:"title"`
	Instruction string `yaml:"instruction" json:"instruction"`
}

// Parameters tune the generated output.
type Parameters struct {
	MaxLength int    `yaml:"max_length" json:"max_length"`
	Style     string `yaml:"style" json:"style"`
	Format    string `yaml:"format" json:"format"`
}

// Template is an analysis prompt with its expected sections.
type Template struct {
	Name         string     `yaml:"name" json:"name"`
	Description  string     `yaml:"description" json:"description"`
	System       string     `yaml:"system" json:"-"`
	Instructions string     `yaml:"instructions" json:"-"`
	Sections     []Section  `yaml:"sections" json:"sections"`
	Parameters   Parameters `yaml:"parameters" json:"parameters"`

	internal bool
}

// Internal reports whether the template is a pipeline prompt.
func (t Template) Internal() bool { return t.internal }

// Keys returns the section keys in order.
func (t Template) Keys() []string {
	keys := make([]string, len(t.Sections))
	for i, s := range t.Sections {
		keys[i] = s.Key
	}
	return keys
}

// Title returns the heading for key, falling back to the key itself.
func (t Template) Title(key string) string {
	for _, s := range t.Sections {
		if s.Key == key && s.Title != "" {
			return s.Title
		}
	}
	return key
}

// Prompt renders the user message for text. A template with sections asks
// for a JSON object keyed by section.
func (t Template) Prompt(text string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(t.Instructions))
	b.WriteString("\n\n")
	if len(t.Sections) > 0 {
		b.WriteString("Respond with a JSON object with exactly these keys, each holding plain text:\n")
		for _, s := range t.Sections {
			fmt.Fprintf(&b, "- %q: %s\n", s.Key, s.Instruction)
		}
		b.WriteString("\n")
	}
	if p := t.Parameters; p.MaxLength > 0 || p.Style != "" {
		b.WriteString("Constraints:")
		if p.MaxLength > 0 {
			fmt.Fprintf(&b, " at most %d words.", p.MaxLength)
		}
		if p.Style != "" {
			fmt.Fprintf(&b, " Style: %s.", p.Style)
		}
		b.WriteString("\n\n")
	}
	b.WriteString("Text to analyze:\n")
	b.WriteString(text)
	return b.String()
}

func (t Template) validate() error {
	if t.Name == "" {
		return fmt.Errorf("templates: name is required")
	}
	if t.Name == Auto {
		return fmt.Errorf("templates: %q is reserved", Auto)
	}
	if strings.TrimSpace(t.Instructions) == "" {
		return fmt.Errorf("templates: %s: instructions are required", t.Name)
	}
	seen := make(map[string]bool, len(t.Sections))
	for _, s := range t.Sections {
		if s.Key == "" {
			return fmt.Errorf("templates: %s: section key is required", t.Name)
		}
		if seen[s.Key] {
			return fmt.Errorf("templates: %s: duplicate section %q", t.Name, s.Key)
		}
		seen[s.Key] = true
	}
	return nil
}
