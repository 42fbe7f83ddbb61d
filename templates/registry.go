package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/samuelizer/errors"
)

// Registry is a concurrency-safe set of templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range builtins() {
		r.templates[t.Name] = t
	}
	return r
}

// Add registers t, replacing any template with the same name. Internal
// prompts can be overridden but stay internal.
func (r *Registry) Add(t Template) error {
	if err := t.validate(); err != nil {
		return errors.InvalidInput("template", err.Error())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.templates[t.Name]; ok && prev.internal {
		t.internal = true
	}
	r.templates[t.Name] = t
	return nil
}

// Get returns the named template.
func (r *Registry) Get(name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	if !ok {
		return Template{}, errors.InvalidInput("template", fmt.Sprintf("unknown template %q", name)).
			WithDetail("available", r.namesLocked())
	}
	return t, nil
}

// Has reports whether name is a selectable template.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return ok && !t.internal
}

// List returns the selectable templates sorted by name.
func (r *Registry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		if !t.internal {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Template) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Names returns the selectable template names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.templates))
	for name, t := range r.templates {
		if !t.internal {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// LoadDir adds every *.yaml and *.yml file in dir. A missing directory loads
// nothing. The file name is used when the document has no name.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("templates: read %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		t, err := loadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, err
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(e.Name(), ext)
		}
		if err := r.Add(t); err != nil {
			return n, fmt.Errorf("templates: %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}

func loadFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, err
	}
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("templates: parsing %s: %w", path, err)
	}
	return t, nil
}

// ParseChoice extracts a template name from a classification answer: the
// text after the last ':' on the first line, lowercased with '*' removed.
// Anything not registered yields Fallback.
func (r *Registry) ParseChoice(answer string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	if i := strings.LastIndex(first, ":"); i >= 0 {
		first = first[i+1:]
	}
	name := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(first, "*", "")))
	if r.Has(name) {
		return name
	}
	return Fallback
}

// ClassifyPrompt renders the classification prompt listing the selectable
// templates.
func (r *Registry) ClassifyPrompt(text string) (Template, string, error) {
	t, err := r.Get(Classify)
	if err != nil {
		return Template{}, "", err
	}
	var b strings.Builder
	for _, c := range r.List() {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	t.Instructions = strings.ReplaceAll(t.Instructions, "{templates}", strings.TrimRight(b.String(), "\n"))
	return t, t.Prompt(text), nil
}
