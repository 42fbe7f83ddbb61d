package orchestrator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/templates"
)

// parseSections reads a template fill: a JSON object keyed by section,
// else headings matching section titles or keys, else the whole text under
// the first section.
func parseSections(tpl templates.Template, out string) (map[string]string, []string) {
	keys := tpl.Keys()
	if len(keys) == 0 {
		keys = []string{"analysis"}
	}
	if sections, order, ok := parseJSON(keys, out); ok {
		return sections, order
	}
	if sections, order, ok := parseHeadings(tpl, keys, out); ok {
		return sections, order
	}
	return map[string]string{keys[0]: strings.TrimSpace(out)}, keys[:1]
}

func parseJSON(keys []string, out string) (map[string]string, []string, bool) {
	var raw map[string]any
	if err := llm.DecodeJSON(out, &raw); err != nil || len(raw) == 0 {
		return nil, nil, false
	}
	sections := make(map[string]string, len(raw))
	var order []string
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			sections[k] = render(v)
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return nil, nil, false
	}
	var extra []string
	for k := range raw {
		if _, ok := sections[k]; !ok {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		sections[k] = render(raw[k])
		order = append(order, k)
	}
	return sections, order, true
}

func render(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := render(item); s != "" {
				lines = append(lines, "- "+s)
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+": "+render(t[k]))
		}
		return strings.Join(lines, "\n")
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

var headingLine = regexp.MustCompile(`^\s*(?:#{1,6}\s*)?(?:\d+[.)]\s*)?\**\s*([^*:#]+?)\s*\**\s*:?\s*\**\s*$`)

func parseHeadings(tpl templates.Template, keys []string, out string) (map[string]string, []string, bool) {
	lookup := make(map[string]string, 2*len(keys))
	for _, k := range keys {
		lookup[normalize(k)] = k
		lookup[normalize(tpl.Title(k))] = k
	}

	sections := make(map[string]string)
	var order []string
	current := ""
	var body []string
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
		body = body[:0]
	}
	for _, line := range strings.Split(out, "\n") {
		if m := headingLine.FindStringSubmatch(line); m != nil {
			if key, ok := lookup[normalize(m[1])]; ok {
				flush()
				current = key
				if !slices.Contains(order, key) {
					order = append(order, key)
				}
				continue
			}
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()
	return sections, order, len(order) > 0
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
