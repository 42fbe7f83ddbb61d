// Package templates holds the analysis prompt templates.
//
// A Registry starts with the built-in templates and can load more from YAML
// files. The internal "classify" and "chunk" prompts drive automatic template
// selection and long-input summarization; they are never listed or chosen.
//
//	reg := templates.NewRegistry()
//	if _, err := reg.LoadDir("./templates"); err != nil { ... }
//	t, err := reg.Get("executive")
//	prompt := t.Prompt(transcript)
package templates
