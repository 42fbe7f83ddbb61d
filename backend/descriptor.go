package backend

import (
	"fmt"
	"slices"
)

// Mode says where a provider runs.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// ParseMode accepts "", "remote" and "local". Empty means "whatever the
// provider is registered as".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeRemote, ModeLocal:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Capability is something a provider can do.
type Capability string

const (
	Transcription Capability = "transcription"
	Analysis      Capability = "analysis"
)

// Descriptor is the immutable description of a registered provider.
type Descriptor struct {
	Name         string       `json:"name"`
	Mode         Mode         `json:"mode"`
	Description  string       `json:"description,omitempty"`
	Capabilities []Capability `json:"capabilities"`
	// Models lists known models per capability, in display order. An empty
	// list accepts any model and leaves validation to the adapter.
	Models        map[Capability][]string `json:"models"`
	DefaultModels map[Capability]string   `json:"default_models"`
}

// Supports reports whether c is in the capability set.
func (d Descriptor) Supports(c Capability) bool {
	return slices.Contains(d.Capabilities, c)
}

// ModelFor returns the model to use for c: requested when set, otherwise
// the default. ok is false when requested is not a known model.
func (d Descriptor) ModelFor(c Capability, requested string) (model string, ok bool) {
	if requested == "" {
		return d.DefaultModels[c], true
	}
	known := d.Models[c]
	if len(known) == 0 || slices.Contains(known, requested) {
		return requested, true
	}
	return requested, false
}

func (d Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("backend: descriptor name is required")
	}
	if d.Mode != ModeRemote && d.Mode != ModeLocal {
		return fmt.Errorf("backend: %s: invalid mode %q", d.Name, d.Mode)
	}
	if len(d.Capabilities) == 0 {
		return fmt.Errorf("backend: %s: at least one capability is required", d.Name)
	}
	for c, m := range d.DefaultModels {
		if known := d.Models[c]; len(known) > 0 && !slices.Contains(known, m) {
			return fmt.Errorf("backend: %s: default %s model %q is not in its model list", d.Name, c, m)
		}
	}
	return nil
}

// clone copies the maps and slices so a registered descriptor cannot be
// changed through the caller's references.
func (d Descriptor) clone() Descriptor {
	out := d
	out.Capabilities = slices.Clone(d.Capabilities)
	out.Models = make(map[Capability][]string, len(d.Models))
	for c, m := range d.Models {
		out.Models[c] = slices.Clone(m)
	}
	out.DefaultModels = make(map[Capability]string, len(d.DefaultModels))
	for c, m := range d.DefaultModels {
		out.DefaultModels[c] = m
	}
	return out
}
