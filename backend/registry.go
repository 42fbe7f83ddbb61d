package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/provider"
	"github.com/kbukum/samuelizer/transcription"
)

// TranscriptionFactory builds a transcription adapter. cfg.Model is already
// resolved.
type TranscriptionFactory = provider.Factory[transcription.Provider, Config]

// AnalysisFactory builds an analysis adapter. cfg.Model is already resolved.
type AnalysisFactory = provider.Factory[llm.Provider, Config]

// Registration is one row of the provider table.
type Registration struct {
	Descriptor    Descriptor
	Transcription TranscriptionFactory
	Analysis      AnalysisFactory
}

func (r Registration) validate() error {
	if err := r.Descriptor.validate(); err != nil {
		return err
	}
	d := r.Descriptor
	if d.Supports(Transcription) != (r.Transcription != nil) {
		return fmt.Errorf("backend: %s: transcription capability and factory disagree", d.Name)
	}
	if d.Supports(Analysis) != (r.Analysis != nil) {
		return fmt.Errorf("backend: %s: analysis capability and factory disagree", d.Name)
	}
	return nil
}

// Registry is the provider table. It is safe for concurrent use, and
// registration may happen while other goroutines resolve providers.
type Registry struct {
	mu           sync.RWMutex
	descriptors  map[string]Descriptor
	transcribers *provider.Registry[transcription.Provider, Config]
	analysts     *provider.Registry[llm.Provider, Config]
	instr        *Instrumentation
}

// NewRegistry returns an empty table.
func NewRegistry() *Registry {
	return &Registry{
		descriptors:  make(map[string]Descriptor),
		transcribers: provider.NewRegistry[transcription.Provider, Config](),
		analysts:     provider.NewRegistry[llm.Provider, Config](),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide table.
func Default() *Registry { return defaultRegistry }

// Register adds or replaces the row for reg.Descriptor.Name. Other rows are
// not touched.
func (r *Registry) Register(reg Registration) error {
	if err := reg.validate(); err != nil {
		return err
	}
	name := reg.Descriptor.Name

	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[name] = reg.Descriptor.clone()
	r.transcribers.Remove(name)
	r.analysts.Remove(name)
	if reg.Transcription != nil {
		r.transcribers.Add(name, reg.Transcription)
	}
	if reg.Analysis != nil {
		r.analysts.Add(name, reg.Analysis)
	}
	return nil
}

// Unregister removes the row for name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.descriptors, name)
	r.transcribers.Remove(name)
	r.analysts.Remove(name)
}

// Instrument wraps every adapter built after this call with logging,
// tracing and metrics middleware.
func (r *Registry) Instrument(instr *Instrumentation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instr = instr
}

// Descriptors returns every row sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Resolve checks that name is registered under mode and supports c. An empty
// mode matches the registered one.
func (r *Registry) Resolve(name string, mode Mode, c Capability) (Descriptor, error) {
	d, ok := r.Lookup(name)
	if !ok || (mode != "" && d.Mode != mode) {
		return Descriptor{}, errors.UnknownProvider(name, modeLabel(mode))
	}
	if !d.Supports(c) {
		return Descriptor{}, errors.UnsupportedCapability(name, string(c))
	}
	return d, nil
}

// ResolveModel is Resolve plus model selection. An unknown model is
// ModelNotAvailable.
func (r *Registry) ResolveModel(name string, mode Mode, c Capability, model string) (Descriptor, string, error) {
	d, err := r.Resolve(name, mode, c)
	if err != nil {
		return Descriptor{}, "", err
	}
	m, ok := d.ModelFor(c, model)
	if !ok {
		return Descriptor{}, "", errors.ModelNotAvailable(name, model).
			WithDetail("known_models", d.Models[c])
	}
	return d, m, nil
}

// Transcriber resolves and builds a transcription adapter. cfg.Model may be
// empty to use the provider default.
func (r *Registry) Transcriber(name string, mode Mode, cfg Config) (transcription.Provider, error) {
	_, model, err := r.ResolveModel(name, mode, Transcription, cfg.Model)
	if err != nil {
		return nil, err
	}
	cfg.Model = model
	p, err := r.transcribers.Create(name, cfg)
	if err != nil {
		return nil, factoryError(name, err)
	}
	r.mu.RLock()
	instr := r.instr
	r.mu.RUnlock()
	return instr.transcriber(p), nil
}

// Analyst resolves and builds an analysis adapter.
func (r *Registry) Analyst(name string, mode Mode, cfg Config) (llm.Provider, error) {
	_, model, err := r.ResolveModel(name, mode, Analysis, cfg.Model)
	if err != nil {
		return nil, err
	}
	cfg.Model = model
	p, err := r.analysts.Create(name, cfg)
	if err != nil {
		return nil, factoryError(name, err)
	}
	r.mu.RLock()
	instr := r.instr
	r.mu.RUnlock()
	return instr.analyst(p), nil
}

// factoryError keeps AppErrors from factories (missing API key, bad URL)
// and marks anything else internal.
func factoryError(name string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.Internal(err).WithDetail("provider", name)
}

func modeLabel(m Mode) string {
	if m == "" {
		return "any"
	}
	return string(m)
}
