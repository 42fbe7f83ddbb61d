package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/pipeline"
	"github.com/kbukum/samuelizer/segment"
	"github.com/kbukum/samuelizer/templates"
)

// IncompleteMarker replaces a chunk whose summary failed.
const IncompleteMarker = "[incomplete]"

// Default chunk budgets in characters.
const (
	DefaultRemoteChunkSize = 4000
	DefaultLocalChunkSize  = 1024
)

// AnalyzerConfig is the analysis policy.
type AnalyzerConfig struct {
	Backend         backend.Config
	DefaultProvider string
	DefaultModel    string
	// ChunkSize overrides the per-mode chunk budget.
	ChunkSize   int
	Concurrency int
	Temperature *float64
	MaxTokens   int
	// Timeout caps one adapter call.
	Timeout time.Duration
}

// ApplyDefaults fills zero values.
func (c *AnalyzerConfig) ApplyDefaults() {
	c.Backend.ApplyDefaults()
	if c.DefaultProvider == "" {
		c.DefaultProvider = "openai"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}
}

func (c *AnalyzerConfig) chunkSize(m backend.Mode) int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	if m == backend.ModeLocal {
		return DefaultLocalChunkSize
	}
	return DefaultRemoteChunkSize
}

// Analyzer fills analysis templates from text. Results are never cached.
type Analyzer struct {
	registry  *backend.Registry
	templates *templates.Registry
	cfg       AnalyzerConfig
	log       *logger.Logger
}

// NewAnalyzer wires the analysis pipeline.
func NewAnalyzer(reg *backend.Registry, tpls *templates.Registry, cfg AnalyzerConfig, opts ...Option) *Analyzer {
	cfg.ApplyDefaults()
	if tpls == nil {
		tpls = templates.NewRegistry()
	}
	o := resolveOptions(opts)
	return &Analyzer{registry: reg, templates: tpls, cfg: cfg, log: o.log.WithComponent("analyzer")}
}

// Templates returns the template registry.
func (a *Analyzer) Templates() *templates.Registry { return a.templates }

type call struct {
	name    string
	model   string
	analyst llm.Provider
}

// Analyze runs classification (for "auto"), chunk summarization when the
// text exceeds the chunk budget, and the template fill.
func (a *Analyzer) Analyze(ctx context.Context, req AnalysisRequest) (res *AnalysisResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAnalysis)
	defer func() {
		if err != nil {
			observability.SetSpanError(ctx, err)
		} else {
			observability.SetSpanAttribute(ctx, observability.AttrTemplate, res.Template)
			observability.SetSpanAttribute(ctx, observability.AttrModel, res.Model)
		}
		span.End()
	}()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.InvalidInput("text", "is empty").WithStage(errors.StageValidation)
	}
	name := strings.ToLower(strings.TrimSpace(req.Template))
	if name == "" {
		name = templates.Auto
	}
	if name != templates.Auto && !a.templates.Has(name) {
		_, err := a.templates.Get(name)
		if err == nil {
			err = errors.InvalidInput("template", "template "+name+" is internal")
		}
		return nil, err
	}

	c, err := a.resolve(req)
	if err != nil {
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrProvider, c.name)
	log := a.log.WithFields(logger.Fields(logger.FieldProvider, c.name, logger.FieldModel, c.model))

	res = &AnalysisResult{Provider: c.name, Model: c.model, Chunks: 1}
	chunks := segment.Split(text, a.cfg.chunkSize(a.modeOf(c.name)))
	if len(chunks) > 1 {
		text, err = a.condense(ctx, c, chunks, res, log)
		if err != nil {
			return nil, err
		}
	}

	if name == templates.Auto {
		name = a.classify(ctx, c, text, log)
	}
	tpl, err := a.templates.Get(name)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logger.Fields(logger.FieldTemplate, tpl.Name))

	out, err := a.complete(ctx, c, tpl.System, tpl.Prompt(text), len(tpl.Sections) > 0)
	if err != nil {
		log.Error("analysis failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, analysisError(c.name, err)
	}
	res.Template = tpl.Name
	res.Sections, res.Order = parseSections(tpl, out)
	res.Titles = make(map[string]string, len(res.Order))
	for _, k := range res.Order {
		res.Titles[k] = tpl.Title(k)
	}
	log.Info("analysis complete", logger.Fields(logger.FieldChunk, res.Chunks))
	return res, nil
}

func (a *Analyzer) resolve(req AnalysisRequest) (*call, error) {
	name := req.Provider
	if name == "" {
		name = a.cfg.DefaultProvider
	}
	model := req.Model
	if model == "" && name == a.cfg.DefaultProvider {
		model = a.cfg.DefaultModel
	}
	desc, model, err := a.registry.ResolveModel(name, req.Mode, backend.Analysis, model)
	if err != nil {
		return nil, err
	}
	bcfg := a.cfg.Backend
	bcfg.Model = model
	analyst, err := a.registry.Analyst(desc.Name, desc.Mode, bcfg)
	if err != nil {
		return nil, err
	}
	return &call{name: desc.Name, model: model, analyst: analyst}, nil
}

func (a *Analyzer) modeOf(name string) backend.Mode {
	d, _ := a.registry.Lookup(name)
	return d.Mode
}

// condense summarizes chunks concurrently and merges them in input order.
// Failed chunks become IncompleteMarker; all failing is AnalysisFailed.
func (a *Analyzer) condense(ctx context.Context, c *call, chunks []string, res *AnalysisResult, log *logger.Logger) (string, error) {
	tpl, err := a.templates.Get(templates.Chunk)
	if err != nil {
		return "", err
	}
	res.Chunks = len(chunks)
	log.Debug("summarizing chunks", logger.Fields(logger.FieldChunk, len(chunks)))

	p := pipeline.OrderedMap(pipeline.FromSlice(chunks), a.cfg.Concurrency,
		func(ctx context.Context, chunk string) (string, error) {
			return a.complete(ctx, c, tpl.System, tpl.Prompt(chunk), false)
		})
	results, err := pipeline.Collect(ctx, p)
	if err != nil {
		return "", analysisError(c.name, err)
	}

	parts := make([]string, len(results))
	var lastErr error
	for _, r := range results {
		if r.Err != nil {
			lastErr = r.Err
			parts[r.Index] = IncompleteMarker
			res.Incomplete = append(res.Incomplete, r.Index)
			log.Warn("chunk summary failed", logger.Fields(logger.FieldChunk, r.Index, logger.FieldError, r.Err.Error()))
			continue
		}
		parts[r.Index] = strings.TrimSpace(r.Value)
	}
	if len(res.Incomplete) == len(chunks) {
		return "", analysisError(c.name, lastErr)
	}
	return strings.Join(parts, "\n\n"), nil
}

// classify asks the provider to pick a template. Any failure selects the
// fallback template; the fill call reports provider errors.
func (a *Analyzer) classify(ctx context.Context, c *call, text string, log *logger.Logger) string {
	tpl, prompt, err := a.templates.ClassifyPrompt(text)
	if err != nil {
		return templates.Fallback
	}
	answer, err := a.complete(ctx, c, tpl.System, prompt, false)
	if err != nil {
		log.Warn("template selection failed, using fallback", logger.Fields(
			logger.FieldTemplate, templates.Fallback, logger.FieldError, err.Error()))
		return templates.Fallback
	}
	choice := a.templates.ParseChoice(answer)
	log.Info("template selected", logger.Fields(logger.FieldTemplate, choice))
	return choice
}

func (a *Analyzer) complete(ctx context.Context, c *call, system, prompt string, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	req := llm.UserPrompt(system, prompt)
	req.Model = c.model
	req.Temperature = a.cfg.Temperature
	req.MaxTokens = a.cfg.MaxTokens
	req.JSON = jsonMode
	return llm.Ask(ctx, c.analyst, req)
}

// analysisError keeps ModelNotAvailable distinct and wraps everything else.
func analysisError(name string, err error) error {
	if errors.IsModelNotAvailable(err) {
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr.WithStage(errors.StageAnalysis)
		}
	}
	return errors.AnalysisFailed(name, err)
}
