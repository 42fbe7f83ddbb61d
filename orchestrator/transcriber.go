package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/diarization"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/transcription"
)

// Optimizer prepares media for upload. *media.Optimizer implements it.
type Optimizer interface {
	Prepare(ctx context.Context, path string, format media.Format) (*media.Prepared, error)
	Config() media.Config
}

// TranscriberConfig is the transcription policy.
type TranscriberConfig struct {
	Backend backend.Config
	// DefaultProvider is used when a request names none.
	DefaultProvider string
	// DefaultModel is used when a request names none; empty means the
	// provider default.
	DefaultModel string
	// FallbackToRemote retries once on FallbackProvider when a local model
	// is not available.
	FallbackToRemote bool
	FallbackProvider string
	// Timeout caps one adapter call.
	Timeout time.Duration
}

// ApplyDefaults fills zero values.
func (c *TranscriberConfig) ApplyDefaults() {
	c.Backend.ApplyDefaults()
	if c.DefaultProvider == "" {
		c.DefaultProvider = "openai"
	}
	if c.FallbackProvider == "" {
		c.FallbackProvider = "openai"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Minute
	}
}

// Transcriber turns media files into transcripts, reusing cached results.
type Transcriber struct {
	registry  *backend.Registry
	store     cache.Store
	optimizer Optimizer
	diarizer  diarization.Provider
	cfg       TranscriberConfig
	log       *logger.Logger
}

// NewTranscriber wires the transcription pipeline. store may be nil to
// disable caching.
func NewTranscriber(reg *backend.Registry, store cache.Store, optimizer Optimizer, cfg TranscriberConfig, opts ...Option) *Transcriber {
	cfg.ApplyDefaults()
	o := resolveOptions(opts)
	return &Transcriber{
		registry:  reg,
		store:     store,
		optimizer: optimizer,
		diarizer:  o.diarizer,
		cfg:       cfg,
		log:       o.log.WithComponent("transcriber"),
	}
}

// plan is a validated request with its adapter built.
type plan struct {
	req     TranscriptionRequest
	format  media.Format
	desc    backend.Descriptor
	model   string
	adapter transcription.Provider
	params  fingerprint.Params
}

// Transcribe runs the pipeline for one input.
func (t *Transcriber) Transcribe(ctx context.Context, req TranscriptionRequest) (res *TranscriptionResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscription)
	defer func() {
		if err != nil {
			observability.SetSpanError(ctx, err)
		} else {
			observability.SetSpanAttribute(ctx, observability.AttrProvider, res.Provider)
			observability.SetSpanAttribute(ctx, observability.AttrFingerprint, res.Fingerprint.Short())
			observability.SetSpanAttribute(ctx, observability.AttrCacheHit, res.Cached)
		}
		span.End()
	}()

	res, err = t.run(ctx, req)
	if err == nil || !t.shouldFallback(req, err) {
		return res, err
	}
	remote := req
	remote.Provider, remote.Mode, remote.Model = t.cfg.FallbackProvider, backend.ModeRemote, ""
	t.log.Warn("local model not available, falling back to remote provider", logger.Fields(
		logger.FieldPath, req.AudioPath,
		logger.FieldProvider, remote.Provider,
		logger.FieldError, err.Error(),
	))
	res, ferr := t.run(ctx, remote)
	if ferr != nil {
		return nil, ferr
	}
	res.Warnings = append(res.Warnings, "local model not available; transcribed with "+remote.Provider)
	return res, nil
}

// Fingerprint computes the cache key req would use without calling the
// provider.
func (t *Transcriber) Fingerprint(req TranscriptionRequest) (fingerprint.Fingerprint, error) {
	p, err := t.init(req)
	if err != nil {
		return "", err
	}
	return fingerprint.Compute(req.AudioPath, p.params)
}

// Invalidate drops the cached transcript for req and returns its key.
func (t *Transcriber) Invalidate(ctx context.Context, req TranscriptionRequest) (fingerprint.Fingerprint, error) {
	fp, err := t.Fingerprint(req)
	if err != nil {
		return "", err
	}
	if t.store == nil {
		return fp, nil
	}
	if err := t.store.Invalidate(ctx, fp); err != nil {
		return fp, errors.Wrap(err).WithStage(errors.StageCache)
	}
	t.log.Info("cache entry invalidated", logger.Fields(logger.FieldPath, req.AudioPath, logger.FieldFingerprint, fp.Short()))
	return fp, nil
}

func (t *Transcriber) shouldFallback(req TranscriptionRequest, err error) bool {
	if !t.cfg.FallbackToRemote || !errors.IsModelNotAvailable(err) {
		return false
	}
	d, ok := t.registry.Lookup(t.providerName(req))
	return ok && d.Mode == backend.ModeLocal
}

func (t *Transcriber) providerName(req TranscriptionRequest) string {
	if req.Provider != "" {
		return req.Provider
	}
	return t.cfg.DefaultProvider
}

func (t *Transcriber) run(ctx context.Context, req TranscriptionRequest) (*TranscriptionResult, error) {
	p, err := t.init(req)
	if err != nil {
		return nil, err
	}
	log := t.log.WithFields(logger.Fields(
		logger.FieldPath, req.AudioPath,
		logger.FieldProvider, p.desc.Name,
		logger.FieldModel, p.model,
	))

	fp, err := fingerprint.Compute(req.AudioPath, p.params)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logger.Fields(logger.FieldFingerprint, fp.Short()))

	if text, ok := t.lookup(ctx, req, fp, log); ok {
		log.Info("transcript served from cache")
		return &TranscriptionResult{Text: text, Fingerprint: fp, Cached: true, Provider: p.desc.Name, Model: p.model}, nil
	}

	prepared, err := t.prepare(ctx, p)
	if err != nil {
		return nil, err
	}
	defer prepared.Release()

	start := time.Now()
	resp, err := t.call(ctx, p, prepared.Path)
	if err != nil {
		log.Error("transcription failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}
	log.Info("transcription complete", logger.Fields(logger.FieldDuration, time.Since(start).Milliseconds()))

	res := &TranscriptionResult{
		Text:        strings.TrimSpace(resp.Text),
		Fingerprint: fp,
		Provider:    p.desc.Name,
		Model:       p.model,
		Optimized:   prepared.Optimized,
		Segments:    resp.Segments,
		Language:    resp.Language,
		Duration:    resp.Duration,
	}
	// A degraded diarized request is not cached: its fingerprint promises
	// speaker labels.
	if req.Diarization && !t.diarize(ctx, prepared.Path, res, log) {
		return res, nil
	}

	if t.store != nil {
		if err := t.store.Put(ctx, fp, res.Text); err != nil {
			log.Warn("cache store failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
	return res, nil
}

// init validates the input and resolves the adapter. Nothing here touches
// the provider.
func (t *Transcriber) init(req TranscriptionRequest) (*plan, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return nil, errors.InvalidInput("audio_path", "is required").WithStage(errors.StageValidation)
	}
	format, err := media.Detect(req.AudioPath)
	if err != nil {
		return nil, err
	}
	req.Provider = t.providerName(req)
	if req.Model == "" && req.Provider == t.cfg.DefaultProvider {
		req.Model = t.cfg.DefaultModel
	}

	desc, model, err := t.registry.ResolveModel(req.Provider, req.Mode, backend.Transcription, req.Model)
	if err != nil {
		return nil, err
	}
	bcfg := t.cfg.Backend
	bcfg.Model, bcfg.Language = model, req.Language
	adapter, err := t.registry.Transcriber(desc.Name, desc.Mode, bcfg)
	if err != nil {
		return nil, err
	}

	params := fingerprint.Params{
		Provider:    desc.Name,
		Model:       model,
		Diarization: req.Diarization,
		Language:    req.Language,
	}
	if t.optimizer != nil && !transcription.AcceptsAnyFormat(adapter) {
		oc := t.optimizer.Config()
		params.Optimization = fingerprint.Optimization{
			Enabled:       oc.Enabled,
			TargetBitrate: oc.TargetBitrate,
			MaxSizeMB:     oc.MaxSizeMB,
			RemoveSilence: oc.RemoveSilence,
		}
	}
	return &plan{req: req, format: format, desc: desc, model: model, adapter: adapter, params: params}, nil
}

func (t *Transcriber) lookup(ctx context.Context, req TranscriptionRequest, fp fingerprint.Fingerprint, log *logger.Logger) (string, bool) {
	if !req.UseCache || t.store == nil {
		return "", false
	}
	text, ok, err := t.store.Get(ctx, fp)
	if err != nil {
		log.Warn("cache lookup failed, transcribing", logger.Fields(logger.FieldError, err.Error()))
		return "", false
	}
	return text, ok
}

func (t *Transcriber) prepare(ctx context.Context, p *plan) (*media.Prepared, error) {
	if t.optimizer == nil || transcription.AcceptsAnyFormat(p.adapter) {
		return &media.Prepared{Path: p.req.AudioPath}, nil
	}
	return t.optimizer.Prepare(ctx, p.req.AudioPath, p.format)
}

func (t *Transcriber) call(ctx context.Context, p *plan, path string) (*transcription.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	resp, err := p.adapter.Transcribe(ctx, transcription.Request{
		AudioPath:   path,
		Language:    p.req.Language,
		Model:       p.model,
		Diarization: p.req.Diarization,
	})
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		switch {
		case ok && errors.IsModelNotAvailable(err):
			return nil, appErr.WithStage(errors.StageTranscription)
		case ok && errors.IsAudioExtraction(err):
			return nil, appErr
		}
		return nil, errors.TranscriptionFailed(p.desc.Name, err)
	}
	if resp == nil {
		return nil, errors.TranscriptionFailed(p.desc.Name, fmt.Errorf("%s returned no transcript", p.desc.Name))
	}
	return resp, nil
}

// diarize labels res with speakers and reports whether it did. Failures only
// add a warning.
func (t *Transcriber) diarize(ctx context.Context, path string, res *TranscriptionResult, log *logger.Logger) bool {
	if hasSpeakers(res.Segments) {
		res.Text = transcription.SpeakerText(res.Segments)
		return true
	}
	if t.diarizer == nil {
		res.Warnings = append(res.Warnings, "diarization requested but no diarization provider is configured")
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	turns, err := t.diarizer.Diarize(ctx, diarization.Request{AudioPath: path, Language: res.Language})
	if err != nil {
		log.Warn("diarization failed, returning plain transcript", logger.Fields(logger.FieldError, err.Error()))
		res.Warnings = append(res.Warnings, "diarization failed: "+err.Error())
		return false
	}
	segments := res.Segments
	if len(segments) == 0 {
		segments = []transcription.Segment{{Start: 0, End: res.Duration, Text: res.Text}}
	}
	res.Segments = diarization.Attribute(segments, turns.Turns)
	log.Debug("speakers attributed", logger.Fields("speakers", len(turns.Speakers())))
	res.Text = transcription.SpeakerText(res.Segments)
	return true
}

func hasSpeakers(segments []transcription.Segment) bool {
	for _, s := range segments {
		if s.Speaker != "" {
			return true
		}
	}
	return false
}
