package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/orchestrator"
	"github.com/kbukum/samuelizer/server"
	"github.com/kbukum/samuelizer/templates"
	"github.com/kbukum/samuelizer/validation"
)

// Transcriber is satisfied by *orchestrator.Transcriber.
type Transcriber interface {
	Transcribe(ctx context.Context, req orchestrator.TranscriptionRequest) (*orchestrator.TranscriptionResult, error)
}

// Analyzer is satisfied by *orchestrator.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, req orchestrator.AnalysisRequest) (*orchestrator.AnalysisResult, error)
}

// Deps are the services behind the routes. Cache may be nil when caching is
// disabled.
type Deps struct {
	Transcriber Transcriber
	Analyzer    Analyzer
	Providers   *backend.Registry
	Templates   *templates.Registry
	Cache       cache.Store
	// UploadDir holds uploads while they are transcribed; empty uses the
	// system temp dir.
	UploadDir string
	Log       *logger.Logger
}

// Handler serves the /v1 routes.
type Handler struct {
	deps Deps
	log  *logger.Logger
}

// New creates a Handler.
func New(deps Deps) *Handler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{deps: deps, log: log.WithComponent("api")}
}

// Register mounts the routes on r under /v1. Extra handlers run before
// every route in the group.
func (h *Handler) Register(r gin.IRouter, extra ...gin.HandlerFunc) {
	v1 := r.Group("/v1")
	for _, mw := range extra {
		if mw != nil {
			v1.Use(mw)
		}
	}
	v1.POST("/transcriptions", h.Transcribe)
	v1.POST("/analyses", h.Analyze)
	v1.GET("/providers", h.Providers)
	v1.GET("/templates", h.ListTemplates)
	v1.GET("/cache", h.CacheStats)
	v1.DELETE("/cache", h.ClearCache)
	v1.DELETE("/cache/:fingerprint", h.InvalidateCache)
}

// transcriptionForm is the non-file part of a transcription upload.
type transcriptionForm struct {
	Provider    string `form:"provider" json:"provider"`
	Model       string `form:"model" json:"model"`
	Mode        string `form:"mode" json:"mode" validate:"omitempty,oneof=remote local"`
	Language    string `form:"language" json:"language" validate:"omitempty,min=2,max=8"`
	Diarization bool   `form:"diarization" json:"diarization"`
	UseCache    *bool  `form:"use_cache" json:"use_cache"`
}

// Transcribe handles POST /v1/transcriptions.
func (h *Handler) Transcribe(c *gin.Context) {
	var form transcriptionForm
	if err := c.ShouldBind(&form); err != nil {
		server.RespondWithError(c, errors.InvalidInput("form", err.Error()).WithStage(errors.StageValidation))
		return
	}
	if err := validation.Validate(form); err != nil {
		server.RespondWithError(c, err)
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("file", "multipart field \"file\" is required").WithStage(errors.StageValidation))
		return
	}
	if !media.IsSupported(file.Filename) {
		server.RespondWithError(c, errors.UnsupportedFormat(file.Filename, "extension "+filepath.Ext(file.Filename)))
		return
	}

	path, cleanup, err := h.saveUpload(file)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer cleanup()

	useCache := true
	if form.UseCache != nil {
		useCache = *form.UseCache
	}
	res, err := h.deps.Transcriber.Transcribe(c.Request.Context(), orchestrator.TranscriptionRequest{
		AudioPath:   path,
		Provider:    form.Provider,
		Model:       form.Model,
		Mode:        backend.Mode(form.Mode),
		Language:    form.Language,
		Diarization: form.Diarization,
		UseCache:    useCache,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.Info("upload transcribed", logger.Fields(
		"file", file.Filename,
		"size", file.Size,
		logger.FieldFingerprint, res.Fingerprint.Short(),
		"cached", res.Cached,
	))
	server.RespondOK(c, res)
}

// saveUpload copies the upload into UploadDir keeping its extension, which
// format detection depends on.
func (h *Handler) saveUpload(fh *multipart.FileHeader) (string, func(), error) {
	name := fh.Filename
	dir, err := os.MkdirTemp(h.deps.UploadDir, "upload-*")
	if err != nil {
		return "", nil, errors.Internal(err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			h.log.Warn("remove upload", logger.Fields(logger.FieldPath, dir, logger.FieldError, err.Error()))
		}
	}
	dst := filepath.Join(dir, "input"+filepath.Ext(name))
	src, err := fh.Open()
	if err != nil {
		cleanup()
		return "", nil, errors.InputUnreadable(name, err)
	}
	defer src.Close() //nolint:errcheck
	out, err := os.Create(dst)
	if err != nil {
		cleanup()
		return "", nil, errors.Internal(err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		cleanup()
		return "", nil, errors.InputUnreadable(name, err)
	}
	if err := out.Close(); err != nil {
		cleanup()
		return "", nil, errors.Internal(err)
	}
	return dst, cleanup, nil
}

type analysisBody struct {
	Text     string `json:"text" validate:"required"`
	Template string `json:"template"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Mode     string `json:"mode" validate:"omitempty,oneof=remote local"`
}

// Analyze handles POST /v1/analyses.
func (h *Handler) Analyze(c *gin.Context) {
	var body analysisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()).WithStage(errors.StageValidation))
		return
	}
	if err := validation.Validate(body); err != nil {
		server.RespondWithError(c, err)
		return
	}
	res, err := h.deps.Analyzer.Analyze(c.Request.Context(), orchestrator.AnalysisRequest{
		Text:     body.Text,
		Template: body.Template,
		Provider: body.Provider,
		Model:    body.Model,
		Mode:     backend.Mode(body.Mode),
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res)
}

// Providers handles GET /v1/providers.
func (h *Handler) Providers(c *gin.Context) {
	server.RespondList(c, h.deps.Providers.Descriptors())
}

type templateView struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Sections    []templates.Section `json:"sections"`
}

// ListTemplates handles GET /v1/templates.
func (h *Handler) ListTemplates(c *gin.Context) {
	list := h.deps.Templates.List()
	out := make([]templateView, 0, len(list))
	for _, t := range list {
		out = append(out, templateView{Name: t.Name, Description: t.Description, Sections: t.Sections})
	}
	server.RespondList(c, out)
}

// CacheStats handles GET /v1/cache.
func (h *Handler) CacheStats(c *gin.Context) {
	store, ok := h.cache(c)
	if !ok {
		return
	}
	st, err := store.Stats(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, errors.Wrap(err).WithStage(errors.StageCache))
		return
	}
	server.RespondOK(c, st)
}

// ClearCache handles DELETE /v1/cache.
func (h *Handler) ClearCache(c *gin.Context) {
	store, ok := h.cache(c)
	if !ok {
		return
	}
	if err := store.Clear(c.Request.Context()); err != nil {
		server.RespondWithError(c, errors.Wrap(err).WithStage(errors.StageCache))
		return
	}
	h.log.Info("cache cleared")
	server.RespondNoContent(c)
}

// InvalidateCache handles DELETE /v1/cache/:fingerprint.
func (h *Handler) InvalidateCache(c *gin.Context) {
	store, ok := h.cache(c)
	if !ok {
		return
	}
	raw := c.Param("fingerprint")
	if !fingerprint.Valid(raw) {
		server.RespondWithError(c, errors.InvalidInput("fingerprint", fmt.Sprintf("%q is not a fingerprint", raw)).WithStage(errors.StageCache))
		return
	}
	fp := fingerprint.Fingerprint(raw)
	if err := store.Invalidate(c.Request.Context(), fp); err != nil {
		server.RespondWithError(c, errors.Wrap(err).WithStage(errors.StageCache))
		return
	}
	h.log.Info("cache entry invalidated", logger.Fields(logger.FieldFingerprint, fp.Short()))
	server.RespondNoContent(c)
}

func (h *Handler) cache(c *gin.Context) (cache.Store, bool) {
	if h.deps.Cache == nil {
		server.RespondWithError(c, errors.NotFound("cache", "").WithStage(errors.StageCache).
			WithDetail("reason", "caching is disabled"))
		return nil, false
	}
	return h.deps.Cache, true
}
