package local

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/process"
	"github.com/kbukum/samuelizer/transcription"
)

// Transcriber runs the whisper.cpp CLI on a 16 kHz mono WAV produced by
// ffmpeg. It never retries.
type Transcriber struct {
	cfg      backend.LocalConfig
	model    string
	language string
	runner   process.Runner
	log      *logger.Logger
	lookPath func(string) bool
}

// NewTranscriber builds a whisper.cpp adapter for cfg.Model.
func NewTranscriber(cfg backend.Config, runner process.Runner, log *logger.Logger) *Transcriber {
	lc := cfg.Local
	lc.ApplyDefaults()
	if runner == nil {
		runner = process.NewAdapter(process.Config{Name: "whisper.cpp", Timeout: lc.Timeout})
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Transcriber{
		cfg:      lc,
		model:    cfg.Model,
		language: cfg.Language,
		runner:   runner,
		log:      log.WithComponent("local.whisper"),
		lookPath: process.Available,
	}
}

func (t *Transcriber) Name() string { return Name }

// AcceptsAnyFormat reports true: input is converted to WAV here.
func (t *Transcriber) AcceptsAnyFormat() bool { return true }

// ModelPath is where the ggml weights for model are expected.
func (t *Transcriber) ModelPath(model string) string {
	return filepath.Join(t.cfg.ModelsDir, "ggml-"+model+".bin")
}

// IsAvailable reports whether the binary and the default model are present.
func (t *Transcriber) IsAvailable(_ context.Context) bool {
	return t.check(t.model) == nil
}

func (t *Transcriber) check(model string) error {
	if !t.lookPath(t.cfg.WhisperBinary) {
		return errors.ModelNotAvailable(Name, model).
			WithCause(fmt.Errorf("%w: %s", process.ErrBinaryNotFound, t.cfg.WhisperBinary))
	}
	if _, err := os.Stat(t.ModelPath(model)); err != nil {
		return errors.ModelNotAvailable(Name, model).
			WithDetail("model_path", t.ModelPath(model)).
			WithCause(err)
	}
	return nil
}

// Transcribe converts the input and runs whisper.cpp. A missing binary or
// model file is ModelNotAvailable.
func (t *Transcriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	model := req.Model
	if model == "" {
		model = t.model
	}
	lang := req.Language
	if lang == "" {
		lang = t.language
	}
	if err := t.check(model); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "samuelizer-whisper-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	wav := filepath.Join(dir, "input.wav")
	if _, err := t.runner.Run(ctx, process.Command{
		Binary: t.cfg.FFmpeg,
		Args: []string{"-hide_banner", "-loglevel", "error", "-i", req.AudioPath,
			"-vn", "-ar", "16000", "-ac", "1", "-c:a", "pcm_s16le", "-y", wav},
	}); err != nil {
		return nil, errors.AudioExtraction(req.AudioPath, err)
	}

	outBase := filepath.Join(dir, "out")
	args := []string{
		"-m", t.ModelPath(model),
		"-f", wav,
		"-t", strconv.Itoa(t.cfg.Threads),
		"-oj", "-of", outBase,
		"-np",
	}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	t.log.Debug("running whisper.cpp", logger.Fields(logger.FieldModel, model, logger.FieldPath, req.AudioPath))
	if _, err := t.runner.Run(ctx, process.Command{Binary: t.cfg.WhisperBinary, Args: args}); err != nil {
		if stderrors.Is(err, process.ErrBinaryNotFound) {
			return nil, errors.ModelNotAvailable(Name, model).WithCause(err)
		}
		return nil, fmt.Errorf("whisper.cpp: %w", err)
	}

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp: read output: %w", err)
	}
	return parseOutput(data)
}

type cppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseOutput(data []byte) (*transcription.Response, error) {
	var out cppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("whisper.cpp: decode output: %w", err)
	}
	segments := make([]transcription.Segment, 0, len(out.Transcription))
	texts := make([]string, 0, len(out.Transcription))
	for _, s := range out.Transcription {
		seg := transcription.Segment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  strings.TrimSpace(s.Text),
		}
		if seg.Text == "" {
			continue
		}
		segments = append(segments, seg)
		texts = append(texts, seg.Text)
	}
	resp := &transcription.Response{
		Text:     strings.Join(texts, " "),
		Segments: segments,
		Language: out.Result.Language,
	}
	if n := len(segments); n > 0 {
		resp.Duration = segments[n-1].End
	}
	return resp, nil
}

var (
	_ transcription.Provider       = (*Transcriber)(nil)
	_ transcription.FormatAgnostic = (*Transcriber)(nil)
)
