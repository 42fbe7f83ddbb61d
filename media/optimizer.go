package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/process"
)

const (
	sampleRate = "16000"
	codec      = "libmp3lame"
	// minBitrateKbps is the floor when scaling down oversized output.
	minBitrateKbps = 32
)

// Config configures the optimizer. Zero values take the defaults below.
type Config struct {
	FFmpeg  string `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	FFprobe string `yaml:"ffprobe" mapstructure:"ffprobe"`
	// TempDir holds intermediate files. Empty uses the system temp dir.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`

	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	TargetBitrate string `yaml:"target_bitrate" mapstructure:"target_bitrate"`
	MaxSizeMB     int    `yaml:"max_size_mb" mapstructure:"max_size_mb" validate:"gte=0"`
	RemoveSilence bool   `yaml:"remove_silence" mapstructure:"remove_silence"`

	SilenceThreshold string `yaml:"silence_threshold" mapstructure:"silence_threshold"`
	SilenceDuration  string `yaml:"silence_duration" mapstructure:"silence_duration"`
	KeepSilence      string `yaml:"keep_silence" mapstructure:"keep_silence"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.FFmpeg == "" {
		c.FFmpeg = "ffmpeg"
	}
	if c.FFprobe == "" {
		c.FFprobe = "ffprobe"
	}
	if c.TargetBitrate == "" {
		c.TargetBitrate = "32k"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
	if c.SilenceThreshold == "" {
		c.SilenceThreshold = "-30dB"
	}
	if c.SilenceDuration == "" {
		c.SilenceDuration = "1.0"
	}
	if c.KeepSilence == "" {
		c.KeepSilence = "0.3"
	}
}

// Validate checks the bitrate notation.
func (c *Config) Validate() error {
	if _, err := parseKbps(c.TargetBitrate); err != nil {
		return fmt.Errorf("media: target_bitrate: %w", err)
	}
	return nil
}

// Prepared is an input ready for upload. Release removes any temporary files
// and is safe to call more than once.
type Prepared struct {
	Path      string
	Optimized bool
	release   func()
}

// Release removes temporary files created for this input.
func (p *Prepared) Release() {
	if p.release != nil {
		p.release()
		p.release = nil
	}
}

// Optimizer extracts and transcodes audio with ffmpeg.
type Optimizer struct {
	cfg    Config
	runner process.Runner
	prober *Prober
	log    *logger.Logger
}

// NewOptimizer builds an optimizer on runner.
func NewOptimizer(cfg Config, runner process.Runner, log *logger.Logger) *Optimizer {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Optimizer{
		cfg:    cfg,
		runner: runner,
		prober: NewProber(runner, cfg.FFprobe),
		log:    log.WithComponent("media"),
	}
}

// Config returns the effective configuration.
func (o *Optimizer) Config() Config { return o.cfg }

// Prepare returns a path suitable for upload. Video always has its audio
// extracted. Audio is transcoded only when optimization is enabled and the
// input is not already a small MP3 at or below the target bitrate. Every
// failure is AudioExtraction.
func (o *Optimizer) Prepare(ctx context.Context, path string, format Format) (*Prepared, error) {
	if !format.IsVideo() {
		if !o.cfg.Enabled {
			return &Prepared{Path: path}, nil
		}
		need, err := o.needsOptimization(ctx, path, format)
		if err != nil {
			return nil, errors.AudioExtraction(path, err)
		}
		if !need {
			o.log.Debug("audio already optimized", logger.Fields(logger.FieldPath, path))
			return &Prepared{Path: path}, nil
		}
	}

	dir, err := os.MkdirTemp(o.cfg.TempDir, "samuelizer-media-*")
	if err != nil {
		return nil, errors.AudioExtraction(path, err)
	}
	release := func() { _ = os.RemoveAll(dir) }

	out, err := o.transcode(ctx, path, dir)
	if err != nil {
		release()
		return nil, errors.AudioExtraction(path, err)
	}
	return &Prepared{Path: out, Optimized: true, release: release}, nil
}

func (o *Optimizer) needsOptimization(ctx context.Context, path string, format Format) (bool, error) {
	if format.Ext != ".mp3" {
		return true, nil
	}
	st, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if st.Size() > int64(o.cfg.MaxSizeMB)<<20 {
		return true, nil
	}
	info, err := o.prober.Probe(ctx, path)
	if err != nil {
		o.log.Warn("ffprobe failed, transcoding anyway", logger.Fields(
			logger.FieldPath, path, logger.FieldError, err.Error()))
		return true, nil
	}
	target, _ := parseKbps(o.cfg.TargetBitrate)
	return info.BitRate == 0 || info.BitRate > int64(target)*1000, nil
}

func (o *Optimizer) transcode(ctx context.Context, in, dir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(dir, base+".mp3")
	bitrate := o.cfg.TargetBitrate

	if err := o.ffmpeg(ctx, in, out, bitrate); err != nil {
		return "", err
	}

	size, err := sizeMB(out)
	if err != nil {
		return "", err
	}
	if size > float64(o.cfg.MaxSizeMB) {
		reduced := scaleBitrate(bitrate, size, o.cfg.MaxSizeMB)
		o.log.Info("output exceeds size limit, lowering bitrate", logger.Fields(
			logger.FieldPath, in, "size_mb", size, "bitrate", reduced))
		if err := o.replace(out, func(tmp string) error {
			return o.ffmpeg(ctx, out, tmp, reduced)
		}); err != nil {
			return "", err
		}
		bitrate = reduced
	}

	if o.cfg.RemoveSilence {
		filter := fmt.Sprintf("silenceremove=stop_periods=-1:stop_threshold=%s:stop_duration=%s:stop_silence=%s",
			o.cfg.SilenceThreshold, o.cfg.SilenceDuration, o.cfg.KeepSilence)
		if err := o.replace(out, func(tmp string) error {
			return o.ffmpeg(ctx, out, tmp, bitrate, "-af", filter)
		}); err != nil {
			return "", err
		}
	}

	final, _ := sizeMB(out)
	o.log.Debug("audio optimized", logger.Fields(
		logger.FieldPath, in, "size_mb", final, "bitrate", bitrate))
	return out, nil
}

// replace runs fn against a sibling temp path then renames it over target.
func (o *Optimizer) replace(target string, fn func(tmp string) error) error {
	tmp := strings.TrimSuffix(target, ".mp3") + ".tmp.mp3"
	if err := fn(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}

func (o *Optimizer) ffmpeg(ctx context.Context, in, out, bitrate string, extra ...string) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", in, "-vn"}
	args = append(args, extra...)
	args = append(args,
		"-acodec", codec,
		"-b:a", bitrate,
		"-ac", "1",
		"-ar", sampleRate,
		"-y", out)
	_, err := o.runner.Run(ctx, process.Command{Binary: o.cfg.FFmpeg, Args: args})
	return err
}

// scaleBitrate shrinks bitrate in proportion to size/maxMB, never below the
// floor and never above the current rate.
func scaleBitrate(bitrate string, sizeMB float64, maxMB int) string {
	cur, err := parseKbps(bitrate)
	if err != nil || sizeMB <= 0 {
		return bitrate
	}
	next := int(float64(maxMB) / sizeMB * float64(cur))
	next = min(next, cur)
	next = max(next, minBitrateKbps)
	return strconv.Itoa(next) + "k"
}

func parseKbps(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "k"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	return n, nil
}

func sizeMB(path string) (float64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(st.Size()) / (1 << 20), nil
}
