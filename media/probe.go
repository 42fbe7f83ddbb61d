package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kbukum/samuelizer/process"
)

// Info is the subset of ffprobe output the optimizer needs.
type Info struct {
	Codec      string
	BitRate    int64 // bits per second, 0 when unknown
	SampleRate int
	Channels   int
	Duration   float64 // seconds
	HasVideo   bool
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecName  string `json:"codec_name"`
		CodecType  string `json:"codec_type"`
		BitRate    string `json:"bit_rate"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Prober runs ffprobe.
type Prober struct {
	runner process.Runner
	binary string
}

// NewProber uses binary (default "ffprobe") through runner.
func NewProber(runner process.Runner, binary string) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{runner: runner, binary: binary}
}

// Probe reads stream information for path.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	res, err := p.runner.Run(ctx, process.Command{
		Binary: p.binary,
		Args:   []string{"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path},
	})
	if err != nil {
		return nil, err
	}
	return parseProbe(res.Stdout)
}

func parseProbe(data []byte) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("media: decode ffprobe output: %w", err)
	}

	info := &Info{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	audio := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
		case "audio":
			if audio {
				continue
			}
			audio = true
			info.Codec = s.CodecName
			info.BitRate, _ = strconv.ParseInt(s.BitRate, 10, 64)
			info.SampleRate, _ = strconv.Atoi(s.SampleRate)
			info.Channels = s.Channels
		}
	}
	if !audio {
		return nil, fmt.Errorf("media: no audio stream")
	}
	// Some containers only report the overall rate.
	if info.BitRate == 0 {
		info.BitRate, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)
	}
	return info, nil
}
