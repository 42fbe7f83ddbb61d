//go:build portaudio

package capture

import (
	"github.com/gordonklaus/portaudio"
)

type paStream struct {
	stream *portaudio.Stream
	buf    []int16
}

func openDefault(cfg Config) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	buf := make([]int16, cfg.FramesPerBuffer*cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), cfg.FramesPerBuffer, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}
	return &paStream{stream: stream, buf: buf}, nil
}

func (s *paStream) Read() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	return s.buf, nil
}

func (s *paStream) Close() error {
	_ = s.stream.Stop()
	err := s.stream.Close()
	_ = portaudio.Terminate()
	return err
}
