package capture

import (
	"encoding/binary"
	"fmt"
	"io"
)

const wavHeaderSize = 44

// WAVWriter writes 16-bit PCM samples into a RIFF/WAVE container. The
// size fields are written as zero and patched by Close, so the target must
// be seekable.
type WAVWriter struct {
	w          io.WriteSeeker
	sampleRate int
	channels   int
	dataBytes  uint32
	closed     bool
}

// NewWAVWriter writes the header and positions w at the first sample.
func NewWAVWriter(w io.WriteSeeker, sampleRate, channels int) (*WAVWriter, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("wav: invalid format %d Hz x %d channels", sampleRate, channels)
	}
	ww := &WAVWriter{w: w, sampleRate: sampleRate, channels: channels}
	if err := ww.writeHeader(); err != nil {
		return nil, err
	}
	return ww, nil
}

func (ww *WAVWriter) writeHeader() error {
	blockAlign := uint16(ww.channels * 2)
	hdr := make([]byte, wavHeaderSize)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+ww.dataBytes)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(ww.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(ww.sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(ww.sampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], ww.dataBytes)

	if _, err := ww.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wav: seek header: %w", err)
	}
	if _, err := ww.w.Write(hdr); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	return nil
}

// WriteSamples appends interleaved samples.
func (ww *WAVWriter) WriteSamples(samples []int16) error {
	if ww.closed {
		return fmt.Errorf("wav: write after close")
	}
	if len(samples) == 0 {
		return nil
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := ww.w.Write(buf); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	ww.dataBytes += uint32(len(buf))
	return nil
}

// Frames reports how many frames have been written.
func (ww *WAVWriter) Frames() int {
	return int(ww.dataBytes) / (ww.channels * 2)
}

// Close rewrites the header with the final sizes. It does not close the
// underlying writer.
func (ww *WAVWriter) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.writeHeader(); err != nil {
		return err
	}
	_, err := ww.w.Seek(0, io.SeekEnd)
	return err
}
