// Package fingerprint derives stable cache keys for transcription inputs.
//
// A fingerprint is a BLAKE2b-256 digest over the content digest of the audio
// payload and a canonical JSON encoding of the parameters that influence the
// transcript. Identical inputs always produce the same key; changing any
// parameter produces a different one.
package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/kbukum/samuelizer/errors"
)

// schemaVersion is mixed into every digest. Bump it when Params changes shape
// so old cache entries are not reused.
const schemaVersion = "samuelizer/fingerprint/v1"

// Fingerprint is a lowercase hex digest.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// Short returns the first 12 characters for log lines.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Optimization describes the audio optimization applied before upload.
type Optimization struct {
	Enabled       bool   `json:"enabled"`
	TargetBitrate string `json:"target_bitrate"`
	MaxSizeMB     int    `json:"max_size_mb"`
	RemoveSilence bool   `json:"remove_silence"`
}

// Params are the transcription parameters that influence the transcript.
// Field order is fixed by the struct, which keeps the JSON encoding canonical.
type Params struct {
	Provider     string       `json:"provider"`
	Model        string       `json:"model"`
	Diarization  bool         `json:"diarization"`
	Language     string       `json:"language"`
	Optimization Optimization `json:"optimization"`
}

// Compute fingerprints the file at path. The file is opened read-only.
func Compute(path string, params Params) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.InputUnreadable(path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	fp, err := ComputeReader(f, params)
	if err != nil {
		return "", errors.InputUnreadable(path, err)
	}
	return fp, nil
}

// ComputeReader fingerprints the bytes read from r.
func ComputeReader(r io.Reader, params Params) (Fingerprint, error) {
	content, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(content, r); err != nil {
		return "", fmt.Errorf("fingerprint: read content: %w", err)
	}
	return combine(content.Sum(nil), params)
}

func combine(contentDigest []byte, params Params) (Fingerprint, error) {
	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("fingerprint: encode params: %w", err)
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write([]byte(schemaVersion))
	h.Write([]byte{0})
	h.Write(contentDigest)
	h.Write([]byte{0})
	h.Write(canonical)
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// Valid reports whether s looks like a fingerprint produced by this package.
func Valid(s string) bool {
	if len(s) != blake2b.Size256*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
