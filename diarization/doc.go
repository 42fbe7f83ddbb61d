// Package diarization defines the speaker diarization provider interface and
// the helpers that attribute transcript segments to speakers.
//
// # Backends
//
//   - diarization/pyannote: pyannote HTTP sidecar
package diarization
