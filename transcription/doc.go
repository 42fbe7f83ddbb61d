// Package transcription defines the speech-to-text provider interface and
// the request/response types shared by every backend.
//
// # Backends
//
//   - backend/openai: OpenAI audio transcriptions API
//   - backend/local: whisper.cpp executable on the host
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// Providers are resolved through the backend registry rather than
// constructed directly:
//
//	p, err := backend.Default().Transcriber("openai", backend.ModeRemote, cfg)
//	resp, err := p.Transcribe(ctx, transcription.Request{AudioPath: path})
package transcription
