// Package errors provides the single error taxonomy used across samuelizer.
//
// Every failure the core surfaces is an *AppError. The Code identifies the
// kind (unsupported format, unknown provider, transcription failure, ...),
// the Stage names the pipeline step that failed, and ExitCode maps the kind
// to a distinct process exit status for the CLI. HTTP status mapping is kept
// for the API server.
package errors
