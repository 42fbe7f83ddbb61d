// Package logger provides structured logging on top of zerolog.
//
// A process configures one global logger with Init; packages obtain
// component-scoped loggers with WithComponent and log with optional field
// maps:
//
//	log := logger.GetGlobalLogger().WithComponent("transcriber")
//	log.Info("cache hit", logger.Fields(logger.FieldFingerprint, fp))
//
// Console output goes to stderr by default so that command output written
// to stdout (transcripts, JSON results) stays machine-readable. Output can
// also be appended to a log file.
package logger
