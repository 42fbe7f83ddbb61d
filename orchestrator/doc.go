// Package orchestrator drives media to transcript and transcript to
// structured analysis.
//
// Transcriber runs Init, Fingerprint, CacheCheck, Optimize, Transcribe and
// Store in that order and stops at the first failing step with a typed
// error. Analyzer selects a template (optionally through a classification
// call), summarizes oversized input chunk by chunk and fills the template.
//
//	tr := orchestrator.NewTranscriber(reg, store, optimizer, orchestrator.TranscriberConfig{})
//	res, err := tr.Transcribe(ctx, orchestrator.TranscriptionRequest{
//		AudioPath: "meeting.m4a",
//		Provider:  "openai",
//		UseCache:  true,
//	})
package orchestrator
