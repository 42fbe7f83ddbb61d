package transcription

import "context"

type stub struct{}

func (stub) Name() string                     { return "stub" }
func (stub) IsAvailable(context.Context) bool { return true }
func (stub) Transcribe(context.Context, Request) (*Response, error) {
	return &Response{Text: "ok"}, nil
}
