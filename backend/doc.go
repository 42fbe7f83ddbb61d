// Package backend is the provider factory.
//
// A Registry maps provider names to a Descriptor (mode, capabilities, known
// models) and to factories that build transcription and analysis adapters.
// Resolution validates the name, mode, capability and model before any
// adapter is created, so bad selections fail without touching the network.
//
//	reg := backend.NewRegistry()
//	builtin.Register(reg, cfg.Local, nil, log)
//	tr, err := reg.Transcriber("openai", backend.ModeRemote, cfg)
package backend
