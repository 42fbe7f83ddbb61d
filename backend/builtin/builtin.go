// Package builtin registers the shipped providers.
package builtin

import (
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/backend/gemini"
	"github.com/kbukum/samuelizer/backend/local"
	"github.com/kbukum/samuelizer/backend/openai"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/process"
)

// Register adds openai, gemini and local to reg. lc shapes the local
// descriptor; runner may be nil.
func Register(reg *backend.Registry, lc backend.LocalConfig, runner process.Runner, log *logger.Logger) error {
	for _, r := range []backend.Registration{
		openai.Registration(),
		gemini.Registration(),
		local.Registration(lc, runner, log),
	} {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}
