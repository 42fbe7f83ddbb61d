package app

import "context"

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// OnStop registers hooks that run during Shutdown. Hooks run in reverse
// order, so resources close before the things they depend on.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}
