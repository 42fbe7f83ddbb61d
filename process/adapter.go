package process

import (
	"context"
	"time"

	"github.com/kbukum/samuelizer/provider"
)

// Runner executes commands. Media tools and the local transcriber take a
// Runner so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Config holds per-tool defaults.
type Config struct {
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// GracePeriod applies to commands that leave theirs unset.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds every command. Zero leaves it to the caller's context.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Adapter is a Runner that applies Config to each command.
type Adapter struct {
	cfg Config
}

var (
	_ Runner                                     = (*Adapter)(nil)
	_ provider.RequestResponse[Command, *Result] = (*Adapter)(nil)
)

// NewAdapter returns a Runner with the given defaults.
func NewAdapter(cfg Config) *Adapter { return &Adapter{cfg: cfg} }

func (a *Adapter) Name() string { return a.cfg.Name }

// IsAvailable is always true; binaries are resolved per command.
func (a *Adapter) IsAvailable(context.Context) bool { return true }

func (a *Adapter) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = a.cfg.GracePeriod
	}
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	return Run(ctx, cmd)
}

// Execute lets the adapter take provider middleware.
func (a *Adapter) Execute(ctx context.Context, cmd Command) (*Result, error) {
	return a.Run(ctx, cmd)
}
