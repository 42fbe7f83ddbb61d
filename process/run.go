package process

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// ErrBinaryNotFound is returned when the executable cannot be resolved.
var ErrBinaryNotFound = errors.New("process: binary not found")

const defaultGracePeriod = 5 * time.Second

// Run starts cmd in its own process group and waits for it. When ctx ends
// the whole group gets SIGTERM, then SIGKILL once the grace period passes.
// The Result is returned alongside any error so callers can inspect output.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}
	var stdout, stderr bytes.Buffer
	c := cmd.build(ctx, &stdout, &stderr)

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	return res, cmd.failure(ctx, res, err)
}

func (cmd Command) build(ctx context.Context, stdout, stderr *bytes.Buffer) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running tools is the point
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	c.Stdout = stdout
	c.Stderr = stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmp.Or(cmd.GracePeriod, defaultGracePeriod)
	return c
}

// failure turns the error from exec into one that names the tool and,
// for a non-zero exit, quotes the last line it wrote to stderr.
func (cmd Command) failure(ctx context.Context, res *Result, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, cmd.Binary)
	case ctx.Err() != nil:
		return fmt.Errorf("process: %s killed: %w", cmd.Binary, ctx.Err())
	}
	msg := fmt.Sprintf("process: %s exit code %d", cmd.Binary, res.ExitCode)
	if tail := lastLine(res.Stderr); tail != "" {
		msg += ": " + tail
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Available reports whether binary resolves to an executable.
func Available(binary string) bool {
	if binary == "" {
		return false
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

func lastLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
