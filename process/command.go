package process

import (
	"io"
	"time"
)

// Command is one invocation of an external tool such as ffmpeg, ffprobe
// or whisper.cpp. The binary is resolved through PATH.
type Command struct {
	Binary string
	Args   []string
	// Env is appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod is the wait between SIGTERM and SIGKILL on cancel.
	// Zero means five seconds.
	GracePeriod time.Duration
}

// Result is what a finished (or killed) tool left behind. ExitCode is -1
// when the process was killed by a signal.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}
