package tshark

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// Launcher starts tshark processes with a fixed set of options.
type Launcher struct {
	Options Options
	Logger  *zap.Logger
	// WaitDelay bounds how long Wait keeps the output pipes open after the
	// process has exited or ctx was cancelled.
	WaitDelay time.Duration
}

// Cmd is a running tshark process.
type Cmd struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *zapio.Writer

	waitOnce sync.Once
	waitErr  error
}

// Start spawns tshark. The process is sent SIGTERM when ctx is cancelled.
// Stderr ("Capturing on ...", permission errors) goes to the logger.
func (l *Launcher) Start(ctx context.Context) (*Cmd, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	args := BuildArgs(l.Options)
	cmd := exec.CommandContext(ctx, l.Options.binary(), args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = l.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	stderr := &zapio.Writer{
		Log:   logger.With(zap.String("source", "tshark-stderr")),
		Level: zapcore.InfoLevel,
	}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	logger.Info("starting tshark",
		zap.String("path", l.Options.binary()),
		zap.Strings("args", args))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start tshark: %w", err)
	}
	return &Cmd{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// Stdout is the process output, one packet per line.
func (c *Cmd) Stdout() io.Reader {
	return c.stdout
}

// Pid returns the OS process id.
func (c *Cmd) Pid() int {
	return c.cmd.Process.Pid
}

// Terminate asks tshark to exit so it can flush and stop dumpcap.
func (c *Cmd) Terminate() error {
	return c.cmd.Process.Signal(syscall.SIGTERM)
}

// Kill stops the process immediately.
func (c *Cmd) Kill() error {
	return c.cmd.Process.Kill()
}

// Wait reaps the process. It is safe to call more than once; later calls
// return the first result.
func (c *Cmd) Wait() error {
	c.waitOnce.Do(func() {
		c.waitErr = c.cmd.Wait()
		c.stderr.Close()
	})
	return c.waitErr
}
