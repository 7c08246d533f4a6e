package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning rejects Start while a capture is running.
	ErrAlreadyRunning = errors.New("capture already running")
	// ErrNoActiveCapture rejects Stop when nothing is running.
	ErrNoActiveCapture = errors.New("no active capture")
	// ErrCaptureProcessExited is wrapped by ExitError.
	ErrCaptureProcessExited = errors.New("capture process exited")
)

// ExitError reports a capture process that ended without Stop being called.
type ExitError struct {
	RunID string
	Pid   int
	// Err is the wait or read error, nil for a clean exit status.
	Err error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (run %s, pid %d)", ErrCaptureProcessExited, e.RunID, e.Pid)
	}
	return fmt.Sprintf("%s (run %s, pid %d): %v", ErrCaptureProcessExited, e.RunID, e.Pid, e.Err)
}

func (e *ExitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCaptureProcessExited}
	}
	return []error{ErrCaptureProcessExited, e.Err}
}
