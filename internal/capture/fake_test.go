package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// fakeProcess stands in for tshark: tests write lines to it and end it.
type fakeProcess struct {
	r *io.PipeReader
	w *io.PipeWriter

	endOnce sync.Once
	ended   chan struct{}
	exitErr error

	terminated atomic.Bool
	// ignoreTerm makes Terminate a no-op so only Kill ends the process.
	ignoreTerm atomic.Bool
	onEnd      func()
}

func newFakeProcess() *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{r: r, w: w, ended: make(chan struct{})}
}

func (p *fakeProcess) Stdout() io.Reader { return p.r }
func (p *fakeProcess) Pid() int          { return 0 }

func (p *fakeProcess) Terminate() error {
	p.terminated.Store(true)
	if !p.ignoreTerm.Load() {
		p.end(nil)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.end(nil)
	return nil
}

func (p *fakeProcess) Wait() error {
	<-p.ended
	return p.exitErr
}

// Emit writes one line as tshark would.
func (p *fakeProcess) Emit(line string) {
	_, _ = fmt.Fprintln(p.w, line)
}

// CloseStdout closes the output while the process keeps running.
func (p *fakeProcess) CloseStdout() {
	_ = p.w.Close()
}

// Crash ends the process as if it died on its own.
func (p *fakeProcess) Crash(err error) {
	p.end(err)
}

func (p *fakeProcess) end(err error) {
	p.endOnce.Do(func() {
		p.exitErr = err
		_ = p.w.Close()
		close(p.ended)
		if p.onEnd != nil {
			p.onEnd()
		}
	})
}

// fakeLauncher hands out fakeProcesses and tracks how many are alive.
type fakeLauncher struct {
	mu     sync.Mutex
	procs  []*fakeProcess
	active atomic.Int32
	fail   error
}

func (l *fakeLauncher) Launch(ctx context.Context) (Process, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := newFakeProcess()
	p.onEnd = func() { l.active.Add(-1) }
	l.active.Add(1)

	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()
	return p, nil
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.procs) == 0 {
		return nil
	}
	return l.procs[len(l.procs)-1]
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

var errLaunch = errors.New("tshark: permission denied")
