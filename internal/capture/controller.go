package capture

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"streamwatch/internal/models"
	"streamwatch/internal/tshark"
)

// Process is a running line-emitting capture process.
type Process interface {
	Stdout() io.Reader
	Pid() int
	Terminate() error
	Kill() error
	Wait() error
}

// LaunchFunc starts a capture process. The process may live as long as ctx.
type LaunchFunc func(ctx context.Context) (Process, error)

// RecordStore receives parsed records.
type RecordStore interface {
	Append(rec models.PacketRecord)
}

// NameStore receives server names.
type NameStore interface {
	RecordIfPresent(streamID int, name string)
}

// Observer is notified of pipeline events, typically for metrics.
type Observer interface {
	ObserveLine(parsed bool)
	ObserveState(s State)
	ObserveExit()
}

type nopObserver struct{}

func (nopObserver) ObserveLine(bool)   {}
func (nopObserver) ObserveState(State) {}
func (nopObserver) ObserveExit()       {}

// Options configures a Controller.
type Options struct {
	Launch   LaunchFunc
	Records  RecordStore
	Names    NameStore
	Observer Observer
	Logger   *zap.Logger

	// Parse converts a raw line. Defaults to tshark.ParseLine.
	Parse func(line string) (models.PacketRecord, error)

	// PollInterval is how often the loop drains the queue and checks for
	// cancellation. Defaults to 10ms.
	PollInterval time.Duration
	// BatchSize caps the lines handled per poll. Defaults to 512.
	BatchSize int
	// StopTimeout is how long Stop waits after SIGTERM before killing.
	// Defaults to 3s.
	StopTimeout time.Duration
}

func applyDefaults(opts Options) Options {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Parse == nil {
		opts.Parse = tshark.ParseLine
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 512
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 3 * time.Second
	}
	return opts
}

// Controller owns at most one running capture.
type Controller struct {
	opts   Options
	logger *zap.Logger

	// opMu serializes Start and Stop. mu guards the fields below it and is
	// never held while waiting on the loop or the process.
	opMu    sync.Mutex
	mu      sync.Mutex
	state   State
	run     *run
	lastErr error

	exited chan error
}

type run struct {
	id        string
	proc      Process
	pid       int
	queue     *LineQueue
	reader    *LineReader
	cancel    context.CancelFunc
	loopDone  chan struct{}
	startedAt time.Time
	stopping  atomic.Bool

	waitOnce sync.Once
	waitDone chan struct{}
	waitErr  error

	parsed  atomic.Int64
	dropped atomic.Int64
}

// Status describes the controller and its current run.
type Status struct {
	State        State
	RunID        string
	Pid          int
	StartedAt    time.Time
	LinesRead    int64
	LinesParsed  int64
	LinesDropped int64
	Buffered     int
	// RSS is the resident memory of the capture process in bytes, 0 when
	// unknown.
	RSS       uint64
	LastError error
}

// NewController creates a controller in the NotStarted state.
func NewController(opts Options) (*Controller, error) {
	if opts.Launch == nil {
		return nil, fmt.Errorf("capture: launch function is required")
	}
	if opts.Records == nil || opts.Names == nil {
		return nil, fmt.Errorf("capture: record and name stores are required")
	}
	opts = applyDefaults(opts)
	return &Controller{
		opts:   opts,
		logger: opts.Logger,
		exited: make(chan error, 1),
	}, nil
}

// Start launches a capture run. It returns ErrAlreadyRunning while a run is
// active. When the launch fails the controller is left untouched.
func (c *Controller) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.start(ctx)
}

func (c *Controller) start(ctx context.Context) error {
	c.mu.Lock()
	running := c.state == Running
	c.mu.Unlock()
	if running {
		return ErrAlreadyRunning
	}

	proc, err := c.opts.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	r := &run{
		id:        uuid.NewString(),
		proc:      proc,
		pid:       proc.Pid(),
		queue:     NewLineQueue(),
		loopDone:  make(chan struct{}),
		waitDone:  make(chan struct{}),
		startedAt: time.Now(),
	}
	r.reader = StartReader(proc.Stdout(), r.queue)

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	c.mu.Lock()
	c.run = r
	c.state = Running
	c.lastErr = nil
	c.mu.Unlock()

	c.opts.Observer.ObserveState(Running)
	c.logger.Info("capture started", zap.String("run", r.id), zap.Int("pid", r.pid))

	go c.loop(loopCtx, r)
	return nil
}

// Stop ends the running capture: it cancels the poll loop, waits for it,
// then terminates and reaps the process. Nothing is written to the stores
// after Stop returns. It returns ErrNoActiveCapture when nothing runs.
func (c *Controller) Stop() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.stop()
}

// Toggle stops a running capture and starts one otherwise, deciding under
// the same lock Start and Stop take.
func (c *Controller) Toggle(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.State() == Running {
		return c.stop()
	}
	return c.start(ctx)
}

func (c *Controller) stop() error {
	c.mu.Lock()
	r := c.run
	if c.state != Running || r == nil {
		c.mu.Unlock()
		return ErrNoActiveCapture
	}
	r.stopping.Store(true)
	c.mu.Unlock()

	r.cancel()
	<-r.loopDone

	if err := c.terminate(r); err != nil {
		c.logger.Debug("capture process wait", zap.String("run", r.id), zap.Error(err))
	}

	c.mu.Lock()
	if c.run == r {
		c.run = nil
		c.state = Paused
	}
	c.mu.Unlock()

	c.opts.Observer.ObserveState(Paused)
	c.logger.Info("capture stopped",
		zap.String("run", r.id),
		zap.Int64("parsed", r.parsed.Load()),
		zap.Int64("dropped", r.dropped.Load()))
	return nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Exited delivers an *ExitError each time a capture process ends without
// Stop. Only the latest unread exit is kept.
func (c *Controller) Exited() <-chan error {
	return c.exited
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{State: c.state, LastError: c.lastErr}
	r := c.run
	c.mu.Unlock()

	if r == nil {
		return st
	}
	st.RunID = r.id
	st.Pid = r.pid
	st.StartedAt = r.startedAt
	st.LinesRead = r.reader.Lines()
	st.LinesParsed = r.parsed.Load()
	st.LinesDropped = r.dropped.Load() + r.reader.Skipped()
	st.Buffered = r.queue.Len()
	st.RSS = processRSS(r.pid)
	return st
}

func (c *Controller) loop(ctx context.Context, r *run) {
	defer close(r.loopDone)

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !r.stopping.Load() {
				// The caller's context ended without Stop.
				c.finish(r, ctx.Err(), false)
			}
			return
		case <-ticker.C:
		}

		c.consume(r)

		if done, readErr := r.queue.Done(); done {
			c.finish(r, readErr, true)
			return
		}
	}
}

func (c *Controller) consume(r *run) {
	for _, line := range r.queue.Drain(c.opts.BatchSize) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := c.opts.Parse(line)
		if err != nil {
			r.dropped.Add(1)
			c.opts.Observer.ObserveLine(false)
			c.logger.Debug("dropping line", zap.String("run", r.id), zap.String("line", line), zap.Error(err))
			continue
		}
		c.opts.Names.RecordIfPresent(rec.StreamID, rec.ServerName)
		c.opts.Records.Append(rec)
		r.parsed.Add(1)
		c.opts.Observer.ObserveLine(true)
	}
}

// finish ends a run from inside its own loop, after the process exited or
// the parent context was cancelled.
func (c *Controller) finish(r *run, cause error, unexpected bool) {
	r.cancel()
	waitErr := c.terminate(r)

	var err error
	if unexpected {
		if cause == nil {
			cause = waitErr
		}
		err = &ExitError{RunID: r.id, Pid: r.pid, Err: cause}
	} else {
		err = cause
	}

	if unexpected {
		c.logger.Warn("capture process exited", zap.String("run", r.id), zap.Int("pid", r.pid), zap.Error(err))
	} else {
		c.logger.Info("capture cancelled", zap.String("run", r.id), zap.Error(err))
	}

	c.mu.Lock()
	if c.run == r {
		c.run = nil
		c.state = Paused
		c.lastErr = err
	}
	c.mu.Unlock()

	c.opts.Observer.ObserveState(Paused)
	if !unexpected {
		return
	}
	c.opts.Observer.ObserveExit()

	// Keep only the newest exit for the reader of Exited.
	select {
	case <-c.exited:
	default:
	}
	select {
	case c.exited <- err:
	default:
	}
}

// terminate signals the process, gives it StopTimeout to exit, kills it
// if needed, and reaps it. The end of stdout says nothing about the process
// itself, so only a returned Wait skips the signals.
func (c *Controller) terminate(r *run) error {
	r.wait()
	select {
	case <-r.waitDone:
		return r.waitErr
	default:
	}

	if err := r.proc.Terminate(); err != nil {
		_ = r.proc.Kill()
	}
	timer := time.NewTimer(c.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-r.waitDone:
	case <-timer.C:
		c.logger.Warn("capture process ignored SIGTERM, killing", zap.Int("pid", r.pid))
		_ = r.proc.Kill()
		<-r.waitDone
	}
	return r.waitErr
}

// wait reaps the process on its own goroutine, once.
func (r *run) wait() {
	r.waitOnce.Do(func() {
		go func() {
			r.waitErr = r.proc.Wait()
			close(r.waitDone)
		}()
	})
}

func processRSS(pid int) uint64 {
	if pid <= 0 {
		return 0
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	mem, err := p.MemoryInfo()
	if err != nil || mem == nil {
		return 0
	}
	return mem.RSS
}
