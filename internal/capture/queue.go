package capture

import "sync"

// LineQueue is an unbounded FIFO of raw lines between the reader goroutine
// and the poll loop. Push never blocks, so a slow consumer cannot stall
// tshark's output pipe.
type LineQueue struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	err    error
}

// NewLineQueue creates an empty, open queue.
func NewLineQueue() *LineQueue {
	return &LineQueue{}
}

// Push appends a line. Lines pushed after Close are dropped.
func (q *LineQueue) Push(line string) {
	q.mu.Lock()
	if !q.closed {
		q.lines = append(q.lines, line)
	}
	q.mu.Unlock()
}

// Drain removes and returns up to max lines, oldest first. max <= 0 means all.
func (q *LineQueue) Drain(max int) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.lines)
	if n == 0 {
		return nil
	}
	if max > 0 && max < n {
		n = max
	}
	out := make([]string, n)
	copy(out, q.lines)
	if n == len(q.lines) {
		q.lines = q.lines[:0]
	} else {
		q.lines = q.lines[n:]
	}
	return out
}

// Close marks the end of input. err is the read error, if any.
func (q *LineQueue) Close(err error) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.err = err
	}
	q.mu.Unlock()
}

// Done reports whether the queue is closed and fully drained, along with
// the error passed to Close.
func (q *LineQueue) Done() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.lines) == 0, q.err
}

// Len is the number of buffered lines.
func (q *LineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}
