package capture

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"sync/atomic"
)

// maxLineSize bounds a single tshark line, newline included. Longer lines
// are discarded up to the next newline and counted as skipped.
const maxLineSize = 1024 * 1024

// LineReader copies lines from a process's stdout into a LineQueue on its
// own goroutine.
type LineReader struct {
	queue   *LineQueue
	lines   atomic.Int64
	skipped atomic.Int64
	done    chan struct{}
}

// StartReader starts reading r and returns immediately. The queue is closed
// when r reaches EOF or fails.
func StartReader(r io.Reader, queue *LineQueue) *LineReader {
	lr := &LineReader{queue: queue, done: make(chan struct{})}
	go lr.run(r)
	return lr
}

func (lr *LineReader) run(r io.Reader) {
	defer close(lr.done)

	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	skipping := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !skipping {
			if len(line)+len(chunk) > maxLineSize {
				skipping = true
				line = line[:0]
				lr.skipped.Add(1)
			} else {
				line = append(line, chunk...)
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == nil {
			if !skipping {
				lr.push(line)
			}
			skipping = false
			line = line[:0]
			continue
		}

		// Flush an unterminated last line.
		if !skipping && len(line) > 0 {
			lr.push(line)
		}
		// The pipe is closed under us when the process is reaped; that is a
		// normal end of stream.
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
			err = nil
		}
		lr.queue.Close(err)
		return
	}
}

func (lr *LineReader) push(line []byte) {
	lr.queue.Push(string(bytes.TrimRight(line, "\r\n")))
	lr.lines.Add(1)
}

// Done is closed once the reader has stopped.
func (lr *LineReader) Done() <-chan struct{} {
	return lr.done
}

// Lines is the number of lines read so far.
func (lr *LineReader) Lines() int64 {
	return lr.lines.Load()
}

// Skipped is the number of lines discarded for exceeding maxLineSize.
func (lr *LineReader) Skipped() int64 {
	return lr.skipped.Load()
}
