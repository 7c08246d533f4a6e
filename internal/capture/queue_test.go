package capture

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineQueueDrainOrder(t *testing.T) {
	q := NewLineQueue()
	for _, l := range []string{"a", "b", "c", "d"} {
		q.Push(l)
	}

	assert.Equal(t, []string{"a", "b"}, q.Drain(2))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []string{"c", "d"}, q.Drain(0))
	assert.Nil(t, q.Drain(10))
}

func TestLineQueueDone(t *testing.T) {
	q := NewLineQueue()
	q.Push("a")

	done, _ := q.Done()
	assert.False(t, done)

	readErr := errors.New("boom")
	q.Close(readErr)
	q.Close(nil)
	q.Push("dropped")

	done, _ = q.Done()
	assert.False(t, done, "closed but still holding a line")

	assert.Equal(t, []string{"a"}, q.Drain(0))
	done, err := q.Done()
	assert.True(t, done)
	assert.Equal(t, readErr, err)
}

func TestLineReaderClosesQueueAtEOF(t *testing.T) {
	q := NewLineQueue()
	lr := StartReader(strings.NewReader("one\ntwo\nthree"), q)
	<-lr.Done()

	done, err := q.Done()
	require.False(t, done)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, q.Drain(0))
	assert.EqualValues(t, 3, lr.Lines())

	done, err = q.Done()
	assert.True(t, done)
	assert.NoError(t, err)
}

func TestLineReaderDoesNotWaitForConsumer(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		sb.WriteString("1.0 10.0.0.1 1.1.1.1 1 2 3 4\n")
	}

	q := NewLineQueue()
	lr := StartReader(strings.NewReader(sb.String()), q)
	<-lr.Done()

	assert.Equal(t, 10000, q.Len())
}

func TestLineReaderPipeClosed(t *testing.T) {
	p := newFakeProcess()
	q := NewLineQueue()
	lr := StartReader(p.Stdout(), q)

	p.Emit("x")
	p.Crash(nil)
	<-lr.Done()

	assert.Equal(t, []string{"x"}, q.Drain(0))
	done, err := q.Done()
	assert.True(t, done)
	assert.NoError(t, err)
}

func TestLineReaderSkipsOverlongLines(t *testing.T) {
	input := "first\r\n" + strings.Repeat("x", maxLineSize+10) + "\nsecond\n" + strings.Repeat("y", maxLineSize+1)

	q := NewLineQueue()
	lr := StartReader(strings.NewReader(input), q)
	<-lr.Done()

	assert.Equal(t, []string{"first", "second"}, q.Drain(0))
	assert.EqualValues(t, 2, lr.Lines())
	assert.EqualValues(t, 2, lr.Skipped())
	done, err := q.Done()
	assert.True(t, done)
	assert.NoError(t, err)
}
