package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamwatch/internal/models"
)

func record(stream, length int) models.PacketRecord {
	return models.PacketRecord{StreamID: stream, DirectedLength: length}
}

func TestCacheAppendSnapshotOrder(t *testing.T) {
	c := NewCache()
	for i := 1; i <= 5; i++ {
		c.Append(record(7, i))
	}

	snap := c.Snapshot()
	require.Len(t, snap.Sessions[7], 5)
	for i, rec := range snap.Sessions[7] {
		assert.Equal(t, i+1, rec.DirectedLength)
	}
	assert.Equal(t, []int{7}, snap.StreamIDs)
	assert.Equal(t, 5, snap.TotalPackets)
}

func TestCacheCounterAcrossStreams(t *testing.T) {
	c := NewCache()
	streams := []int{3, 1, 3, 2, 1, 9, 3}
	for _, s := range streams {
		c.Append(record(s, 10))
	}

	assert.Equal(t, len(streams), c.TotalPackets())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []int{3, 1, 2, 9}, c.Snapshot().StreamIDs)
}

func TestCacheSnapshotIsStable(t *testing.T) {
	c := NewCache()
	c.Append(record(1, 1))
	snap := c.Snapshot()

	c.Append(record(1, 2))
	c.Append(record(2, 3))

	assert.Len(t, snap.Sessions[1], 1)
	assert.NotContains(t, snap.Sessions, 2)
	assert.Equal(t, 1, snap.TotalPackets)

	packets, ok := c.Session(1)
	require.True(t, ok)
	assert.Len(t, packets, 2)
}

func TestCacheClearIdempotent(t *testing.T) {
	c := NewCache()
	c.Append(record(1, 1))
	c.Append(record(2, 1))

	c.Clear()
	c.Clear()

	snap := c.Snapshot()
	assert.Zero(t, snap.TotalPackets)
	assert.Empty(t, snap.Sessions)
	assert.Empty(t, snap.StreamIDs)
	assert.Zero(t, c.Len())

	_, ok := c.Session(1)
	assert.False(t, ok)
}

func TestCacheConcurrentAppendClearSnapshot(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			c.Append(record(i%10, i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			c.Clear()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := c.Snapshot()
			n := 0
			for _, id := range snap.StreamIDs {
				n += len(snap.Sessions[id])
			}
			assert.Equal(t, snap.TotalPackets, n)
			assert.Len(t, snap.Sessions, len(snap.StreamIDs))
		}
	}()
	wg.Wait()

	snap := c.Snapshot()
	n := 0
	for _, packets := range snap.Sessions {
		n += len(packets)
	}
	assert.Equal(t, snap.TotalPackets, n)
}
