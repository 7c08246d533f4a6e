package session

import (
	"sync"

	"streamwatch/internal/models"
)

// Cache stores packet records grouped by TCP stream id, in arrival order.
type Cache struct {
	mu           sync.RWMutex
	sessions     map[int][]models.PacketRecord
	order        []int
	totalPackets int
}

// Snapshot is a point-in-time, read-only view of the cache.
type Snapshot struct {
	// StreamIDs lists streams in the order they were first seen.
	StreamIDs    []int
	Sessions     map[int][]models.PacketRecord
	TotalPackets int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{sessions: make(map[int][]models.PacketRecord)}
}

// Append adds rec to the end of its stream's history.
func (c *Cache) Append(rec models.PacketRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	packets, ok := c.sessions[rec.StreamID]
	if !ok {
		c.order = append(c.order, rec.StreamID)
	}
	c.sessions[rec.StreamID] = append(packets, rec)
	c.totalPackets++
}

// Snapshot returns the current sessions. Each history is capped at its
// current length, so later appends write past what the snapshot can see and
// the snapshot never needs a deep copy. Callers must not modify it.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		StreamIDs:    make([]int, len(c.order)),
		Sessions:     make(map[int][]models.PacketRecord, len(c.sessions)),
		TotalPackets: c.totalPackets,
	}
	copy(snap.StreamIDs, c.order)
	for id, packets := range c.sessions {
		snap.Sessions[id] = packets[:len(packets):len(packets)]
	}
	return snap
}

// Session returns the history of one stream.
func (c *Cache) Session(streamID int) ([]models.PacketRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	packets, ok := c.sessions[streamID]
	return packets[:len(packets):len(packets)], ok
}

// Clear drops every session and resets the packet counter.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions = make(map[int][]models.PacketRecord)
	c.order = nil
	c.totalPackets = 0
}

// TotalPackets is the number of records appended since the last clear.
func (c *Cache) TotalPackets() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalPackets
}

// Len is the number of sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
