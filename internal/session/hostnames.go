package session

import "sync"

// Hostnames maps a stream id to the last server name (SNI or HTTP Host)
// observed on it.
type Hostnames struct {
	mu    sync.RWMutex
	names map[int]string
}

// NewHostnames creates an empty registry.
func NewHostnames() *Hostnames {
	return &Hostnames{names: make(map[int]string)}
}

// RecordIfPresent stores name for streamID unless name is empty.
func (h *Hostnames) RecordIfPresent(streamID int, name string) {
	if name == "" {
		return
	}
	h.mu.Lock()
	h.names[streamID] = name
	h.mu.Unlock()
}

// Lookup returns the name recorded for streamID.
func (h *Hostnames) Lookup(streamID int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	name, ok := h.names[streamID]
	return name, ok
}

// Clear forgets every name.
func (h *Hostnames) Clear() {
	h.mu.Lock()
	h.names = make(map[int]string)
	h.mu.Unlock()
}

// Len is the number of streams with a known name.
func (h *Hostnames) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.names)
}
