package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostnames(t *testing.T) {
	h := NewHostnames()

	h.RecordIfPresent(7, "")
	_, ok := h.Lookup(7)
	assert.False(t, ok)

	h.RecordIfPresent(7, "example.com")
	name, ok := h.Lookup(7)
	assert.True(t, ok)
	assert.Equal(t, "example.com", name)

	h.RecordIfPresent(7, "")
	name, _ = h.Lookup(7)
	assert.Equal(t, "example.com", name, "empty names never overwrite")

	h.RecordIfPresent(7, "cdn.example.com")
	name, _ = h.Lookup(7)
	assert.Equal(t, "cdn.example.com", name)
	assert.Equal(t, 1, h.Len())

	h.Clear()
	_, ok = h.Lookup(7)
	assert.False(t, ok)
	assert.Zero(t, h.Len())
}
