package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetCache_LRU(t *testing.T) {
	c := newDatasetCache(2)

	assert.Empty(t, c.put(&cachedDataset{id: "a", fingerprint: "fa"}))
	assert.Empty(t, c.put(&cachedDataset{id: "b", fingerprint: "fb"}))

	// Touch a so b becomes the oldest.
	_, ok := c.get("a")
	require.True(t, ok)

	assert.Equal(t, "b", c.put(&cachedDataset{id: "c", fingerprint: "fc"}))
	assert.Equal(t, 2, c.len())

	_, ok = c.get("b")
	assert.False(t, ok)
	_, ok = c.getByFingerprint("fb")
	assert.False(t, ok)

	got, ok := c.getByFingerprint("fa")
	require.True(t, ok)
	assert.Equal(t, "a", got.id)
}

func TestDatasetCache_Replace(t *testing.T) {
	c := newDatasetCache(2)
	c.put(&cachedDataset{id: "a", fingerprint: "f1"})
	c.put(&cachedDataset{id: "a", fingerprint: "f2"})

	assert.Equal(t, 1, c.len())
	_, ok := c.getByFingerprint("f1")
	assert.False(t, ok)
	_, ok = c.getByFingerprint("f2")
	assert.True(t, ok)
}

func TestDatasetCache_MinimumCapacity(t *testing.T) {
	c := newDatasetCache(0)
	c.put(&cachedDataset{id: "a"})
	assert.Equal(t, "a", c.put(&cachedDataset{id: "b"}))
}
