package raster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cachedBlock{block: Block{Steps: 1}})
	c.put("b", cachedBlock{block: Block{Steps: 2}})
	c.put("c", cachedBlock{block: Block{Steps: 3}})

	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	v, ok := c.get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v.block.Steps)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessRefreshesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cachedBlock{})
	c.put("b", cachedBlock{})
	c.get("a")
	c.put("c", cachedBlock{})

	_, ok := c.get("a")
	assert.True(t, ok)
	_, ok = c.get("b")
	assert.False(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	boom := errors.New("boom")

	c.put("a", cachedBlock{})
	c.put("a", cachedBlock{err: boom})

	v, ok := c.get("a")
	require.True(t, ok)
	assert.ErrorIs(t, v.err, boom)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_Reset(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", cachedBlock{})
	c.reset()

	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Zero(t, c.len())
}

func TestLRUCache_MinimumSize(t *testing.T) {
	c := newLRUCache(0)
	c.put("a", cachedBlock{})
	_, ok := c.get("a")
	assert.True(t, ok)
}
