package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTileCachePutGet(t *testing.T) {
	t.Parallel()

	c := NewTileCache(10, time.Minute)

	assert.Nil(t, c.Get(10, 511, 340))

	c.Put(10, 511, 340, []byte("tile-data"))
	assert.Equal(t, []byte("tile-data"), c.Get(10, 511, 340))

	// Overwrite replaces the data.
	c.Put(10, 511, 340, []byte("newer"))
	assert.Equal(t, []byte("newer"), c.Get(10, 511, 340))
}

func TestTileCacheExpiry(t *testing.T) {
	t.Parallel()

	c := NewTileCache(10, 10*time.Millisecond)
	c.Put(1, 2, 3, []byte("x"))
	assert.NotNil(t, c.Get(1, 2, 3))

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.Get(1, 2, 3))
}

func TestTileCacheEviction(t *testing.T) {
	t.Parallel()

	c := NewTileCache(2, time.Minute)
	c.Put(1, 0, 0, []byte("a"))
	c.Put(1, 0, 1, []byte("b"))

	// Touch the oldest so the other becomes the eviction candidate.
	assert.NotNil(t, c.Get(1, 0, 0))

	c.Put(1, 1, 0, []byte("c"))
	assert.NotNil(t, c.Get(1, 0, 0))
	assert.Nil(t, c.Get(1, 0, 1))
	assert.NotNil(t, c.Get(1, 1, 0))
}

func TestTileCacheStats(t *testing.T) {
	t.Parallel()

	c := NewTileCache(5, time.Minute)
	c.Put(1, 2, 3, []byte("x"))

	c.Get(1, 2, 3) // hit
	c.Get(9, 9, 9) // miss

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 5, stats.MaxEntries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}
