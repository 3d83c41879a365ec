package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileProxyFetch(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/10/511/340.png", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "greenspace-cli")
		w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(upstream.Close)

	cache := NewTileCache(10, time.Minute)
	p := NewTileProxy(upstream.URL, 100, cache)

	data, err := p.Fetch(context.Background(), 10, 511, 340)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, int64(1), requests.Load())

	// Second fetch is served from the cache.
	data, err = p.Fetch(context.Background(), 10, 511, 340)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, int64(1), requests.Load())
}

func TestTileProxyUpstreamError(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(upstream.Close)

	p := NewTileProxy(upstream.URL, 100, nil)
	_, err := p.Fetch(context.Background(), 1, 2, 3)
	assert.Error(t, err)
}

func TestTileProxyCanceledContext(t *testing.T) {
	t.Parallel()

	p := NewTileProxy("http://example.invalid", 0.001, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The rate limiter wait fails immediately on a canceled context.
	_, err := p.Fetch(ctx, 1, 2, 3)
	assert.Error(t, err)
}
