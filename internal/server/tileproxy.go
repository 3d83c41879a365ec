package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TileProxy proxies basemap raster tiles from an upstream tile server, with
// an LRU cache in front and a rate limit toward the upstream so batch map
// panning does not hammer the public tile servers.
type TileProxy struct {
	baseURL string
	client  *http.Client
	cache   *TileCache
	limiter *rate.Limiter
}

// NewTileProxy creates a basemap tile proxy limited to rps upstream
// requests per second.
func NewTileProxy(baseURL string, rps float64, cache *TileCache) *TileProxy {
	if rps <= 0 {
		rps = 1
	}
	return &TileProxy{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// Fetch retrieves a basemap tile from the cache or the upstream server.
func (p *TileProxy) Fetch(ctx context.Context, z, x, y int) ([]byte, error) {
	if p.cache != nil {
		if cached := p.cache.Get(z, x, y); cached != nil {
			return cached, nil
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "server: basemap rate wait")
	}

	url := fmt.Sprintf("%s/%d/%d/%d.png", p.baseURL, z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "server: create basemap request")
	}
	req.Header.Set("User-Agent", "greenspace-cli/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "server: fetch basemap tile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("server: basemap upstream returned %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "server: read basemap tile body")
	}

	if p.cache != nil {
		p.cache.Put(z, x, y, data)
	}

	zap.L().Debug("fetched basemap tile", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}
