// Package cache persists extraction results per source file, so repeat runs
// and the web server can skip the pbf scan.
package cache

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

// Metadata describes a cached extraction.
type Metadata struct {
	SourceFile   string    `json:"source_file"`
	ExportedAt   time.Time `json:"exported_at"`
	Count        int       `json:"green_space_count"`
	Name         string    `json:"name"`
	Population   int64     `json:"population"`
	TotalAreaKm2 float64   `json:"total_area_km2"`
}

type envelope struct {
	Metadata    Metadata      `json:"metadata"`
	GreenSpaces []cachedSpace `json:"green_spaces"`
}

// cachedSpace wraps a feature with its geometry in GeoJSON form, which the
// domain type itself does not serialize.
type cachedSpace struct {
	*greenspace.GreenSpace
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
}

// Cache stores extraction envelopes under a directory, both as plain JSON
// and as gzipped JSON. The gzipped copy is preferred on load.
type Cache struct {
	dir string
	log *zap.Logger
}

// New creates a Cache rooted at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "cache: create dir %s", dir)
	}
	return &Cache{
		dir: dir,
		log: zap.L().With(zap.String("component", "cache")),
	}, nil
}

// Exists reports whether any cache file exists for the given source file.
func (c *Cache) Exists(pbfFile string) bool {
	if _, err := os.Stat(c.path(pbfFile, true)); err == nil {
		return true
	}
	_, err := os.Stat(c.path(pbfFile, false))
	return err == nil
}

// Save writes both cache formats for a region's extraction.
func (c *Cache) Save(region greenspace.Region, spaces []*greenspace.GreenSpace) error {
	env := envelope{
		Metadata: Metadata{
			SourceFile:   region.SourceFile,
			ExportedAt:   time.Now().UTC(),
			Count:        len(spaces),
			Name:         region.Name,
			Population:   region.Population,
			TotalAreaKm2: region.TotalAreaKm2,
		},
		GreenSpaces: make([]cachedSpace, 0, len(spaces)),
	}

	for _, sp := range spaces {
		cs := cachedSpace{GreenSpace: sp}
		if sp.Geometry != nil {
			g, err := geojson.Encode(sp.Geometry)
			if err != nil {
				return eris.Wrapf(err, "cache: encode geometry for %s/%d", sp.OSMType, sp.OSMID)
			}
			cs.Geometry = g
		}
		env.GreenSpaces = append(env.GreenSpaces, cs)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return eris.Wrap(err, "cache: marshal envelope")
	}

	jsonPath := c.path(region.SourceFile, false)
	if err := atomicWrite(jsonPath, data); err != nil {
		return err
	}

	gzPath := c.path(region.SourceFile, true)
	if err := atomicWriteGzip(gzPath, data); err != nil {
		return err
	}

	c.log.Info("cached extraction",
		zap.String("region", region.Name),
		zap.Int("spaces", len(spaces)),
		zap.String("path", gzPath),
	)
	return nil
}

// Load reads the cached extraction for a source file, preferring the gzipped
// copy. Returns the features and the stored metadata.
func (c *Cache) Load(pbfFile string) ([]*greenspace.GreenSpace, *Metadata, error) {
	data, err := c.read(pbfFile)
	if err != nil {
		return nil, nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, eris.Wrapf(err, "cache: unmarshal %s", pbfFile)
	}

	spaces := make([]*greenspace.GreenSpace, 0, len(env.GreenSpaces))
	for _, cs := range env.GreenSpaces {
		sp := cs.GreenSpace
		if sp == nil {
			continue
		}
		if cs.Geometry != nil {
			g, err := cs.Geometry.Decode()
			if err != nil {
				return nil, nil, eris.Wrapf(err, "cache: decode geometry for %s/%d", sp.OSMType, sp.OSMID)
			}
			if poly, ok := g.(*geom.Polygon); ok {
				sp.Geometry = poly
			}
		}
		spaces = append(spaces, sp)
	}

	return spaces, &env.Metadata, nil
}

func (c *Cache) read(pbfFile string) ([]byte, error) {
	gzPath := c.path(pbfFile, true)
	if f, err := os.Open(gzPath); err == nil {
		defer func() { _ = f.Close() }()
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, eris.Wrapf(err, "cache: gzip open %s", gzPath)
		}
		defer func() { _ = zr.Close() }()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, eris.Wrapf(err, "cache: gzip read %s", gzPath)
		}
		return data, nil
	}

	jsonPath := c.path(pbfFile, false)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNoCache, "%s", pbfFile)
		}
		return nil, eris.Wrapf(err, "cache: read %s", jsonPath)
	}
	return data, nil
}

// ErrNoCache means no cache file exists for the source file.
var ErrNoCache = eris.New("cache: not found")

// path returns the cache file path for a source file. The key is the pbf
// base name with its .osm.pbf suffix stripped.
func (c *Cache) path(pbfFile string, gzipped bool) string {
	stem := filepath.Base(pbfFile)
	stem = strings.TrimSuffix(stem, ".pbf")
	stem = strings.TrimSuffix(stem, ".osm")
	ext := "json"
	if gzipped {
		ext = "json.gz"
	}
	return filepath.Join(c.dir, stem+"_green_spaces."+ext)
}

// atomicWrite writes data to a temp file then renames it into place, so
// readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "cache: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "cache: rename %s", path)
	}
	return nil
}

func atomicWriteGzip(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "cache: create %s", tmp)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "cache: gzip write %s", tmp)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "cache: gzip close %s", tmp)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "cache: close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "cache: rename %s", path)
	}
	return nil
}
