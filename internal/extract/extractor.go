// Package extract reads OSM .osm.pbf extracts and produces green space
// features for a region.
package extract

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/qedus/osmpbf"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/verdantlabs/greenspace-cli/internal/geodesy"
	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

// Sentinel error kinds surfaced to the operator. Check with eris.Is.
var (
	// ErrMissingFile means the configured pbf path does not exist.
	ErrMissingFile = eris.New("extract: pbf file not found")
	// ErrFormat means the pbf file is unreadable or corrupt.
	ErrFormat = eris.New("extract: malformed pbf file")
)

// Extractor scans .osm.pbf files for green space features. The scan runs in
// three passes so only node coordinates actually referenced by green ways
// are held in memory: identify needed node IDs, load those coordinates,
// then build the features.
type Extractor struct {
	threads int
	log     *zap.Logger
}

// New creates an Extractor decoding with the given number of threads.
func New(threads int) *Extractor {
	if threads < 1 {
		threads = 1
	}
	return &Extractor{
		threads: threads,
		log:     zap.L().With(zap.String("component", "extract")),
	}
}

// Extract returns all green space features in the region's extract, sorted
// by OSM id. An extract with no green features returns an empty slice, not
// an error.
func (e *Extractor) Extract(ctx context.Context, region greenspace.Region) ([]*greenspace.GreenSpace, error) {
	path := region.SourceFile
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrMissingFile, "%s", path)
		}
		return nil, eris.Wrapf(err, "extract: stat %s", path)
	}

	log := e.log.With(zap.String("region", region.Name), zap.String("file", path))

	// Pass 1: node IDs referenced by green ways.
	needed := make(map[int64]struct{})
	var greenWays int
	err := e.scan(ctx, path, func(v any) {
		w, ok := v.(*osmpbf.Way)
		if !ok || !greenspace.IsGreenSpace(w.Tags) {
			return
		}
		greenWays++
		for _, id := range w.NodeIDs {
			needed[id] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	log.Debug("identified green ways",
		zap.Int("ways", greenWays),
		zap.Int("needed_nodes", len(needed)),
	)

	// Pass 2: coordinates for exactly those nodes.
	coords := make(map[int64]geom.Coord, len(needed))
	err = e.scan(ctx, path, func(v any) {
		n, ok := v.(*osmpbf.Node)
		if !ok {
			return
		}
		if _, want := needed[n.ID]; want {
			coords[n.ID] = geom.Coord{n.Lon, n.Lat}
		}
	})
	if err != nil {
		return nil, err
	}
	needed = nil

	// Pass 3: build features with geometry.
	var spaces []*greenspace.GreenSpace
	err = e.scan(ctx, path, func(v any) {
		switch el := v.(type) {
		case *osmpbf.Way:
			if gs := wayToGreenSpace(el, coords); gs != nil {
				spaces = append(spaces, gs)
			}
		case *osmpbf.Relation:
			if gs := relationToGreenSpace(el); gs != nil {
				spaces = append(spaces, gs)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(spaces, func(i, j int) bool {
		if spaces[i].OSMID != spaces[j].OSMID {
			return spaces[i].OSMID < spaces[j].OSMID
		}
		return spaces[i].OSMType < spaces[j].OSMType
	})

	log.Info("extraction complete",
		zap.Int("spaces", len(spaces)),
		zap.Int("green_ways", greenWays),
	)
	return spaces, nil
}

// scan decodes every element of the pbf file once, feeding each to fn.
func (e *Extractor) scan(ctx context.Context, path string, fn func(v any)) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "extract: open %s", path)
	}
	defer func() { _ = f.Close() }()

	d := osmpbf.NewDecoder(f)
	d.SetBufferSize(osmpbf.MaxBlobSize)
	if err := d.Start(e.threads); err != nil {
		return eris.Wrapf(ErrFormat, "%s: %v", path, err)
	}

	for i := 0; ; i++ {
		// Decode runs hot; only poll for cancellation periodically.
		if i%4096 == 0 && ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "extract: scan canceled")
		}

		v, err := d.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrapf(ErrFormat, "%s: %v", path, err)
		}
		fn(v)
	}
}

// wayToGreenSpace builds a feature from a green way, resolving its node
// coordinates. Returns nil for non-green ways.
func wayToGreenSpace(w *osmpbf.Way, nodeCoords map[int64]geom.Coord) *greenspace.GreenSpace {
	if !greenspace.IsGreenSpace(w.Tags) {
		return nil
	}

	name := w.Tags["name"]
	if name == "" {
		name = "Unnamed"
	}

	gs := &greenspace.GreenSpace{
		OSMID:     w.ID,
		OSMType:   "way",
		Name:      name,
		Type:      greenspace.ClassifyTags(w.Tags),
		Tags:      w.Tags,
		NodeCount: len(w.NodeIDs),
	}

	ring := make([]geom.Coord, 0, len(w.NodeIDs))
	for _, id := range w.NodeIDs {
		if c, ok := nodeCoords[id]; ok {
			ring = append(ring, c)
		}
	}

	if lat, lon, ok := geodesy.Centroid(ring); ok {
		gs.Centroid = &greenspace.Coordinates{Lat: lat, Lon: lon}
	}

	if len(ring) >= 3 {
		gs.Geometry = ringPolygon(ring)
		gs.AreaSqM = geodesy.PolygonAreaSqM(gs.Geometry)
		gs.PerimM = geodesy.RingPerimeterMeters(ring)
	}

	return gs
}

// relationToGreenSpace builds a geometry-less feature from a green relation.
// Member ways are not assembled into multipolygons; relations render as
// markers and contribute zero area.
func relationToGreenSpace(r *osmpbf.Relation) *greenspace.GreenSpace {
	if !greenspace.IsGreenSpace(r.Tags) {
		return nil
	}

	name := r.Tags["name"]
	if name == "" {
		name = "Unnamed"
	}

	return &greenspace.GreenSpace{
		OSMID:   r.ID,
		OSMType: "relation",
		Name:    name,
		Type:    greenspace.ClassifyTags(r.Tags),
		Tags:    r.Tags,
	}
}

// ringPolygon builds a single-ring polygon from lon/lat coords, closing the
// ring if needed.
func ringPolygon(ring []geom.Coord) *geom.Polygon {
	closed := ring
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		closed = append(append([]geom.Coord{}, ring...), first)
	}

	flat := make([]float64, 0, len(closed)*2)
	for _, c := range closed {
		flat = append(flat, c[0], c[1])
	}

	p := geom.NewPolygon(geom.XY).SetSRID(4326)
	_ = p.Push(geom.NewLinearRingFlat(geom.XY, flat))
	return p
}
