// Package boundary loads region boundary shapefiles and measures their area,
// so a configured total_area_km2 can be checked against the mapped boundary.
package boundary

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/verdantlabs/greenspace-cli/internal/geodesy"
)

// MeasuredAreaKm2 reads all polygon shapes from a shapefile and returns
// their summed spherical area in km². Non-polygon shapes are skipped.
func MeasuredAreaKm2(shpPath string) (float64, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return 0, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	var areaSqM float64
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}
		areaSqM += geodesy.MultiPolygonAreaSqM(mp)
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped non-polygon shapefile records",
			zap.String("file", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return areaSqM / 1e6, nil
}

// Check compares a configured region area against the measured boundary
// area and returns true when they agree within tolerance (fraction, e.g.
// 0.05 for 5%). A non-positive configured area never agrees.
func Check(configuredKm2, measuredKm2, tolerance float64) bool {
	if configuredKm2 <= 0 || measuredKm2 <= 0 {
		return false
	}
	diff := configuredKm2 - measuredKm2
	if diff < 0 {
		diff = -diff
	}
	return diff/measuredKm2 <= tolerance
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}

		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
