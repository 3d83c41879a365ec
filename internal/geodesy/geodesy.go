// Package geodesy computes areas, lengths, and centroids of lon/lat
// geometries on a spherical earth model.
package geodesy

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Mean earth radius in meters (IUGG).
const earthRadiusM = 6371008.8

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

// RingAreaSqM returns the spherical area enclosed by a ring of lon/lat
// coordinates, in square meters. The ring need not be explicitly closed.
// Rings with fewer than 3 points enclose nothing.
func RingAreaSqM(coords []geom.Coord) float64 {
	n := len(coords)
	if n >= 2 && coords[0][0] == coords[n-1][0] && coords[0][1] == coords[n-1][1] {
		coords = coords[:n-1]
		n--
	}
	if n < 3 {
		return 0
	}

	// Spherical excess approximation: sum (lambda2-lambda1) * (2 + sin(phi1)
	// + sin(phi2)) over edges, scaled by R^2/2.
	var total float64
	for i := 0; i < n; i++ {
		p1 := coords[i]
		p2 := coords[(i+1)%n]
		lambda1 := p1[0] * math.Pi / 180
		lambda2 := p2[0] * math.Pi / 180
		phi1 := p1[1] * math.Pi / 180
		phi2 := p2[1] * math.Pi / 180
		total += (lambda2 - lambda1) * (2 + math.Sin(phi1) + math.Sin(phi2))
	}
	return math.Abs(total * earthRadiusM * earthRadiusM / 2)
}

// PolygonAreaSqM returns the spherical area of a lon/lat polygon: the outer
// ring minus any interior rings.
func PolygonAreaSqM(p *geom.Polygon) float64 {
	if p == nil || p.NumLinearRings() == 0 {
		return 0
	}
	area := RingAreaSqM(p.LinearRing(0).Coords())
	for i := 1; i < p.NumLinearRings(); i++ {
		area -= RingAreaSqM(p.LinearRing(i).Coords())
	}
	if area < 0 {
		return 0
	}
	return area
}

// MultiPolygonAreaSqM returns the summed spherical area of a lon/lat
// multipolygon.
func MultiPolygonAreaSqM(mp *geom.MultiPolygon) float64 {
	if mp == nil {
		return 0
	}
	var area float64
	for i := 0; i < mp.NumPolygons(); i++ {
		area += PolygonAreaSqM(mp.Polygon(i))
	}
	return area
}

// RingPerimeterMeters returns the great-circle length of a ring's boundary.
// An unclosed ring is treated as closed.
func RingPerimeterMeters(coords []geom.Coord) float64 {
	n := len(coords)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 0; i < n-1; i++ {
		total += HaversineMeters(coords[i][1], coords[i][0], coords[i+1][1], coords[i+1][0])
	}
	if coords[0][0] != coords[n-1][0] || coords[0][1] != coords[n-1][1] {
		total += HaversineMeters(coords[n-1][1], coords[n-1][0], coords[0][1], coords[0][0])
	}
	return total
}

// Centroid returns the vertex-average centroid of a ring as (lat, lon).
// Returns false for an empty ring.
func Centroid(coords []geom.Coord) (lat, lon float64, ok bool) {
	n := len(coords)
	if n >= 2 && coords[0][0] == coords[n-1][0] && coords[0][1] == coords[n-1][1] {
		coords = coords[:n-1]
		n--
	}
	if n == 0 {
		return 0, 0, false
	}
	var sumLat, sumLon float64
	for _, c := range coords {
		sumLon += c[0]
		sumLat += c[1]
	}
	return sumLat / float64(n), sumLon / float64(n), true
}
