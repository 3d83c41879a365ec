// Package greenspace holds the domain model: regions, extracted green space
// features, and the per-region coverage summary derived from them.
package greenspace

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
)

// SpaceType classifies a green space feature by its dominant OSM tag.
type SpaceType string

const (
	TypePark             SpaceType = "park"
	TypeForest           SpaceType = "forest"
	TypeGarden           SpaceType = "garden"
	TypeNatureReserve    SpaceType = "nature_reserve"
	TypeMeadow           SpaceType = "meadow"
	TypeGrassland        SpaceType = "grassland"
	TypeWood             SpaceType = "wood"
	TypeRecreationGround SpaceType = "recreation_ground"
	TypeOther            SpaceType = "other"
)

// Types lists all space types in display order.
func Types() []SpaceType {
	return []SpaceType{
		TypePark, TypeForest, TypeGarden, TypeNatureReserve,
		TypeMeadow, TypeGrassland, TypeWood, TypeRecreationGround,
	}
}

// Title returns the type as a human-readable label ("nature_reserve" ->
// "Nature Reserve").
func (t SpaceType) Title() string {
	parts := strings.Split(string(t), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Region is one operator-configured region: an OSM extract plus the
// population and land area figures the summary is computed against.
type Region struct {
	SourceFile   string  `json:"source_file"`
	Name         string  `json:"name"`
	Population   int64   `json:"population"`
	TotalAreaKm2 float64 `json:"total_area_km2"`
}

// Slug returns the region name in filesystem/URL form.
func (r Region) Slug() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(r.Name)), " ", "_")
}

const unnamed = "Unnamed"

// GreenSpace is one extracted green space feature.
type GreenSpace struct {
	OSMID     int64             `json:"osm_id"`
	OSMType   string            `json:"osm_type"` // "way" or "relation"
	Name      string            `json:"name"`
	Type      SpaceType         `json:"space_type"`
	Centroid  *Coordinates      `json:"centroid,omitempty"`
	AreaSqM   float64           `json:"area_sq_m"`
	PerimM    float64           `json:"perimeter_m"`
	Tags      map[string]string `json:"tags,omitempty"`
	NodeCount int               `json:"node_count"`

	// Geometry is the closed outer ring in lon/lat order. Nil for relations
	// and for ways whose nodes were outside the extract.
	Geometry *geom.Polygon `json:"-"`
}

// Coordinates is a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lon)
}

// HasName reports whether the feature carries a real OSM name.
func (g *GreenSpace) HasName() bool {
	return g.Name != "" && g.Name != unnamed
}

// HasGeometry reports whether the feature has a usable polygon.
func (g *GreenSpace) HasGeometry() bool {
	return g.Geometry != nil && g.Geometry.NumCoords() >= 3
}

// IsNatural reports whether the feature is a natural (vs man-made) space.
func (g *GreenSpace) IsNatural() bool {
	switch g.Type {
	case TypeForest, TypeWood, TypeMeadow, TypeGrassland:
		return true
	}
	return false
}

// IsRecreational reports whether the feature is a recreational space.
func (g *GreenSpace) IsRecreational() bool {
	switch g.Type {
	case TypePark, TypeGarden, TypeRecreationGround:
		return true
	}
	return false
}

// Tag returns the value of an OSM tag, or the empty string.
func (g *GreenSpace) Tag(key string) string {
	return g.Tags[key]
}

// RegionSummary is the per-region aggregate consumed by the renderer and the
// API. Derived once per run; green figures are zero for an empty region.
type RegionSummary struct {
	Region            Region  `json:"region"`
	SpaceCount        int     `json:"space_count"`
	WithGeometry      int     `json:"with_geometry"`
	GreenAreaKm2      float64 `json:"green_area_km2"`
	GreenFraction     float64 `json:"green_fraction"`
	GreenPerCapitaKm2 float64 `json:"green_per_capita_km2"`
}

// Summarize derives the region summary from extracted features.
//
// green_fraction is exactly green_area / total_area when total_area > 0 and
// zero otherwise; likewise per-capita against population. Features without
// geometry contribute zero area.
func Summarize(region Region, spaces []*GreenSpace) RegionSummary {
	s := RegionSummary{Region: region, SpaceCount: len(spaces)}

	var areaSqM float64
	for _, sp := range spaces {
		if sp.HasGeometry() {
			s.WithGeometry++
		}
		areaSqM += sp.AreaSqM
	}
	s.GreenAreaKm2 = areaSqM / 1e6

	if region.TotalAreaKm2 > 0 {
		s.GreenFraction = s.GreenAreaKm2 / region.TotalAreaKm2
	}
	if region.Population > 0 {
		s.GreenPerCapitaKm2 = s.GreenAreaKm2 / float64(region.Population)
	}
	return s
}

// CountByType returns feature counts keyed by space type.
func CountByType(spaces []*GreenSpace) map[SpaceType]int {
	counts := make(map[SpaceType]int)
	for _, sp := range spaces {
		counts[sp.Type]++
	}
	return counts
}

// CountNamed returns the number of features with a real name.
func CountNamed(spaces []*GreenSpace) int {
	var n int
	for _, sp := range spaces {
		if sp.HasName() {
			n++
		}
	}
	return n
}
