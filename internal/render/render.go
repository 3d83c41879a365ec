// Package render turns extraction results into self-contained interactive
// map artifacts (Leaflet HTML) plus an index page linking them.
package render

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

// Default map center when no feature has a centroid (Birmingham).
const (
	defaultCenterLat = 52.4862
	defaultCenterLon = -1.8904
)

// typeColor holds the fill and border colors for one space type.
type typeColor struct {
	Fill   string
	Border string
}

// typeColors maps space types to their map colors.
var typeColors = map[greenspace.SpaceType]typeColor{
	greenspace.TypePark:             {"#32CD32", "#228B22"},
	greenspace.TypeForest:           {"#228B22", "#006400"},
	greenspace.TypeGarden:           {"#7CFC00", "#32CD32"},
	greenspace.TypeNatureReserve:    {"#FFD700", "#FF8C00"},
	greenspace.TypeMeadow:           {"#ADFF2F", "#9ACD32"},
	greenspace.TypeGrassland:        {"#90EE90", "#32CD32"},
	greenspace.TypeWood:             {"#2E8B57", "#006400"},
	greenspace.TypeRecreationGround: {"#87CEEB", "#4682B4"},
}

var otherColor = typeColor{"#808080", "#404040"}

// colorFor returns the colors for a space type.
func colorFor(t greenspace.SpaceType) typeColor {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return otherColor
}

// Renderer writes map artifacts to an output directory.
type Renderer struct {
	outputDir string
	printer   *message.Printer
	log       *zap.Logger
}

// New creates a Renderer writing under outputDir, creating it if needed.
func New(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "render: create output dir %s", outputDir)
	}
	return &Renderer{
		outputDir: outputDir,
		printer:   message.NewPrinter(language.English),
		log:       zap.L().With(zap.String("component", "render")),
	}, nil
}

// ArtifactName returns the artifact file name for a region.
func ArtifactName(region greenspace.Region) string {
	return "greenspace_" + region.Slug() + ".html"
}

// RenderRegion writes the interactive map artifact for one region and
// returns its path. The write is atomic: a temp file is renamed into place
// so a concurrently serving process never reads a partial artifact.
func (r *Renderer) RenderRegion(summary greenspace.RegionSummary, spaces []*greenspace.GreenSpace) (string, error) {
	data, err := r.buildPageData(summary, spaces)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "render: execute map template for %s", summary.Region.Name)
	}

	path := filepath.Join(r.outputDir, ArtifactName(summary.Region))
	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}

	r.log.Info("rendered map artifact",
		zap.String("region", summary.Region.Name),
		zap.String("path", path),
		zap.Int("spaces", len(spaces)),
	)
	return path, nil
}

// RenderIndex writes the index page linking all region artifacts and
// returns its path.
func (r *Renderer) RenderIndex(summaries []greenspace.RegionSummary) (string, error) {
	sorted := make([]greenspace.RegionSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Region.Name < sorted[j].Region.Name
	})

	type indexRow struct {
		Name         string
		Artifact     string
		Slug         string
		SpaceCount   int
		GreenAreaKm2 string
		GreenPercent string
		PerCapitaSqM string
		Population   string
	}

	rows := make([]indexRow, 0, len(sorted))
	for _, s := range sorted {
		rows = append(rows, indexRow{
			Name:         s.Region.Name,
			Artifact:     ArtifactName(s.Region),
			Slug:         s.Region.Slug(),
			SpaceCount:   s.SpaceCount,
			GreenAreaKm2: r.printer.Sprintf("%.2f", s.GreenAreaKm2),
			GreenPercent: r.printer.Sprintf("%.2f%%", s.GreenFraction*100),
			PerCapitaSqM: r.printer.Sprintf("%.0f", s.GreenPerCapitaKm2*1e6),
			Population:   r.printer.Sprintf("%d", s.Region.Population),
		})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, map[string]any{"Regions": rows}); err != nil {
		return "", eris.Wrap(err, "render: execute index template")
	}

	path := filepath.Join(r.outputDir, "index.html")
	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// legendEntry is one row of the map legend.
type legendEntry struct {
	Label string
	Fill  string
}

// pageData feeds the map template.
type pageData struct {
	Title        string
	RegionName   string
	CenterLat    float64
	CenterLon    float64
	GeoJSON      template.JS
	Legend       []legendEntry
	TotalSpaces  string
	WithGeometry string
	MarkersOnly  string
	TotalAreaM2  string
	TotalAreaKm2 string
	GreenAreaM2  string
	GreenAreaKm2 string
	GreenPercent string
	PerCapitaSqM string
	Population   string
}

func (r *Renderer) buildPageData(summary greenspace.RegionSummary, spaces []*greenspace.GreenSpace) (*pageData, error) {
	// Stable feature order keeps the artifact reproducible.
	sorted := make([]*greenspace.GreenSpace, len(spaces))
	copy(sorted, spaces)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OSMID != sorted[j].OSMID {
			return sorted[i].OSMID < sorted[j].OSMID
		}
		return sorted[i].OSMType < sorted[j].OSMType
	})

	fc := geojson.FeatureCollection{}
	centerLat, centerLon := defaultCenterLat, defaultCenterLon
	var sumLat, sumLon float64
	var withCentroid int

	for _, sp := range sorted {
		if sp.Centroid != nil {
			sumLat += sp.Centroid.Lat
			sumLon += sp.Centroid.Lon
			withCentroid++
		}

		f, err := featureFor(sp)
		if err != nil {
			return nil, err
		}
		if f != nil {
			fc.Features = append(fc.Features, f)
		}
	}
	if withCentroid > 0 {
		centerLat = sumLat / float64(withCentroid)
		centerLon = sumLon / float64(withCentroid)
	}

	fcJSON, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "render: marshal feature collection")
	}

	legend := make([]legendEntry, 0, len(greenspace.Types()))
	for _, t := range greenspace.Types() {
		legend = append(legend, legendEntry{Label: t.Title(), Fill: colorFor(t).Fill})
	}

	p := r.printer
	region := summary.Region
	return &pageData{
		Title:        "Green Spaces - " + region.Name,
		RegionName:   region.Name,
		CenterLat:    centerLat,
		CenterLon:    centerLon,
		GeoJSON:      template.JS(fcJSON),
		Legend:       legend,
		TotalSpaces:  p.Sprintf("%d", summary.SpaceCount),
		WithGeometry: p.Sprintf("%d", summary.WithGeometry),
		MarkersOnly:  p.Sprintf("%d", summary.SpaceCount-summary.WithGeometry),
		TotalAreaM2:  p.Sprintf("%.0f", region.TotalAreaKm2*1e6),
		TotalAreaKm2: p.Sprintf("%.2f", region.TotalAreaKm2),
		GreenAreaM2:  p.Sprintf("%.0f", summary.GreenAreaKm2*1e6),
		GreenAreaKm2: p.Sprintf("%.2f", summary.GreenAreaKm2),
		GreenPercent: p.Sprintf("%.2f%%", summary.GreenFraction*100),
		PerCapitaSqM: p.Sprintf("%.0f", summary.GreenPerCapitaKm2*1e6),
		Population:   p.Sprintf("%d", region.Population),
	}, nil
}

// featureFor converts a feature to GeoJSON: a polygon when geometry exists,
// a centroid point marker otherwise. Features with neither are skipped.
func featureFor(sp *greenspace.GreenSpace) (*geojson.Feature, error) {
	color := colorFor(sp.Type)
	props := map[string]any{
		"name":      sp.Name,
		"type":      string(sp.Type),
		"osm_id":    sp.OSMID,
		"osm_type":  sp.OSMType,
		"area_sq_m": sp.AreaSqM,
		"fill":      color.Fill,
		"border":    color.Border,
	}

	var g geom.T
	switch {
	case sp.HasGeometry():
		g = sp.Geometry
	case sp.Centroid != nil:
		props["marker"] = true
		g = geom.NewPointFlat(geom.XY, []float64{sp.Centroid.Lon, sp.Centroid.Lat}).SetSRID(4326)
	default:
		return nil, nil
	}

	return &geojson.Feature{Geometry: g, Properties: props}, nil
}

// atomicWrite writes data to a temp file then renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "render: rename %s", path)
	}
	return nil
}
