package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

func testData(t *testing.T) *RegionData {
	t.Helper()

	p := geom.NewPolygon(geom.XY).SetSRID(4326)
	p.Push(geom.NewLinearRingFlat(geom.XY, []float64{
		-2.0, 52.0,
		-1.99, 52.0,
		-1.99, 52.01,
		-2.0, 52.01,
		-2.0, 52.0,
	}))

	region := greenspace.Region{
		SourceFile:   "data/staffordshire-latest.osm.pbf",
		Name:         "Staffordshire",
		Population:   1177578,
		TotalAreaKm2: 2714,
	}
	spaces := []*greenspace.GreenSpace{
		{
			OSMID:    100,
			OSMType:  "way",
			Name:     "Sutton Park",
			Type:     greenspace.TypePark,
			Centroid: &greenspace.Coordinates{Lat: 52.005, Lon: -1.995},
			AreaSqM:  750000,
			Geometry: p,
		},
		{
			OSMID:    200,
			OSMType:  "relation",
			Name:     "Cannock Chase",
			Type:     greenspace.TypeNatureReserve,
			Centroid: &greenspace.Coordinates{Lat: 52.7, Lon: -2.0},
		},
		{
			OSMID:   300,
			OSMType: "way",
			Name:    "Unnamed",
			Type:    greenspace.TypeWood,
		},
	}
	return &RegionData{
		Summary: greenspace.Summarize(region, spaces),
		Spaces:  spaces,
	}
}

func testServer(t *testing.T, artifactDir string) *httptest.Server {
	t.Helper()

	srv := New(artifactDir, []*RegionData{testData(t)}, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := testServer(t, t.TempDir())
	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestIndexNotRenderedYet(t *testing.T) {
	t.Parallel()

	ts := testServer(t, t.TempDir())
	resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))
}

func TestIndexServed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "index.html"), []byte("<html>Regions</html>"), 0o644))

	ts := testServer(t, dir)
	resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMapArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "greenspace_staffordshire.html"), []byte("<html>Map</html>"), 0o644))

	ts := testServer(t, dir)

	resp := get(t, ts.URL+"/maps/staffordshire")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, ts.URL+"/maps/cornwall")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIRegions(t *testing.T) {
	t.Parallel()

	ts := testServer(t, t.TempDir())
	resp := get(t, ts.URL+"/api/regions")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var regions []struct {
		Slug    string                   `json:"slug"`
		Map     string                   `json:"map"`
		Summary greenspace.RegionSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regions))
	require.Len(t, regions, 1)
	assert.Equal(t, "staffordshire", regions[0].Slug)
	assert.Equal(t, "/maps/staffordshire", regions[0].Map)
	assert.Equal(t, 3, regions[0].Summary.SpaceCount)
}

func decodeFeatures(t *testing.T, resp *http.Response) []*geojson.Feature {
	t.Helper()
	var fc geojson.FeatureCollection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	return fc.Features
}

func TestAPISpaces(t *testing.T) {
	t.Parallel()

	ts := testServer(t, t.TempDir())

	// Single-region server resolves the region implicitly. The feature
	// without geometry or centroid is dropped.
	resp := get(t, ts.URL+"/api/spaces")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	assert.Len(t, decodeFeatures(t, resp), 2)

	resp = get(t, ts.URL+"/api/spaces?region=staffordshire&type=park")
	features := decodeFeatures(t, resp)
	require.Len(t, features, 1)
	assert.Equal(t, "Sutton Park", features[0].Properties["name"])

	resp = get(t, ts.URL+"/api/spaces?name=cannock")
	features = decodeFeatures(t, resp)
	require.Len(t, features, 1)
	assert.Equal(t, "Cannock Chase", features[0].Properties["name"])

	resp = get(t, ts.URL+"/api/spaces?type=garden")
	assert.Empty(t, decodeFeatures(t, resp))

	resp = get(t, ts.URL+"/api/spaces?region=cornwall")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIStats(t *testing.T) {
	t.Parallel()

	ts := testServer(t, t.TempDir())
	resp := get(t, ts.URL+"/api/stats")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TotalSpaces int            `json:"total_spaces"`
		NamedSpaces int            `json:"named_spaces"`
		TypeCounts  map[string]int `json:"type_counts"`
		SourceFile  string         `json:"source_file"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalSpaces)
	assert.Equal(t, 2, stats.NamedSpaces)
	assert.Equal(t, 1, stats.TypeCounts["park"])
	assert.Equal(t, 1, stats.TypeCounts["wood"])
	// Only the base name leaks, not the configured path.
	assert.Equal(t, "staffordshire-latest.osm.pbf", stats.SourceFile)
}

func TestRegionParamMultiRegion(t *testing.T) {
	t.Parallel()

	second := testData(t)
	second.Summary.Region.Name = "West Midlands"

	srv := New(t.TempDir(), []*RegionData{testData(t), second}, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	// With more than one region the parameter is required.
	resp := get(t, ts.URL+"/api/stats")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts.URL+"/api/stats?region=west_midlands")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSpaceFeature(t *testing.T) {
	t.Parallel()

	spaces := testData(t).Spaces

	poly := spaceFeature(spaces[0])
	require.NotNil(t, poly)
	_, isPoly := poly.Geometry.(*geom.Polygon)
	assert.True(t, isPoly)

	point := spaceFeature(spaces[1])
	require.NotNil(t, point)
	_, isPoint := point.Geometry.(*geom.Point)
	assert.True(t, isPoint)

	assert.Nil(t, spaceFeature(spaces[2]))
}
