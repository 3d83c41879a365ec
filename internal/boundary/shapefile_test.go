package boundary

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSquareShapefile writes a one-record polygon shapefile: a square of
// 0.1 x 0.1 degrees near Birmingham, roughly 75 km².
func writeSquareShapefile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "boundary.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	points := []shp.Point{
		{X: -1.94, Y: 52.43},
		{X: -1.84, Y: 52.43},
		{X: -1.84, Y: 52.53},
		{X: -1.94, Y: 52.53},
		{X: -1.94, Y: 52.43},
	}
	poly := &shp.Polygon{
		Box:       shp.Box{MinX: -1.94, MinY: 52.43, MaxX: -1.84, MaxY: 52.53},
		NumParts:  1,
		NumPoints: int32(len(points)),
		Parts:     []int32{0},
		Points:    points,
	}
	w.Write(poly)
	w.Close()

	return path
}

func TestMeasuredAreaKm2(t *testing.T) {
	t.Parallel()

	path := writeSquareShapefile(t)
	area, err := MeasuredAreaKm2(path)
	require.NoError(t, err)

	// 0.1 deg lat ~ 11.12 km, 0.1 deg lon at 52.48N ~ 6.77 km.
	assert.InDelta(t, 75.3, area, 1.0)
}

func TestMeasuredAreaKm2MissingFile(t *testing.T) {
	t.Parallel()

	_, err := MeasuredAreaKm2(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured float64
		measured   float64
		tolerance  float64
		want       bool
	}{
		{"exact match", 2714, 2714, 0.05, true},
		{"within tolerance", 2714, 2800, 0.05, true},
		{"at tolerance boundary", 1050, 1000, 0.05, true},
		{"outside tolerance", 2714, 3200, 0.05, false},
		{"configured much too small", 500, 2714, 0.05, false},
		{"zero configured never agrees", 0, 2714, 0.05, false},
		{"negative configured never agrees", -1, 2714, 0.05, false},
		{"zero measured never agrees", 2714, 0, 0.05, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.configured, tt.measured, tt.tolerance))
		})
	}
}

func TestPolygonToMultiPolygon(t *testing.T) {
	t.Parallel()

	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))

	poly := &shp.Polygon{
		NumParts:  2,
		NumPoints: 8,
		Parts:     []int32{0, 4},
		Points: []shp.Point{
			{X: -2.0, Y: 52.0},
			{X: -1.9, Y: 52.0},
			{X: -1.9, Y: 52.1},
			{X: -2.0, Y: 52.0},
			{X: -3.0, Y: 53.0},
			{X: -2.9, Y: 53.0},
			{X: -2.9, Y: 53.1},
			{X: -3.0, Y: 53.0},
		},
	}

	mp := polygonToMultiPolygon(poly)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 4, mp.Polygon(0).LinearRing(0).NumCoords())
}
