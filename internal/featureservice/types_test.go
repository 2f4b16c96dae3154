package featureservice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geo-cli/internal/geomath"
)

func TestFeatureObjectID(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		want  string
	}{
		{"objectid number", map[string]any{"OBJECTID": float64(42)}, "42"},
		{"objectid string", map[string]any{"OBJECTID": "A-17"}, "A-17"},
		{"mixed-case key", map[string]any{"ObjectId": float64(7)}, "7"},
		{"fid fallback", map[string]any{"FID": float64(3)}, "3"},
		{"prefers objectid over fid", map[string]any{"OBJECTID": float64(1), "FID": float64(2)}, "1"},
		{"missing", map[string]any{"NAME": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Feature{Attributes: tt.attrs}.ObjectID())
		})
	}
}

func TestGeometryDecode(t *testing.T) {
	raw := `{
		"attributes": {"OBJECTID": 1},
		"geometry": {"rings": [[[-122.0, 36.0], [-122.0, 37.0], [-121.0, 37.0], [-122.0, 36.0]]]}
	}`
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(raw), &f))

	rings := f.Geometry.RingPoints()
	require.Len(t, rings, 1)
	require.Len(t, rings[0], 4)
	assert.Equal(t, geomath.Point{Lat: 36.0, Lon: -122.0}, rings[0][0])
	assert.False(t, f.Geometry.IsEmpty())

	_, isPoint := f.Geometry.Point()
	assert.False(t, isPoint)
}

func TestGeometryPoint(t *testing.T) {
	x, y := -122.2, 36.95
	g := &Geometry{X: &x, Y: &y}

	p, ok := g.Point()
	require.True(t, ok)
	assert.Equal(t, geomath.Point{Lat: 36.95, Lon: -122.2}, p)
}

func TestGeometryIsEmpty(t *testing.T) {
	assert.True(t, (*Geometry)(nil).IsEmpty())
	assert.True(t, (&Geometry{}).IsEmpty())
	assert.False(t, (&Geometry{Paths: [][][]float64{{{-122, 36}, {-121, 36}}}}).IsEmpty())
}

func TestGeometrySkipsShortCoords(t *testing.T) {
	g := &Geometry{Paths: [][][]float64{{{-122, 36}, {-121}, {-121, 37}}}}
	paths := g.PathPoints()
	require.Len(t, paths, 1)
	assert.Len(t, paths[0], 2)
}
