package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geo-cli/internal/featureservice"
	"github.com/sells-group/geo-cli/internal/resolver"
)

func TestToGeomPoint(t *testing.T) {
	x, y := -71.06, 42.36
	g := toGeom(&featureservice.Geometry{X: &x, Y: &y})
	require.NotNil(t, g)

	pt, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, []float64{-71.06, 42.36}, pt.FlatCoords())
	assert.Equal(t, 4326, pt.SRID())
}

func TestToGeomPolyline(t *testing.T) {
	g := toGeom(&featureservice.Geometry{
		Paths: [][][]float64{
			{{-71.0, 42.0}, {-71.1, 42.1}},
			{{-70.0, 41.0}, {-70.1, 41.1}, {-70.2, 41.2}},
		},
	})
	require.NotNil(t, g)

	mls, ok := g.(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 2, mls.NumLineStrings())
}

func TestToGeomPolygonClosesRings(t *testing.T) {
	// Unclosed ring on the wire; GeoJSON output must close it.
	g := toGeom(&featureservice.Geometry{
		Rings: [][][]float64{
			{{-71.0, 42.0}, {-71.0, 42.1}, {-70.9, 42.1}, {-70.9, 42.0}},
		},
	})
	require.NotNil(t, g)

	poly, ok := g.(*geom.Polygon)
	require.True(t, ok)
	require.Equal(t, 1, poly.NumLinearRings())

	coords := poly.LinearRing(0).Coords()
	assert.Equal(t, coords[0], coords[len(coords)-1])
}

func TestToGeomEmpty(t *testing.T) {
	assert.Nil(t, toGeom(nil))
	assert.Nil(t, toGeom(&featureservice.Geometry{}))
	assert.Nil(t, toGeom(&featureservice.Geometry{Rings: [][][]float64{{{0, 0}, {1, 1}}}}))
}

func TestToFeatureCollectionNullGeometry(t *testing.T) {
	fc := toFeatureCollection([]resolver.SpatialFeature{
		{ObjectID: "1", Attributes: map[string]any{"NAME": "x"}, DistanceMiles: 3.2, LayerID: "hospitals"},
	})

	body, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded struct {
		Features []struct {
			Geometry   *json.RawMessage `json:"geometry"`
			Properties map[string]any   `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded.Features, 1)
	assert.Equal(t, 3.2, decoded.Features[0].Properties["distance_miles"])
}
