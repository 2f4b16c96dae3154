package server

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/featureservice"
	"github.com/sells-group/geo-cli/internal/resolver"
)

// toFeatureCollection renders resolved features as a GeoJSON
// FeatureCollection. Computed fields (distance, containment, layer) ride
// along as properties next to the source attributes.
func toFeatureCollection(features []resolver.SpatialFeature) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, sf := range features {
		props := make(map[string]any, len(sf.Attributes)+4)
		for k, v := range sf.Attributes {
			props[k] = v
		}
		props["distance_miles"] = sf.DistanceMiles
		props["is_containing"] = sf.IsContaining
		props["layer_id"] = sf.LayerID
		props["layer_label"] = sf.LayerLabel

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         sf.ObjectID,
			Geometry:   toGeom(sf.Geometry),
			Properties: props,
		})
	}
	return fc
}

// toGeom converts an Esri JSON geometry to a go-geom geometry. Coordinates
// are already lon/lat in WGS84. Returns nil for empty or malformed shapes;
// GeoJSON permits null geometry.
func toGeom(g *featureservice.Geometry) geom.T {
	if g == nil || g.IsEmpty() {
		return nil
	}

	switch {
	case g.X != nil && g.Y != nil:
		return geom.NewPointFlat(geom.XY, []float64{*g.X, *g.Y}).SetSRID(4326)

	case len(g.Paths) > 0:
		mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)
		for i, path := range g.Paths {
			flat := flatCoords(path)
			if len(flat) < 4 {
				continue
			}
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
				zap.L().Debug("skipping malformed path", zap.Int("path", i), zap.Error(err))
			}
		}
		if mls.NumLineStrings() == 0 {
			return nil
		}
		return mls

	case len(g.Rings) > 0:
		poly := geom.NewPolygon(geom.XY).SetSRID(4326)
		for i, ring := range g.Rings {
			flat := flatCoords(closeRing(ring))
			if len(flat) < 8 {
				continue
			}
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
				zap.L().Debug("skipping malformed ring", zap.Int("ring", i), zap.Error(err))
			}
		}
		if poly.NumLinearRings() == 0 {
			return nil
		}
		return poly
	}
	return nil
}

// closeRing appends the first vertex when a ring is not explicitly closed,
// as GeoJSON linear rings must be.
func closeRing(ring [][]float64) [][]float64 {
	if len(ring) < 3 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if len(first) >= 2 && len(last) >= 2 && (first[0] != last[0] || first[1] != last[1]) {
		return append(append([][]float64{}, ring...), first)
	}
	return ring
}

// flatCoords flattens [lon, lat] pairs for go-geom, skipping short entries.
func flatCoords(coords [][]float64) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		flat = append(flat, c[0], c[1])
	}
	return flat
}
