// Package resolver implements the generic containment-plus-proximity
// resolution used by every spatial layer. One algorithm, parameterized by a
// layers.LayerConfig row, replaces per-source lookup functions.
package resolver

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/featureservice"
	"github.com/sells-group/geo-cli/internal/geomath"
	"github.com/sells-group/geo-cli/internal/layers"
)

// SpatialFeature is one resolved feature, annotated with computed distance
// and containment. It is not mutated after sorting.
type SpatialFeature struct {
	ObjectID      string                   `json:"object_id"`
	Attributes    map[string]any           `json:"attributes"`
	Geometry      *featureservice.Geometry `json:"geometry,omitempty"`
	DistanceMiles float64                  `json:"distance_miles"`
	IsContaining  bool                     `json:"is_containing"`
	LayerID       string                   `json:"layer_id"`
	LayerLabel    string                   `json:"layer_label"`
}

// Warning records a non-fatal degradation during resolution, so callers and
// tests can assert on partial failure instead of parsing logs.
type Warning struct {
	Stage   string `json:"stage"` // "containment" or "proximity"
	Message string `json:"message"`
}

// LayerResult is the outcome of resolving one layer: containing features
// first (stable order), then nearby features ascending by distance.
type LayerResult struct {
	LayerID              string           `json:"layer_id"`
	Label                string           `json:"label"`
	EffectiveRadiusMiles float64          `json:"effective_radius_miles"`
	Features             []SpatialFeature `json:"features"`
	Warnings             []Warning        `json:"warnings,omitempty"`
}

// Resolver resolves layers against remote feature services.
type Resolver struct {
	client *featureservice.Client
}

// New creates a Resolver backed by the given feature service client.
func New(client *featureservice.Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns every feature of the layer that contains the query point
// plus every feature within the capped radius, deduplicated by object ID and
// sorted containing-then-nearest.
//
// Each of the two remote passes degrades independently: a failed pass is
// recorded as a Warning and the other pass still contributes. Only when both
// passes fail completely does Resolve return an error.
func (r *Resolver) Resolve(ctx context.Context, cfg layers.LayerConfig, lat, lon, requestedMiles float64) (*LayerResult, error) {
	log := zap.L().With(
		zap.String("component", "resolver"),
		zap.String("layer", cfg.ID),
	)

	effective := cfg.EffectiveRadius(requestedMiles)
	origin := geomath.Point{Lat: lat, Lon: lon}

	result := &LayerResult{
		LayerID:              cfg.ID,
		Label:                cfg.Label,
		EffectiveRadiusMiles: effective,
	}

	seen := make(map[string]bool)
	var containmentErr, proximityErr error

	// Containment pass: features intersecting the exact point.
	containFeatures, err := r.client.Query(ctx, cfg.QueryURL(), featureservice.Query{
		Point:          &origin,
		ReturnGeometry: true,
	})
	if err != nil {
		containmentErr = err
		result.Warnings = append(result.Warnings, Warning{Stage: "containment", Message: err.Error()})
		log.Warn("containment query degraded", zap.Error(err), zap.Int("partial", len(containFeatures)))
	}
	for _, f := range containFeatures {
		id := f.ObjectID()
		if id != "" && seen[id] {
			continue
		}

		// Server-side point intersection is not true ring containment for
		// polygons (boundary touches, bounding-box matches), so re-verify
		// locally when the geometry is available.
		if cfg.Geometry == layers.GeometryPolygon {
			rings := f.Geometry.RingPoints()
			if len(rings) == 0 || !geomath.PointInPolygon(origin, rings) {
				continue
			}
		}

		if id != "" {
			seen[id] = true
		}
		result.Features = append(result.Features, SpatialFeature{
			ObjectID:      id,
			Attributes:    f.Attributes,
			Geometry:      f.Geometry,
			DistanceMiles: 0,
			IsContaining:  true,
			LayerID:       cfg.ID,
			LayerLabel:    cfg.Label,
		})
	}

	// Proximity pass: features within the effective radius.
	if effective > 0 {
		nearFeatures, err := r.client.Query(ctx, cfg.QueryURL(), r.proximityQuery(cfg, origin, effective))
		if err != nil {
			proximityErr = err
			result.Warnings = append(result.Warnings, Warning{Stage: "proximity", Message: err.Error()})
			log.Warn("proximity query degraded", zap.Error(err), zap.Int("partial", len(nearFeatures)))
		}
		for _, f := range nearFeatures {
			id := f.ObjectID()
			if id != "" && seen[id] {
				continue
			}

			dist, contains := r.featureDistance(cfg, origin, f, effective)
			// Server-side spatial filters are approximate; the computed
			// distance is the authoritative cut.
			if dist > effective {
				continue
			}

			if id != "" {
				seen[id] = true
			}
			result.Features = append(result.Features, SpatialFeature{
				ObjectID:      id,
				Attributes:    f.Attributes,
				Geometry:      f.Geometry,
				DistanceMiles: dist,
				IsContaining:  contains,
				LayerID:       cfg.ID,
				LayerLabel:    cfg.Label,
			})
		}
	}

	if containmentErr != nil && proximityErr != nil && len(result.Features) == 0 {
		return nil, eris.Wrapf(containmentErr, "resolver: layer %s unavailable", cfg.ID)
	}

	sortFeatures(result.Features)
	return result, nil
}

// proximityQuery builds the radius query for a layer. Point and polyline
// layers use a buffered point. Polygon layers use a lat/lon envelope sized
// from radius/69 degrees latitude with latitude-corrected longitude, since
// many polygon services lack buffered-point search.
func (r *Resolver) proximityQuery(cfg layers.LayerConfig, origin geomath.Point, radiusMiles float64) featureservice.Query {
	if cfg.Geometry != layers.GeometryPolygon {
		return featureservice.Query{
			Point:          &origin,
			DistanceMiles:  radiusMiles,
			ReturnGeometry: true,
		}
	}

	dLat := radiusMiles / 69.0
	cosLat := math.Cos(origin.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // envelope blows up at the poles; cap the correction
	}
	dLon := radiusMiles / (69.0 * cosLat)

	return featureservice.Query{
		Envelope: &featureservice.Envelope{
			XMin: origin.Lon - dLon,
			YMin: origin.Lat - dLat,
			XMax: origin.Lon + dLon,
			YMax: origin.Lat + dLat,
		},
		ReturnGeometry: true,
	}
}

// featureDistance computes the true distance from the origin to a feature
// according to the layer's geometry kind. Features whose geometry contains
// the origin are forced to distance 0. Missing or unusable geometry defaults
// to the effective radius, keeping the feature at the edge of relevance
// rather than excluding it.
func (r *Resolver) featureDistance(cfg layers.LayerConfig, origin geomath.Point, f featureservice.Feature, effective float64) (float64, bool) {
	switch cfg.Geometry {
	case layers.GeometryPoint:
		p, ok := f.Geometry.Point()
		if !ok {
			return effective, false
		}
		return geomath.HaversineMiles(origin, p), false

	case layers.GeometryPolyline:
		paths := f.Geometry.PathPoints()
		d := geomath.DistanceToPolyline(origin, paths)
		if math.IsInf(d, 1) {
			return effective, false
		}
		return d, false

	case layers.GeometryPolygon:
		rings := f.Geometry.RingPoints()
		if len(rings) == 0 {
			return effective, false
		}
		if geomath.PointInPolygon(origin, rings) {
			return 0, true
		}
		d := geomath.DistanceToPolygonBoundary(origin, rings)
		if math.IsInf(d, 1) {
			return effective, false
		}
		return d, false

	default:
		return effective, false
	}
}

// sortFeatures orders containing features first (stable among themselves),
// then remaining features ascending by distance.
func sortFeatures(features []SpatialFeature) {
	sort.SliceStable(features, func(i, j int) bool {
		if features[i].IsContaining != features[j].IsContaining {
			return features[i].IsContaining
		}
		if features[i].IsContaining {
			return false // stable order among containing features
		}
		return features[i].DistanceMiles < features[j].DistanceMiles
	})
}
