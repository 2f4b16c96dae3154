// Package layers defines the configuration registry for spatial enrichment
// layers. Each layer is a row of configuration (service endpoint, layer
// index, geometry kind, radius cap) consumed by the generic resolver; adding
// a data source means adding a row, not writing code.
package layers

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// GeometryKind identifies how a layer's features are shaped on the wire.
type GeometryKind string

const (
	// GeometryPoint layers serve point features (sites, facilities).
	GeometryPoint GeometryKind = "point"
	// GeometryPolyline layers serve polyline features (rail, pipelines).
	GeometryPolyline GeometryKind = "polyline"
	// GeometryPolygon layers serve polygon features (zones, districts).
	GeometryPolygon GeometryKind = "polygon"
)

// ParseGeometryKind converts a string into a GeometryKind.
func ParseGeometryKind(s string) (GeometryKind, error) {
	switch s {
	case "point":
		return GeometryPoint, nil
	case "polyline", "line":
		return GeometryPolyline, nil
	case "polygon":
		return GeometryPolygon, nil
	default:
		return "", eris.Errorf("layers: unknown geometry kind %q (valid: point, polyline, polygon)", s)
	}
}

// LayerConfig describes one remote spatial layer.
type LayerConfig struct {
	// ID is the unique enrichment identifier (e.g., "fema_flood_zones").
	ID string `yaml:"id"`
	// Label is the human-readable layer name.
	Label string `yaml:"label"`
	// ServiceURL is the feature service base address, without the layer index.
	ServiceURL string `yaml:"service_url"`
	// LayerIndex selects the layer within the service.
	LayerIndex int `yaml:"layer_index"`
	// Geometry is the layer's feature geometry kind.
	Geometry GeometryKind `yaml:"geometry"`
	// MaxRadiusMiles caps the search radius regardless of what callers request.
	MaxRadiusMiles float64 `yaml:"max_radius_miles"`
}

// EffectiveRadius clamps a requested radius to the valid range for this
// layer: never negative, never above the configured cap.
func (c LayerConfig) EffectiveRadius(requested float64) float64 {
	if requested < 0 {
		requested = 0
	}
	if requested > c.MaxRadiusMiles {
		return c.MaxRadiusMiles
	}
	return requested
}

// QueryURL returns the feature query endpoint for this layer.
func (c LayerConfig) QueryURL() string {
	return fmt.Sprintf("%s/%d/query", c.ServiceURL, c.LayerIndex)
}

// Validate checks that the row is usable.
func (c LayerConfig) Validate() error {
	if c.ID == "" {
		return eris.New("layers: layer id is required")
	}
	if c.ServiceURL == "" {
		return eris.Errorf("layers: layer %s has no service URL", c.ID)
	}
	switch c.Geometry {
	case GeometryPoint, GeometryPolyline, GeometryPolygon:
	default:
		return eris.Errorf("layers: layer %s has invalid geometry kind %q", c.ID, c.Geometry)
	}
	if c.MaxRadiusMiles <= 0 {
		return eris.Errorf("layers: layer %s has non-positive max radius", c.ID)
	}
	return nil
}
