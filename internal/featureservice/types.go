package featureservice

import (
	"fmt"
	"strconv"

	"github.com/sells-group/geo-cli/internal/geomath"
)

// Geometry is the wire geometry block of a feature. Point features carry
// X/Y; polylines carry Paths; polygons carry Rings (ring 0 outer, the rest
// holes). Coordinates are [lon, lat] pairs in EPSG:4326.
type Geometry struct {
	X     *float64      `json:"x,omitempty"`
	Y     *float64      `json:"y,omitempty"`
	Paths [][][]float64 `json:"paths,omitempty"`
	Rings [][][]float64 `json:"rings,omitempty"`
}

// IsEmpty reports whether the geometry carries no usable coordinates.
func (g *Geometry) IsEmpty() bool {
	if g == nil {
		return true
	}
	return g.X == nil && g.Y == nil && len(g.Paths) == 0 && len(g.Rings) == 0
}

// Point returns the point coordinate, if present.
func (g *Geometry) Point() (geomath.Point, bool) {
	if g == nil || g.X == nil || g.Y == nil {
		return geomath.Point{}, false
	}
	return geomath.Point{Lat: *g.Y, Lon: *g.X}, true
}

// PathPoints converts wire paths into geomath points.
func (g *Geometry) PathPoints() [][]geomath.Point {
	if g == nil {
		return nil
	}
	return toPoints(g.Paths)
}

// RingPoints converts wire rings into geomath points.
func (g *Geometry) RingPoints() [][]geomath.Point {
	if g == nil {
		return nil
	}
	return toPoints(g.Rings)
}

func toPoints(coords [][][]float64) [][]geomath.Point {
	if len(coords) == 0 {
		return nil
	}
	out := make([][]geomath.Point, 0, len(coords))
	for _, part := range coords {
		pts := make([]geomath.Point, 0, len(part))
		for _, c := range part {
			if len(c) < 2 {
				continue
			}
			pts = append(pts, geomath.Point{Lon: c[0], Lat: c[1]})
		}
		out = append(out, pts)
	}
	return out
}

// Feature is one feature returned by a query: an opaque attribute bag plus
// an optional geometry block.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *Geometry      `json:"geometry,omitempty"`
}

// objectIDKeys are the attribute names services use for the server-assigned
// feature key, in lookup order.
var objectIDKeys = [...]string{"OBJECTID", "ObjectId", "objectid", "FID", "OID"}

// ObjectID returns the server-assigned object identifier as a string, used
// for deduplication across paginated and overlapping queries. Returns ""
// when no identifier attribute is present.
func (f Feature) ObjectID() string {
	for _, key := range objectIDKeys {
		v, ok := f.Attributes[key]
		if !ok {
			continue
		}
		switch id := v.(type) {
		case string:
			return id
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		case int:
			return strconv.Itoa(id)
		case int64:
			return strconv.FormatInt(id, 10)
		default:
			return fmt.Sprintf("%v", id)
		}
	}
	return ""
}

// queryResponse is the wire shape of a feature query response.
type queryResponse struct {
	Features              []Feature    `json:"features"`
	ExceededTransferLimit bool         `json:"exceededTransferLimit"`
	Error                 *remoteError `json:"error,omitempty"`
}

type remoteError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Envelope is a lat/lon bounding box used for polygon-layer proximity
// queries against services that lack buffered-point search.
type Envelope struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}
