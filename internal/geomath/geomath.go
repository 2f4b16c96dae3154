// Package geomath provides pure great-circle and planar geometry helpers for
// spatial feature matching. All functions take and return plain numeric
// structures and perform no I/O.
package geomath

import "math"

// earthRadiusMiles is the mean Earth radius in statute miles.
const earthRadiusMiles = 3958.8

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineMiles returns the great-circle distance between two points in
// statute miles. Symmetric; zero only when the points coincide.
func HaversineMiles(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

// DistanceToSegment returns the distance in miles from p to the segment
// [a, b]. The closest point is found by projecting p onto the segment in
// degree space with the projection parameter clamped to [0,1], then measured
// with the great-circle formula. A zero-length segment degenerates to the
// point-to-endpoint distance.
func DistanceToSegment(p, a, b Point) float64 {
	dLat := b.Lat - a.Lat
	dLon := b.Lon - a.Lon

	lenSq := dLat*dLat + dLon*dLon
	if lenSq == 0 {
		return HaversineMiles(p, a)
	}

	t := ((p.Lat-a.Lat)*dLat + (p.Lon-a.Lon)*dLon) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	nearest := Point{
		Lat: a.Lat + t*dLat,
		Lon: a.Lon + t*dLon,
	}
	return HaversineMiles(p, nearest)
}

// DistanceToPolyline returns the minimum distance in miles from p to any
// segment of any path. Empty geometry yields +Inf.
func DistanceToPolyline(p Point, paths [][]Point) float64 {
	min := math.Inf(1)
	for _, path := range paths {
		for i := 0; i+1 < len(path); i++ {
			if d := DistanceToSegment(p, path[i], path[i+1]); d < min {
				min = d
			}
		}
	}
	return min
}

// DistanceToPolygonBoundary returns the minimum distance in miles from p to
// the boundary of a polygon, considering every ring including holes. Empty
// geometry yields +Inf.
func DistanceToPolygonBoundary(p Point, rings [][]Point) float64 {
	return DistanceToPolyline(p, rings)
}

// PointInPolygon reports whether p lies inside the polygon described by
// rings. Ring 0 is the outer boundary; subsequent rings are holes. A point
// inside the outer ring but also inside any hole is not contained. Rings
// with fewer than 3 vertices never contain anything.
func PointInPolygon(p Point, rings [][]Point) bool {
	if len(rings) == 0 || !pointInRing(p, rings[0]) {
		return false
	}
	for _, hole := range rings[1:] {
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}

// pointInRing is a standard ray-casting test against a single ring.
func pointInRing(p Point, ring []Point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		if (ring[i].Lon > p.Lon) != (ring[j].Lon > p.Lon) &&
			p.Lat < (ring[j].Lat-ring[i].Lat)*(p.Lon-ring[i].Lon)/
				(ring[j].Lon-ring[i].Lon)+ring[i].Lat {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Centroid returns the arithmetic mean of the outer-ring vertices. It is a
// cheap proxy for "roughly where is this feature", not a true area centroid.
// The second return is false when there is no outer ring.
func Centroid(rings [][]Point) (Point, bool) {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return Point{}, false
	}
	var sumLat, sumLon float64
	for _, v := range rings[0] {
		sumLat += v.Lat
		sumLon += v.Lon
	}
	n := float64(len(rings[0]))
	return Point{Lat: sumLat / n, Lon: sumLon / n}, true
}
