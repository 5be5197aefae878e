// Package geo provides the planar geometry primitives shared by the mission
// planner and the geofence engine. All functions are pure.
//
// Distances use a flat-earth (equirectangular) approximation: longitudes are
// scaled by the cosine of the mean latitude and both axes by meters per
// degree. The error is negligible at survey scale (a few kilometers) and far
// below the waypoint spacing tolerances involved; the package is not
// geodesically exact and must not be used for long-range navigation.
package geo

import (
	"math"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// MetersPerDegree is the length of one degree of latitude in meters.
const MetersPerDegree = 111320.0

const onEdgeEpsilon = 1e-12

// Distance returns the flat-earth distance between two positions in meters,
// ignoring altitude.
func Distance(a, b model.Position) float64 {
	midLat := (a.Lat + b.Lat) / 2 * math.Pi / 180
	dy := (b.Lat - a.Lat) * MetersPerDegree
	dx := (b.Lon - a.Lon) * MetersPerDegree * math.Cos(midLat)
	return math.Hypot(dx, dy)
}

// Distance3D includes the altitude difference.
func Distance3D(a, b model.Position) float64 {
	return math.Hypot(Distance(a, b), b.Alt-a.Alt)
}

// BoundingBox is an axis-aligned lat/lon rectangle.
type BoundingBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Contains reports whether p lies inside the box, borders included.
func (b BoundingBox) Contains(p model.Position) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Bounds computes the bounding box of a polygon. An empty polygon yields the
// zero box.
func Bounds(polygon []model.Position) BoundingBox {
	if len(polygon) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{
		MinLat: polygon[0].Lat, MaxLat: polygon[0].Lat,
		MinLon: polygon[0].Lon, MaxLon: polygon[0].Lon,
	}
	for _, p := range polygon[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// PointInPolygon reports whether p lies inside the polygon (implicitly
// closed) using the ray-casting rule. A point exactly on an edge counts as
// inside; geofence checks depend on that tie-break being inclusive.
func PointInPolygon(p model.Position, polygon []model.Position) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]

		if onSegment(p, a, b) {
			return true
		}

		// Cast a ray toward +lon and count edge crossings.
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			xCross := a.Lon + (p.Lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
			if p.Lon < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether p lies on the segment a-b within epsilon.
func onSegment(p, a, b model.Position) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > onEdgeEpsilon {
		return false
	}
	return p.Lat >= math.Min(a.Lat, b.Lat)-onEdgeEpsilon &&
		p.Lat <= math.Max(a.Lat, b.Lat)+onEdgeEpsilon &&
		p.Lon >= math.Min(a.Lon, b.Lon)-onEdgeEpsilon &&
		p.Lon <= math.Max(a.Lon, b.Lon)+onEdgeEpsilon
}

// SegmentIntersectsPolygon reports whether the segment p1-p2 crosses or
// touches any edge of the polygon, or lies entirely inside it. Used by path
// checks to catch a zone straddled between two waypoints.
func SegmentIntersectsPolygon(p1, p2 model.Position, polygon []model.Position) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		if segmentsIntersect(p1, p2, a, b) {
			return true
		}
	}

	// No edge crossing: the segment is entirely inside or entirely outside.
	return PointInPolygon(p1, polygon)
}

// SegmentCrossesPolygon reports whether the segment p1-p2 strictly crosses
// any edge of the polygon. Touching an edge or vertex, or running collinear
// along an edge, does not count. Used by keep-in checks where both endpoints
// sit inside and only a genuine boundary crossing means the path left the
// zone.
func SegmentCrossesPolygon(p1, p2 model.Position, polygon []model.Position) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		d1 := orientation(a, b, p1)
		d2 := orientation(a, b, p2)
		d3 := orientation(p1, p2, a)
		d4 := orientation(p1, p2, b)
		if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
			((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
			return true
		}
	}
	return false
}

// segmentsIntersect reports whether segments p1-p2 and p3-p4 intersect,
// including touching endpoints and collinear overlap.
func segmentsIntersect(p1, p2, p3, p4 model.Position) bool {
	d1 := orientation(p3, p4, p1)
	d2 := orientation(p3, p4, p2)
	d3 := orientation(p1, p2, p3)
	d4 := orientation(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(p1, p3, p4):
		return true
	case d2 == 0 && onSegment(p2, p3, p4):
		return true
	case d3 == 0 && onSegment(p3, p1, p2):
		return true
	case d4 == 0 && onSegment(p4, p1, p2):
		return true
	}
	return false
}

// orientation returns the sign of the cross product (b-a) x (c-a):
// positive for counter-clockwise, negative for clockwise, zero collinear.
func orientation(a, b, c model.Position) float64 {
	v := (b.Lon-a.Lon)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lon-a.Lon)
	if math.Abs(v) <= onEdgeEpsilon {
		return 0
	}
	return v
}

// PolygonArea returns the approximate area of the polygon in square meters
// via the shoelace formula on the flat-earth projection.
func PolygonArea(polygon []model.Position) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}

	midLat := 0.0
	for _, p := range polygon {
		midLat += p.Lat
	}
	midLat = midLat / float64(n) * math.Pi / 180
	lonScale := MetersPerDegree * math.Cos(midLat)

	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += polygon[i].Lon * lonScale * polygon[j].Lat * MetersPerDegree
		area -= polygon[j].Lon * lonScale * polygon[i].Lat * MetersPerDegree
	}
	return math.Abs(area) / 2
}

// PathLength returns the total 3D length of a waypoint sequence in meters.
func PathLength(waypoints []model.Waypoint) float64 {
	total := 0.0
	for i := 1; i < len(waypoints); i++ {
		total += Distance3D(waypoints[i-1].Position, waypoints[i].Position)
	}
	return total
}
