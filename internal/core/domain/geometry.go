package domain

import "math"

// DefaultTolerance is the touch tolerance in degrees used by PointOnSegment.
const DefaultTolerance = 1e-5

// The predicates below treat (lat, lon) as planar (x, y). That holds at
// parcel scale only; there is no geodesic correction.

func planarDist(a, b GeoPoint) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon)
}

// PointOnSegment reports whether p lies on the segment [a, b] within tol,
// using the triangle-inequality equality case. Points on the line's
// extension beyond a or b are not on the segment.
func PointOnSegment(p, a, b GeoPoint, tol float64) bool {
	d1 := planarDist(a, b)
	d2 := planarDist(p, a)
	d3 := planarDist(p, b)
	return math.Abs(d1-(d2+d3)) < tol
}

// SegmentsIntersect reports whether [a1, a2] and [b1, b2] share a point,
// endpoints included. Parallel segments, collinear overlapping ones
// included, never intersect.
func SegmentsIntersect(a1, a2, b1, b2 GeoPoint) bool {
	det := (a2.Lat-a1.Lat)*(b2.Lon-b1.Lon) - (b2.Lat-b1.Lat)*(a2.Lon-a1.Lon)
	if det == 0 {
		return false
	}
	lambda := ((b2.Lon-b1.Lon)*(b2.Lat-a1.Lat) + (b1.Lat-b2.Lat)*(b2.Lon-a1.Lon)) / det
	gamma := ((a1.Lon-a2.Lon)*(b2.Lat-a1.Lat) + (a2.Lat-a1.Lat)*(b2.Lon-a1.Lon)) / det
	return 0 <= lambda && lambda <= 1 && 0 <= gamma && gamma <= 1
}

// PointInPolygon applies the even-odd rule with a ray cast from p towards
// increasing longitude. An edge counts when exactly one endpoint lies north
// of p and the edge crosses p's latitude east of p.
// Points on the boundary have no defined answer; use PointOnSegment for
// those.
func PointInPolygon(p GeoPoint, poly Polygon) bool {
	inside := false
	vs := poly.Vertices
	for i, j := 0, len(vs)-1; i < len(vs); j, i = i, i+1 {
		vi, vj := vs[i], vs[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lon < (vj.Lon-vi.Lon)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
	}
	return inside
}

// TouchMargin is the furthest distance from a segment of length l at which
// PointOnSegment can still hold with tolerance tol: the semi-minor axis of
// the ellipse with the segment's endpoints as foci and major axis l+tol.
func TouchMargin(l, tol float64) float64 {
	return 0.5 * math.Sqrt(tol*(2*l+tol))
}
