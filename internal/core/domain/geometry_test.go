package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

func pt(lat, lon float64) domain.GeoPoint { return domain.GeoPoint{Lat: lat, Lon: lon} }

func mustPolygon(t *testing.T, id string, coords ...[2]float64) domain.Polygon {
	t.Helper()
	vs := make([]domain.GeoPoint, len(coords))
	for i, c := range coords {
		vs[i] = pt(c[0], c[1])
	}
	p, err := domain.NewPolygon(id, vs)
	require.NoError(t, err)
	return p
}

func TestPointOnSegment_Midpoint(t *testing.T) {
	segments := [][2]domain.GeoPoint{
		{pt(0, 0), pt(10, 0)},
		{pt(0, 0), pt(0, 10)},
		{pt(-3, 7), pt(5, -2)},
		{pt(37.774, -122.42), pt(37.776, -122.418)},
		{pt(1e-4, 1e-4), pt(3e-4, 2e-4)},
	}
	for _, s := range segments {
		mid := pt((s[0].Lat+s[1].Lat)/2, (s[0].Lon+s[1].Lon)/2)
		require.True(t, domain.PointOnSegment(mid, s[0], s[1], domain.DefaultTolerance), "midpoint of %v", s)
		require.True(t, domain.PointOnSegment(s[0], s[0], s[1], domain.DefaultTolerance), "endpoint of %v", s)
	}
}

func TestPointOnSegment_PerpendicularOffset(t *testing.T) {
	tol := domain.DefaultTolerance
	for _, l := range []float64{1e-6, 1e-4, 1e-2, 1, 10} {
		a, b := pt(0, 0), pt(l, 0)
		margin := domain.TouchMargin(l, tol)

		off := pt(l/2, margin*1.01)
		require.False(t, domain.PointOnSegment(off, a, b, tol), "length %g, offset beyond margin", l)

		near := pt(l/2, margin*0.99)
		require.True(t, domain.PointOnSegment(near, a, b, tol), "length %g, offset within margin", l)
	}
}

func TestPointOnSegment_ShortSegmentOffsetBeyondTolerance(t *testing.T) {
	a, b := pt(0, 0), pt(1e-6, 0)
	require.False(t, domain.PointOnSegment(pt(5e-7, 2e-5), a, b, domain.DefaultTolerance))
}

func TestPointOnSegment_Extension(t *testing.T) {
	require.False(t, domain.PointOnSegment(pt(11, 0), pt(0, 0), pt(10, 0), domain.DefaultTolerance))
	require.False(t, domain.PointOnSegment(pt(-1, 0), pt(0, 0), pt(10, 0), domain.DefaultTolerance))
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 domain.GeoPoint
		want           bool
	}{
		{"cross at interior point", pt(0, 0), pt(2, 2), pt(0, 2), pt(2, 0), true},
		{"t-junction at endpoint", pt(0, 0), pt(2, 0), pt(1, 0), pt(1, 5), true},
		{"shared endpoint", pt(0, 0), pt(1, 1), pt(1, 1), pt(2, 0), true},
		{"disjoint", pt(0, 0), pt(1, 0), pt(5, 5), pt(6, 7), false},
		{"lines cross beyond segments", pt(0, 0), pt(1, 1), pt(3, 0), pt(2, 1), false},
		{"parallel", pt(0, 0), pt(10, 0), pt(0, 1), pt(10, 1), false},
		{"collinear overlapping", pt(0, 0), pt(10, 0), pt(5, 0), pt(15, 0), false},
		{"identical", pt(0, 0), pt(10, 0), pt(0, 0), pt(10, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, domain.SegmentsIntersect(tt.a1, tt.a2, tt.b1, tt.b2))
			require.Equal(t, tt.want, domain.SegmentsIntersect(tt.b1, tt.b2, tt.a1, tt.a2), "symmetric")
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	square := mustPolygon(t, "square", [2]float64{0, 0}, [2]float64{0, 10}, [2]float64{10, 10}, [2]float64{10, 0})
	triangle := mustPolygon(t, "triangle", [2]float64{0, 0}, [2]float64{10, 5}, [2]float64{0, 10})
	// L-shape: the notch (6..10, 6..10) is outside.
	ell := mustPolygon(t, "ell",
		[2]float64{0, 0}, [2]float64{0, 10}, [2]float64{6, 10},
		[2]float64{6, 6}, [2]float64{10, 6}, [2]float64{10, 0})

	tests := []struct {
		poly domain.Polygon
		p    domain.GeoPoint
		want bool
	}{
		{square, pt(5, 5), true},
		{square, pt(0.001, 9.999), true},
		{square, pt(-1, 5), false},
		{square, pt(5, 11), false},
		{square, pt(20, 20), false},
		{triangle, pt(2, 5), true},
		{triangle, pt(9, 1), false},
		{triangle, pt(9, 9), false},
		{ell, pt(3, 8), true},
		{ell, pt(8, 3), true},
		{ell, pt(8, 8), false},
		{ell, pt(11, 3), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, domain.PointInPolygon(tt.p, tt.poly), "%s %v", tt.poly.ID, tt.p)
	}
}

func TestPointInPolygon_Grid(t *testing.T) {
	// Strictly inside and strictly outside points of an axis-aligned square,
	// sampled on a grid that avoids the boundary.
	square := mustPolygon(t, "square", [2]float64{0, 0}, [2]float64{0, 10}, [2]float64{10, 10}, [2]float64{10, 0})
	for lat := -4.5; lat <= 14.5; lat++ {
		for lon := -4.5; lon <= 14.5; lon++ {
			inside := lat > 0 && lat < 10 && lon > 0 && lon < 10
			require.Equal(t, inside, domain.PointInPolygon(pt(lat, lon), square), "(%g, %g)", lat, lon)
		}
	}
}

func TestTouchMargin(t *testing.T) {
	require.InDelta(t, 0.5*math.Sqrt(1e-5*(2+1e-5)), domain.TouchMargin(1, 1e-5), 1e-15)
	require.Greater(t, domain.TouchMargin(1, 1e-5), domain.TouchMargin(0.1, 1e-5))
	require.InDelta(t, 1e-5/2, domain.TouchMargin(0, 1e-5), 1e-15)
}
