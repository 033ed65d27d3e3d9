package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
// Component order is always (lat, lon), including when converted from
// (lon, lat) GeoJSON positions.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p GeoPoint) finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// Bound is an axis-aligned box in (lat, lon) space.
type Bound struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Grow returns the box expanded by d degrees on every side.
func (b Bound) Grow(d float64) Bound {
	return Bound{MinLat: b.MinLat - d, MinLon: b.MinLon - d, MaxLat: b.MaxLat + d, MaxLon: b.MaxLon + d}
}

// Polygon is a closed ring of at least three vertices. The edge from the
// last vertex back to the first is implicit. Polygons are never mutated
// after construction.
type Polygon struct {
	ID       string     `json:"id"`
	Vertices []GeoPoint `json:"vertices"`
}

// NewPolygon copies vertices into a new Polygon. An explicit closing vertex
// (last == first, as in GeoJSON rings) is dropped.
func NewPolygon(id string, vertices []GeoPoint) (Polygon, error) {
	n := len(vertices)
	if n > 1 && vertices[0] == vertices[n-1] {
		n--
	}
	if n < 3 {
		return Polygon{}, fmt.Errorf("polygon %q has %d vertices: %w", id, n, ErrTooFewVertices)
	}
	vs := make([]GeoPoint, n)
	copy(vs, vertices[:n])
	for i, v := range vs {
		if !v.finite() {
			return Polygon{}, fmt.Errorf("polygon %q vertex %d is not finite: %w", id, i, ErrInvalidBounds)
		}
	}
	return Polygon{ID: id, Vertices: vs}, nil
}

// Edge returns the i-th edge (vertex i to vertex i+1, wrapping).
func (p Polygon) Edge(i int) (GeoPoint, GeoPoint) {
	return p.Vertices[i], p.Vertices[(i+1)%len(p.Vertices)]
}

// Bound returns the bounding box of the polygon.
func (p Polygon) Bound() Bound {
	b := Bound{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
	for _, v := range p.Vertices {
		b.MinLat = math.Min(b.MinLat, v.Lat)
		b.MinLon = math.Min(b.MinLon, v.Lon)
		b.MaxLat = math.Max(b.MaxLat, v.Lat)
		b.MaxLon = math.Max(b.MaxLon, v.Lon)
	}
	return b
}

// LongestEdge returns the planar length of the polygon's longest edge.
func (p Polygon) LongestEdge() float64 {
	var longest float64
	for i := range p.Vertices {
		a, b := p.Edge(i)
		longest = math.Max(longest, planarDist(a, b))
	}
	return longest
}

// OverlayBounds is the geographic rectangle an overlay occupies.
// SouthWest is component-wise <= NorthEast.
type OverlayBounds struct {
	SouthWest GeoPoint
	NorthEast GeoPoint
}

// NewOverlayBounds validates and returns bounds for the given corners.
func NewOverlayBounds(sw, ne GeoPoint) (OverlayBounds, error) {
	if !sw.finite() || !ne.finite() {
		return OverlayBounds{}, fmt.Errorf("non-finite corner: %w", ErrInvalidBounds)
	}
	if sw.Lat > ne.Lat || sw.Lon > ne.Lon {
		return OverlayBounds{}, fmt.Errorf("southwest %v is not below-left of northeast %v: %w", sw, ne, ErrInvalidBounds)
	}
	return OverlayBounds{SouthWest: sw, NorthEast: ne}, nil
}

// MustBounds is NewOverlayBounds for literals known to be valid.
func MustBounds(swLat, swLon, neLat, neLon float64) OverlayBounds {
	b, err := NewOverlayBounds(GeoPoint{Lat: swLat, Lon: swLon}, GeoPoint{Lat: neLat, Lon: neLon})
	if err != nil {
		panic(err)
	}
	return b
}

func (b OverlayBounds) North() float64 { return b.NorthEast.Lat }
func (b OverlayBounds) South() float64 { return b.SouthWest.Lat }
func (b OverlayBounds) East() float64  { return b.NorthEast.Lon }
func (b OverlayBounds) West() float64  { return b.SouthWest.Lon }

// Height is the latitude span in degrees.
func (b OverlayBounds) Height() float64 { return b.North() - b.South() }

// Width is the longitude span in degrees.
func (b OverlayBounds) Width() float64 { return b.East() - b.West() }

// Center returns the midpoint of the rectangle.
func (b OverlayBounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.North() + b.South()) / 2, Lon: (b.East() + b.West()) / 2}
}

// Corners returns the rectangle corners in window order N-W, N-E, S-E, S-W.
// They stand in for the overlay geometrically regardless of its rotation.
func (b OverlayBounds) Corners() [4]GeoPoint {
	return [4]GeoPoint{
		{Lat: b.North(), Lon: b.West()},
		{Lat: b.North(), Lon: b.East()},
		{Lat: b.South(), Lon: b.East()},
		{Lat: b.South(), Lon: b.West()},
	}
}

// Bound returns the rectangle as a Bound.
func (b OverlayBounds) Bound() Bound {
	return Bound{MinLat: b.South(), MinLon: b.West(), MaxLat: b.North(), MaxLon: b.East()}
}

// BBoxString formats the bounds as "west,south,east,north".
func (b OverlayBounds) BBoxString() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West(), b.South(), b.East(), b.North())
}

// MarshalJSON encodes bounds as [[swLat, swLon], [neLat, neLon]].
func (b OverlayBounds) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{
		{b.SouthWest.Lat, b.SouthWest.Lon},
		{b.NorthEast.Lat, b.NorthEast.Lon},
	})
}

// UnmarshalJSON decodes the [[swLat, swLon], [neLat, neLon]] form and
// validates the result.
func (b *OverlayBounds) UnmarshalJSON(data []byte) error {
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("decode bounds: %v: %w", err, ErrInvalidBounds)
	}
	if len(pairs) != 2 || len(pairs[0]) != 2 || len(pairs[1]) != 2 {
		return fmt.Errorf("bounds must be two [lat, lon] pairs: %w", ErrInvalidBounds)
	}
	nb, err := NewOverlayBounds(
		GeoPoint{Lat: pairs[0][0], Lon: pairs[0][1]},
		GeoPoint{Lat: pairs[1][0], Lon: pairs[1][1]},
	)
	if err != nil {
		return err
	}
	*b = nb
	return nil
}

// PixelPoint is a position in map-container pixels.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PixelRect is an element's bounding rectangle in map-container pixels.
type PixelRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the centre of the rectangle.
func (r PixelRect) Center() PixelPoint {
	return PixelPoint{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Translate returns the rectangle moved by (dx, dy).
func (r PixelRect) Translate(dx, dy float64) PixelRect {
	r.Left += dx
	r.Top += dy
	return r
}
