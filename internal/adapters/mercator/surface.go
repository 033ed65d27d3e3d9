// Package mercator projects between map-container pixels and coordinates
// the way a Leaflet map in EPSG:3857 does.
package mercator

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

const (
	// TileSize is the pixel size of one tile at zoom 0.
	TileSize = 256
	// MaxLatitude is the latitude limit of the projection.
	MaxLatitude = 85.0511287798
	// MaxZoom bounds the zoom levels accepted by Validate.
	MaxZoom = 24
)

// ErrInvalidViewport is returned for viewports that cannot be projected.
var ErrInvalidViewport = errors.New("invalid viewport")

// Viewport is what the browser map shows: its centre, zoom and container
// size in pixels.
type Viewport struct {
	Center domain.GeoPoint `json:"center"`
	Zoom   float64         `json:"zoom"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
}

// Validate checks the viewport can be projected.
func (v Viewport) Validate() error {
	switch {
	case !(v.Width > 0) || !(v.Height > 0) || math.IsInf(v.Width, 0) || math.IsInf(v.Height, 0):
		return fmt.Errorf("container %gx%g: %w", v.Width, v.Height, ErrInvalidViewport)
	case !(v.Zoom >= 0 && v.Zoom <= MaxZoom):
		return fmt.Errorf("zoom %g outside [0, %d]: %w", v.Zoom, MaxZoom, ErrInvalidViewport)
	case !(math.Abs(v.Center.Lat) <= MaxLatitude) || !(math.Abs(v.Center.Lon) <= 180):
		return fmt.Errorf("center %v: %w", v.Center, ErrInvalidViewport)
	}
	return nil
}

// Surface implements ports.MapSurface. The viewport is replaced as a
// whole, so projections never see a half-updated one.
type Surface struct {
	vp atomic.Pointer[Viewport]
}

// NewSurface creates a surface showing vp.
func NewSurface(vp Viewport) (*Surface, error) {
	s := &Surface{}
	if err := s.SetViewport(vp); err != nil {
		return nil, err
	}
	return s, nil
}

// SetViewport replaces the viewport.
func (s *Surface) SetViewport(vp Viewport) error {
	if err := vp.Validate(); err != nil {
		return err
	}
	s.vp.Store(&vp)
	return nil
}

// Viewport returns the current viewport.
func (s *Surface) Viewport() Viewport {
	return *s.vp.Load()
}

// ContainerPointToGeo projects a container pixel to a coordinate.
func (s *Surface) ContainerPointToGeo(p domain.PixelPoint) domain.GeoPoint {
	vp := s.Viewport()
	cx, cy := project(vp.Center, vp.Zoom)
	return unproject(p.X-vp.Width/2+cx, p.Y-vp.Height/2+cy, vp.Zoom)
}

// GeoToContainerPoint projects a coordinate to a container pixel.
func (s *Surface) GeoToContainerPoint(g domain.GeoPoint) domain.PixelPoint {
	vp := s.Viewport()
	cx, cy := project(vp.Center, vp.Zoom)
	x, y := project(g, vp.Zoom)
	return domain.PixelPoint{X: x - cx + vp.Width/2, Y: y - cy + vp.Height/2}
}

// OverlayRect returns where an image overlay with bounds b is drawn.
func (s *Surface) OverlayRect(b domain.OverlayBounds) domain.PixelRect {
	nw := s.GeoToContainerPoint(domain.GeoPoint{Lat: b.North(), Lon: b.West()})
	se := s.GeoToContainerPoint(domain.GeoPoint{Lat: b.South(), Lon: b.East()})
	return domain.PixelRect{Left: nw.X, Top: nw.Y, Width: se.X - nw.X, Height: se.Y - nw.Y}
}

func scale(zoom float64) float64 {
	return TileSize * math.Exp2(zoom)
}

func project(g domain.GeoPoint, zoom float64) (x, y float64) {
	lat := math.Max(math.Min(g.Lat, MaxLatitude), -MaxLatitude)
	sin := math.Sin(lat * math.Pi / 180)
	s := scale(zoom)
	x = s * (g.Lon + 180) / 360
	y = s * (0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi)
	return x, y
}

func unproject(x, y, zoom float64) domain.GeoPoint {
	s := scale(zoom)
	lon := x/s*360 - 180
	lat := (2*math.Atan(math.Exp(math.Pi*(1-2*y/s))) - math.Pi/2) * 180 / math.Pi
	return domain.GeoPoint{Lat: lat, Lon: lon}
}
