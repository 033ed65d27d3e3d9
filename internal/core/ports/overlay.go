package ports

import (
	"context"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// PolygonProvider fetches the parcel polygons around a geographic point.
// An empty result is valid and is not an error.
type PolygonProvider interface {
	FetchPolygons(ctx context.Context, lat, lon float64) ([]domain.Polygon, error)
}

// BoundsStore persists the last accepted overlay bounds.
// Load returns domain.ErrBoundsNotFound when nothing is stored and
// domain.ErrStorageCorruption when the stored value cannot be parsed.
type BoundsStore interface {
	Load(ctx context.Context) (domain.OverlayBounds, error)
	Save(ctx context.Context, b domain.OverlayBounds) error
}

// MapSurface is the projection side of the map widget.
type MapSurface interface {
	// ContainerPointToGeo projects a map-container pixel to a coordinate.
	ContainerPointToGeo(p domain.PixelPoint) domain.GeoPoint
	// OverlayRect returns the pixel rectangle an overlay with bounds b
	// currently occupies.
	OverlayRect(b domain.OverlayBounds) domain.PixelRect
}

// OverlayRenderer draws (or redraws) the overlay image on the map.
type OverlayRenderer interface {
	RenderOverlay(ctx context.Context, view domain.OverlayView) error
}

// Notifier presents a notice to the user.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notice) error
}
