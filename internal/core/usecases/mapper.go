package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// RemapBounds moves old so that it is centred on center while keeping its
// geographic size. rect is the overlay's on-screen rectangle while it had
// bounds old; its size fixes the per-pixel scale.
func RemapBounds(old domain.OverlayBounds, rect domain.PixelRect, center domain.GeoPoint) (domain.OverlayBounds, error) {
	if !(rect.Width > 0) || !(rect.Height > 0) || math.IsInf(rect.Width, 0) || math.IsInf(rect.Height, 0) {
		return domain.OverlayBounds{}, fmt.Errorf("pixel rect %gx%g: %w", rect.Width, rect.Height, domain.ErrDegenerateGeometry)
	}

	latPerPixel := old.Height() / rect.Height
	lonPerPixel := old.Width() / rect.Width

	south := center.Lat - latPerPixel*rect.Height/2
	north := south + latPerPixel*rect.Height
	west := center.Lon - lonPerPixel*rect.Width/2
	east := west + lonPerPixel*rect.Width

	b, err := domain.NewOverlayBounds(domain.GeoPoint{Lat: south, Lon: west}, domain.GeoPoint{Lat: north, Lon: east})
	if err != nil {
		return domain.OverlayBounds{}, fmt.Errorf("remap to %v: %w", center, domain.ErrDegenerateGeometry)
	}
	return b, nil
}
