package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/ports"
)

// DefaultBounds is the rectangle used when nothing usable is stored.
var DefaultBounds = domain.MustBounds(37.774, -122.42, 37.776, -122.418)

// DefaultReference is where parcels are fetched when no reference point is
// configured.
var DefaultReference = domain.GeoPoint{Lat: 32.7766642, Lon: -96.7969879}

// LoadInitialBounds reads the persisted bounds once at startup. Absent,
// corrupt or unreachable storage yields fallback; none of these is fatal.
func LoadInitialBounds(ctx context.Context, store ports.BoundsStore, fallback domain.OverlayBounds, logger *slog.Logger) domain.OverlayBounds {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		return fallback
	}

	b, err := store.Load(ctx)
	switch {
	case err == nil:
		logger.Info("loaded stored overlay bounds", "bounds", b, "bbox", b.BBoxString())
		return b
	case errors.Is(err, domain.ErrBoundsNotFound):
		logger.Info("no stored overlay bounds, using default", "bbox", fallback.BBoxString())
	case errors.Is(err, domain.ErrStorageCorruption):
		logger.Warn("stored overlay bounds are corrupt, using default", "error", err, "bbox", fallback.BBoxString())
	default:
		logger.Warn("overlay bounds storage unavailable, using default", "error", err, "bbox", fallback.BBoxString())
	}
	return fallback
}
