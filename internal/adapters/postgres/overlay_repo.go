package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// OverlayRepo implements ports.BoundsStore with one overlay_bounds row per
// overlay.
type OverlayRepo struct {
	db        *DB
	overlayID string
}

// NewOverlayRepo creates a store for overlayID.
func NewOverlayRepo(db *DB, overlayID string) *OverlayRepo {
	return &OverlayRepo{db: db, overlayID: overlayID}
}

// Load returns the stored bounds of the overlay.
func (r *OverlayRepo) Load(ctx context.Context) (domain.OverlayBounds, error) {
	var sw, ne domain.GeoPoint
	err := r.db.Pool.QueryRow(ctx, `
		SELECT sw_lat, sw_lon, ne_lat, ne_lon
		FROM overlay_bounds WHERE overlay_id = $1
	`, r.overlayID).Scan(&sw.Lat, &sw.Lon, &ne.Lat, &ne.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OverlayBounds{}, domain.ErrBoundsNotFound
	}
	if err != nil {
		return domain.OverlayBounds{}, err
	}

	b, err := domain.NewOverlayBounds(sw, ne)
	if err != nil {
		return domain.OverlayBounds{}, fmt.Errorf("overlay %s: %v: %w", r.overlayID, err, domain.ErrStorageCorruption)
	}
	return b, nil
}

// Save upserts the overlay's bounds.
func (r *OverlayRepo) Save(ctx context.Context, b domain.OverlayBounds) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO overlay_bounds (overlay_id, sw_lat, sw_lon, ne_lat, ne_lon, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (overlay_id) DO UPDATE
		SET sw_lat = EXCLUDED.sw_lat, sw_lon = EXCLUDED.sw_lon,
		    ne_lat = EXCLUDED.ne_lat, ne_lon = EXCLUDED.ne_lon,
		    updated_at = EXCLUDED.updated_at
	`, r.overlayID, b.SouthWest.Lat, b.SouthWest.Lon, b.NorthEast.Lat, b.NorthEast.Lon)
	return err
}
