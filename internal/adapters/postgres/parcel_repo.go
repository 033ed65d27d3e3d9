package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/pkg/geospatial"
)

// ParcelRepo implements ports.PolygonProvider over the PostGIS parcels table.
type ParcelRepo struct {
	db           *DB
	radiusMeters float64
}

// NewParcelRepo creates a ParcelRepo returning parcels within radiusMeters
// of the fetch point.
func NewParcelRepo(db *DB, radiusMeters float64) *ParcelRepo {
	if radiusMeters <= 0 {
		radiusMeters = 250
	}
	return &ParcelRepo{db: db, radiusMeters: radiusMeters}
}

// FetchPolygons returns the parcels whose boundary meets the search box
// around (lat, lon), ordered by parcel id.
func (r *ParcelRepo) FetchPolygons(ctx context.Context, lat, lon float64) ([]domain.Polygon, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, r.radiusMeters)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT parcel_id, ST_AsGeoJSON(boundary)
		FROM parcels
		WHERE boundary && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY parcel_id
	`, minLon, minLat, maxLon, maxLat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Polygon
	for rows.Next() {
		var id string
		var geom []byte
		if err := rows.Scan(&id, &geom); err != nil {
			return nil, err
		}
		polys, err := geojsonadapter.DecodeGeometry(id, geom)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrProviderFailure)
		}
		out = append(out, polys...)
	}
	return out, rows.Err()
}

// UpsertBatch inserts or replaces many parcels using pgx.Batch.
func (r *ParcelRepo) UpsertBatch(ctx context.Context, source string, parcels []domain.Polygon) error {
	batch := &pgx.Batch{}
	for _, p := range parcels {
		geom, err := geojsonadapter.EncodeGeometry(p)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.ID, err)
		}
		batch.Queue(`
			INSERT INTO parcels (parcel_id, source, boundary)
			VALUES ($1, $2, ST_SetSRID(ST_GeomFromGeoJSON($3), 4326))
			ON CONFLICT (parcel_id) DO UPDATE
			SET source = EXCLUDED.source, boundary = EXCLUDED.boundary, updated_at = now()
		`, p.ID, source, string(geom))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range parcels {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored parcels.
func (r *ParcelRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM parcels`).Scan(&n)
	return n, err
}
