package geojsonadapter

import (
	"context"
	"fmt"
	"os"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/pkg/geospatial"
)

// FileProvider implements ports.PolygonProvider over a FeatureCollection
// file. The file is re-read on every fetch so it can be edited while the
// service runs.
type FileProvider struct {
	path         string
	radiusMeters float64
}

// NewFileProvider creates a provider for path. With a positive radius only
// polygons whose bounding box reaches within radiusMeters of the fetch
// point are returned.
func NewFileProvider(path string, radiusMeters float64) *FileProvider {
	return &FileProvider{path: path, radiusMeters: radiusMeters}
}

// FetchPolygons reads the file and returns the polygons near (lat, lon).
func (p *FileProvider) FetchPolygons(ctx context.Context, lat, lon float64) ([]domain.Polygon, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	polygons, err := DecodeFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	if p.radiusMeters <= 0 {
		return polygons, nil
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, p.radiusMeters)
	near := polygons[:0]
	for _, poly := range polygons {
		b := poly.Bound()
		if b.MaxLat < minLat || b.MinLat > maxLat || b.MaxLon < minLon || b.MinLon > maxLon {
			continue
		}
		near = append(near, poly)
	}
	return near, nil
}
