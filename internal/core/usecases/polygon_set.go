package usecases

import (
	"time"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/pkg/geospatial"
)

// indexSlack absorbs floating-point rounding at the edge of the grown boxes.
const indexSlack = 1e-9

// PolygonSet is an immutable snapshot of the parcels around a reference
// point. It is replaced as a whole, never modified.
type PolygonSet struct {
	polygons  []domain.Polygon
	reference domain.GeoPoint
	fetchedAt time.Time
	tolerance float64
	index     *geospatial.BoxIndex
}

// NewPolygonSet copies polygons and indexes their bounding boxes, each grown
// by the distance at which a corner can still touch the polygon's longest
// edge under tol.
func NewPolygonSet(polygons []domain.Polygon, reference domain.GeoPoint, tol float64) *PolygonSet {
	ps := make([]domain.Polygon, len(polygons))
	copy(ps, polygons)

	s := &PolygonSet{
		polygons:  ps,
		reference: reference,
		fetchedAt: time.Now().UTC(),
		tolerance: tol,
		index:     geospatial.NewBoxIndex(),
	}
	for i, p := range ps {
		b := p.Bound().Grow(domain.TouchMargin(p.LongestEdge(), tol) + indexSlack)
		if err := s.index.Insert(i, b.MinLat, b.MinLon, b.MaxLat, b.MaxLon); err != nil {
			s.index = nil
			break
		}
	}
	return s
}

// EmptyPolygonSet is the set in force before any fetch has resolved.
func EmptyPolygonSet() *PolygonSet {
	return NewPolygonSet(nil, domain.GeoPoint{}, domain.DefaultTolerance)
}

// Polygons returns the polygons in provider order. The slice must not be
// modified.
func (s *PolygonSet) Polygons() []domain.Polygon { return s.polygons }

// Len returns the number of polygons.
func (s *PolygonSet) Len() int { return len(s.polygons) }

// Reference is the point the set was fetched for.
func (s *PolygonSet) Reference() domain.GeoPoint { return s.reference }

// FetchedAt is when the set was built.
func (s *PolygonSet) FetchedAt() time.Time { return s.fetchedAt }

// candidates returns, in ascending order, the indices of polygons that can
// affect a rectangle covering b when validated with tol. ok is false when
// the index cannot answer and every polygon must be visited.
func (s *PolygonSet) candidates(b domain.Bound, tol float64) (idx []int, ok bool) {
	if s.index == nil || tol > s.tolerance {
		return nil, false
	}
	b = b.Grow(indexSlack)
	ids, err := s.index.Search(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
	if err != nil {
		return nil, false
	}
	return ids, true
}
