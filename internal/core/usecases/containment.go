package usecases

import (
	"time"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/pkg/metrics"
)

// ContainmentValidator decides whether an overlay may be placed at a
// candidate rectangle.
type ContainmentValidator struct {
	tol      float64
	fullScan bool
}

// ValidatorOption configures a ContainmentValidator.
type ValidatorOption func(*ContainmentValidator)

// WithFullScan visits every polygon instead of the bounding-box candidates.
func WithFullScan() ValidatorOption {
	return func(v *ContainmentValidator) { v.fullScan = true }
}

// NewContainmentValidator creates a validator with touch tolerance tol.
// A non-positive tol selects domain.DefaultTolerance.
func NewContainmentValidator(tol float64, opts ...ValidatorOption) *ContainmentValidator {
	if tol <= 0 {
		tol = domain.DefaultTolerance
	}
	v := &ContainmentValidator{tol: tol}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Tolerance returns the touch tolerance in degrees.
func (v *ContainmentValidator) Tolerance() float64 { return v.tol }

// Validate checks candidate against every polygon of set and returns the
// first violation found:
//
//  1. a corner lying on a polygon edge (touches border);
//  2. an overlay edge meeting a polygon edge (crosses border);
//  3. no single polygon containing all four corners (outside all polygons).
//
// Steps 1 and 2 run per polygon edge, for every polygon, before step 3.
// An empty or nil set rejects everything.
func (v *ContainmentValidator) Validate(candidate domain.OverlayBounds, set *PolygonSet) domain.Verdict {
	start := time.Now()
	verdict, visited := v.validate(candidate, set)
	metrics.ObserveValidation(verdict.Valid, string(verdict.Reason), visited, time.Since(start))
	return verdict
}

func (v *ContainmentValidator) validate(candidate domain.OverlayBounds, set *PolygonSet) (domain.Verdict, int) {
	if set == nil || set.Len() == 0 {
		return domain.Reject(domain.ReasonOutsideAllPolygons, "", -1), 0
	}

	order, ok := []int(nil), false
	if !v.fullScan {
		order, ok = set.candidates(candidate.Bound(), v.tol)
	}
	if !ok {
		order = make([]int, set.Len())
		for i := range order {
			order[i] = i
		}
	}

	polygons := set.Polygons()
	corners := candidate.Corners()

	for _, i := range order {
		poly := polygons[i]
		for e := range poly.Vertices {
			pi, pj := poly.Edge(e)
			for _, c := range corners {
				if domain.PointOnSegment(c, pi, pj, v.tol) {
					return domain.Reject(domain.ReasonTouchesBorder, poly.ID, e), len(order)
				}
			}
			for k := range corners {
				ck, cl := corners[k], corners[(k+1)%len(corners)]
				if domain.SegmentsIntersect(ck, cl, pi, pj) {
					return domain.Reject(domain.ReasonCrossesBorder, poly.ID, e), len(order)
				}
			}
		}
	}

	for _, i := range order {
		if containsAll(polygons[i], corners) {
			verdict := domain.Accept()
			verdict.PolygonID = polygons[i].ID
			return verdict, len(order)
		}
	}
	return domain.Reject(domain.ReasonOutsideAllPolygons, "", -1), len(order)
}

func containsAll(poly domain.Polygon, pts [4]domain.GeoPoint) bool {
	for _, p := range pts {
		if !domain.PointInPolygon(p, poly) {
			return false
		}
	}
	return true
}
