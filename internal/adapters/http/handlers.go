package http

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/adapters/mercator"
	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/usecases"
	"github.com/samirrijal/plotfit/internal/pkg/geospatial"
)

// OverlayResponse describes the overlay as the map shows it.
type OverlayResponse struct {
	OverlayID string               `json:"overlay_id"`
	ImageURL  string               `json:"image_url"`
	Bounds    domain.OverlayBounds `json:"bounds"`
	Corners   [4]domain.GeoPoint   `json:"corners"`
	BBox      string               `json:"bbox"`
	Rotation  float64              `json:"rotation"`
	State     usecases.State       `json:"state"`
	WidthM    float64              `json:"width_m"`
	HeightM   float64              `json:"height_m"`
}

// OutcomeResponse is the JSON form of a controller outcome.
type OutcomeResponse struct {
	Kind      usecases.OutcomeKind  `json:"kind"`
	Bounds    domain.OverlayBounds  `json:"bounds"`
	Candidate *domain.OverlayBounds `json:"candidate,omitempty"`
	Verdict   *domain.Verdict       `json:"verdict,omitempty"`
	Rotation  float64               `json:"rotation"`
	Error     string                `json:"error,omitempty"`
}

// ParcelResponse is one polygon of the current parcel set.
type ParcelResponse struct {
	ID       string            `json:"id"`
	Vertices []domain.GeoPoint `json:"vertices"`
	Bound    domain.Bound      `json:"bound"`
}

type boundsRequest struct {
	Bounds *domain.OverlayBounds `json:"bounds"`
}

func toOutcomeResponse(o usecases.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Kind:      o.Kind,
		Bounds:    o.Bounds,
		Candidate: o.Candidate,
		Verdict:   o.Verdict,
		Rotation:  o.Rotation,
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

func overlayResponse(ctrl *usecases.InteractionController) OverlayResponse {
	view := ctrl.View()
	sw, ne := view.Bounds.SouthWest, view.Bounds.NorthEast
	w, h := geospatial.Footprint(sw.Lat, sw.Lon, ne.Lat, ne.Lon)
	return OverlayResponse{
		OverlayID: view.OverlayID,
		ImageURL:  view.ImageURL,
		Bounds:    view.Bounds,
		Corners:   view.Bounds.Corners(),
		BBox:      view.Bounds.BBoxString(),
		Rotation:  view.Rotation,
		State:     ctrl.State(),
		WidthM:    math.Round(w*100) / 100,
		HeightM:   math.Round(h*100) / 100,
	}
}

func parcelResponse(p domain.Polygon) ParcelResponse {
	return ParcelResponse{ID: p.ID, Vertices: p.Vertices, Bound: p.Bound()}
}

// parseBounds reads a {"bounds": [[swLat, swLon], [neLat, neLon]]} body.
func parseBounds(c *fiber.Ctx) (domain.OverlayBounds, error) {
	var req boundsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.OverlayBounds{}, err
	}
	if req.Bounds == nil {
		return domain.OverlayBounds{}, errors.New("bounds is required")
	}
	return *req.Bounds, nil
}

// GetOverlayHandler returns the overlay's bounds, corners, rotation and state.
func GetOverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.JSON(overlayResponse(deps.Controller))
	}
}

// LegacyBoundsHandler returns the bounds in their persisted pair form.
func LegacyBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.JSON(deps.Controller.Bounds())
	}
}

// ValidateHandler checks candidate bounds against the current parcel set
// without committing them.
func ValidateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := parseBounds(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Validator.Validate(b, deps.Polygons.Current()))
	}
}

// PlaceHandler validates candidate bounds and commits them when accepted.
// A rejection is a 200 carrying the verdict.
func PlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := parseBounds(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		o := deps.Controller.Place(c.UserContext(), b)
		return c.JSON(toOutcomeResponse(o))
	}
}

// PointerEventHandler feeds one pointer event to the interaction controller.
func PointerEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ev usecases.PointerEvent
		if err := c.BodyParser(&ev); err != nil {
			return errBadRequest(c, "invalid pointer event: "+err.Error())
		}
		switch ev.Kind {
		case usecases.PointerDown, usecases.PointerMove, usecases.PointerUp:
		default:
			return errBadRequest(c, "kind must be one of down, move, up")
		}
		if ev.Kind == usecases.PointerDown && ev.Target == "" {
			ev.Target = usecases.TargetOverlay
		}

		o := deps.Controller.HandlePointer(c.UserContext(), ev)
		if o.Kind == usecases.OutcomeAborted && errors.Is(o.Err, domain.ErrDegenerateGeometry) {
			LoggerFromCtx(c.UserContext()).Warn("drag aborted", "error", o.Err)
			return errDegenerate(c, o.Err.Error())
		}
		return c.JSON(toOutcomeResponse(o))
	}
}

// GetViewportHandler returns the viewport the projection currently uses.
func GetViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.JSON(deps.Surface.Viewport())
	}
}

// PutViewportHandler replaces the viewport after the browser map pans,
// zooms or resizes.
func PutViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vp mercator.Viewport
		if err := c.BodyParser(&vp); err != nil {
			return errBadRequest(c, "invalid viewport: "+err.Error())
		}
		if err := deps.Surface.SetViewport(vp); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Surface.Viewport())
	}
}

var errReferenceRange = errors.New("lat must be within [-90, 90] and lon within [-180, 180]")

// checkReference rejects points off the globe, NaN included.
func checkReference(p domain.GeoPoint) error {
	if !(math.Abs(p.Lat) <= 90) || !(math.Abs(p.Lon) <= 180) {
		return errReferenceRange
	}
	return nil
}

// PutReferenceHandler moves the parcel reference point and starts a
// background refresh of the polygon set.
func PutReferenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p domain.GeoPoint
		if err := c.BodyParser(&p); err != nil {
			return errBadRequest(c, "invalid reference: "+err.Error())
		}
		if err := checkReference(p); err != nil {
			return errBadRequest(c, err.Error())
		}

		LoggerFromCtx(c.UserContext()).Info("reference moved", "lat", p.Lat, "lon", p.Lon)
		deps.Polygons.RefreshAsync(p)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":    "refreshing",
			"reference": p,
		})
	}
}

// ListParcelsHandler returns the current parcel set, paginated.
func ListParcelsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set := deps.Polygons.Current()
		page := paginate(set.Polygons(), parsePagination(c), parcelResponse)

		if !set.FetchedAt().IsZero() {
			c.Response().Header.SetLastModified(set.FetchedAt())
		}

		SetLinkHeaders(c, page.Pagination)
		return c.JSON(page)
	}
}

// GetParcelHandler returns one polygon of the current set by id.
func GetParcelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		for _, p := range deps.Polygons.Current().Polygons() {
			if p.ID == id {
				return c.JSON(parcelResponse(p))
			}
		}
		return errNotFound(c, "parcel not found: "+id)
	}
}

// ParcelsGeoJSONHandler returns the current parcel set as a FeatureCollection.
func ParcelsGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := geojsonadapter.EncodeFeatureCollection(deps.Polygons.Current().Polygons())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "application/geo+json")
		return c.Send(data)
	}
}
