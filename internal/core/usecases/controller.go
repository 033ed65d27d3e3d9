package usecases

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/ports"
	"github.com/samirrijal/plotfit/internal/pkg/metrics"
	"github.com/samirrijal/plotfit/internal/pkg/telemetry"
)

// PointerKind is the phase of a pointer event.
type PointerKind string

const (
	PointerDown PointerKind = "down"
	PointerMove PointerKind = "move"
	PointerUp   PointerKind = "up"
)

// PointerTarget is the element a pointer-down landed on.
type PointerTarget string

const (
	TargetOverlay      PointerTarget = "overlay"
	TargetRotateHandle PointerTarget = "rotate_handle"
	TargetMap          PointerTarget = "map"
)

// PointerEvent is a pointer event in map-container pixels. Rect is the
// overlay's on-screen rectangle at pointer-down; when nil the map surface
// is asked for it.
type PointerEvent struct {
	Kind     PointerKind       `json:"kind"`
	Target   PointerTarget     `json:"target,omitempty"`
	Position domain.PixelPoint `json:"position"`
	Rect     *domain.PixelRect `json:"rect,omitempty"`
}

// State is the controller's gesture state.
type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
	StateRotating State = "rotating"
)

// OutcomeKind says what handling an event or placement did.
type OutcomeKind string

const (
	OutcomeIgnored       OutcomeKind = "ignored"
	OutcomeDragStarted   OutcomeKind = "drag_started"
	OutcomeDragMoved     OutcomeKind = "drag_moved"
	OutcomeRotateStarted OutcomeKind = "rotate_started"
	OutcomeRotated       OutcomeKind = "rotated"
	OutcomeRotateEnded   OutcomeKind = "rotate_ended"
	OutcomeCommitted     OutcomeKind = "committed"
	OutcomeRejected      OutcomeKind = "rejected"
	OutcomeAborted       OutcomeKind = "aborted"
)

// Outcome is the result of one event or placement. Bounds are the overlay
// bounds after handling. Candidate and Verdict are set when a placement was
// validated. Err is set when a drag was aborted.
type Outcome struct {
	Kind      OutcomeKind
	Bounds    domain.OverlayBounds
	Candidate *domain.OverlayBounds
	Verdict   *domain.Verdict
	Rotation  float64
	Err       error
}

type dragSession struct {
	start  domain.PixelPoint
	bounds domain.OverlayBounds
	rect   domain.PixelRect
}

type rotateSession struct {
	start      domain.PixelPoint
	startAngle float64
}

// ControllerDeps are the collaborators of an InteractionController.
// Validator, Polygons and Surface are required; the rest may be nil.
type ControllerDeps struct {
	Validator *ContainmentValidator
	Polygons  PolygonSource
	Surface   ports.MapSurface
	Store     ports.BoundsStore
	Renderer  ports.OverlayRenderer
	Notifier  ports.Notifier
	Publisher ports.EventPublisher
	Logger    *slog.Logger
}

// InteractionController runs the drag and rotate gestures of one overlay.
// Events are handled one at a time. Bounds and rotation are published by
// whole-value replacement, so readers never lock.
type InteractionController struct {
	overlayID string
	imageURL  string
	deps      ControllerDeps
	logger    *slog.Logger
	tracer    trace.Tracer

	mu     sync.Mutex
	drag   *dragSession
	rotate *rotateSession

	bounds   atomic.Pointer[domain.OverlayBounds]
	rotation atomic.Uint64
}

// NewInteractionController creates an idle controller showing initial.
func NewInteractionController(overlayID, imageURL string, initial domain.OverlayBounds, deps ControllerDeps) *InteractionController {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = NewContainmentValidator(domain.DefaultTolerance)
	}
	c := &InteractionController{
		overlayID: overlayID,
		imageURL:  imageURL,
		deps:      deps,
		logger:    logger.With("component", "controller", "overlay", overlayID),
		tracer:    otel.Tracer(tracerName),
	}
	c.bounds.Store(&initial)
	return c
}

// OverlayID identifies the overlay this controller drives.
func (c *InteractionController) OverlayID() string { return c.overlayID }

// Bounds returns the committed overlay bounds.
func (c *InteractionController) Bounds() domain.OverlayBounds {
	return *c.bounds.Load()
}

// Rotation returns the presentation rotation in degrees.
func (c *InteractionController) Rotation() float64 {
	return math.Float64frombits(c.rotation.Load())
}

// View returns what the renderer needs to draw the overlay now.
func (c *InteractionController) View() domain.OverlayView {
	return domain.OverlayView{
		OverlayID: c.overlayID,
		ImageURL:  c.imageURL,
		Bounds:    c.Bounds(),
		Rotation:  c.Rotation(),
	}
}

// State reports the active gesture, if any.
func (c *InteractionController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.drag != nil:
		return StateDragging
	case c.rotate != nil:
		return StateRotating
	default:
		return StateIdle
	}
}

// Render pushes the current view to the renderer.
func (c *InteractionController) Render(ctx context.Context) {
	c.render(ctx)
}

// HandlePointer advances the gesture state machine by one event.
func (c *InteractionController) HandlePointer(ctx context.Context, ev PointerEvent) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case PointerDown:
		return c.pointerDown(ev)
	case PointerMove:
		return c.pointerMove(ctx, ev)
	case PointerUp:
		return c.pointerUp(ctx, ev)
	default:
		return c.outcome(OutcomeIgnored)
	}
}

// Place validates candidate and commits it when valid. It is the
// programmatic equivalent of finishing a drag at candidate.
func (c *InteractionController) Place(ctx context.Context, candidate domain.OverlayBounds) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decide(ctx, candidate)
}

func (c *InteractionController) outcome(kind OutcomeKind) Outcome {
	return Outcome{Kind: kind, Bounds: c.Bounds(), Rotation: c.Rotation()}
}

func (c *InteractionController) pointerDown(ev PointerEvent) Outcome {
	if c.drag != nil || c.rotate != nil {
		return c.outcome(OutcomeIgnored)
	}

	switch ev.Target {
	case TargetOverlay:
		bounds := c.Bounds()
		var rect domain.PixelRect
		if ev.Rect != nil {
			rect = *ev.Rect
		} else {
			rect = c.deps.Surface.OverlayRect(bounds)
		}
		c.drag = &dragSession{start: ev.Position, bounds: bounds, rect: rect}
		return c.outcome(OutcomeDragStarted)
	case TargetRotateHandle:
		c.rotate = &rotateSession{start: ev.Position, startAngle: c.Rotation()}
		return c.outcome(OutcomeRotateStarted)
	default:
		return c.outcome(OutcomeIgnored)
	}
}

func (c *InteractionController) pointerMove(ctx context.Context, ev PointerEvent) Outcome {
	switch {
	case c.rotate != nil:
		dx := ev.Position.X - c.rotate.start.X
		dy := ev.Position.Y - c.rotate.start.Y
		angle := c.rotate.startAngle + math.Atan2(dy, dx)*180/math.Pi
		c.rotation.Store(math.Float64bits(angle))
		c.render(ctx)
		return c.outcome(OutcomeRotated)
	case c.drag != nil:
		return c.outcome(OutcomeDragMoved)
	default:
		return c.outcome(OutcomeIgnored)
	}
}

func (c *InteractionController) pointerUp(ctx context.Context, ev PointerEvent) Outcome {
	switch {
	case c.rotate != nil:
		c.rotate = nil
		return c.outcome(OutcomeRotateEnded)
	case c.drag != nil:
		session := c.drag
		c.drag = nil
		return c.finishDrag(ctx, session, ev.Position)
	default:
		return c.outcome(OutcomeIgnored)
	}
}

func (c *InteractionController) finishDrag(ctx context.Context, s *dragSession, end domain.PixelPoint) Outcome {
	rect := s.rect.Translate(end.X-s.start.X, end.Y-s.start.Y)
	center := c.deps.Surface.ContainerPointToGeo(rect.Center())

	candidate, err := RemapBounds(s.bounds, s.rect, center)
	if err != nil {
		c.logger.Warn("drag aborted", "error", err)
		metrics.DragOutcomes.WithLabelValues(string(OutcomeAborted)).Inc()
		c.publish(ctx, domain.OutcomeAborted, nil, "")
		out := c.outcome(OutcomeAborted)
		out.Err = err
		return out
	}
	return c.decide(ctx, candidate)
}

func (c *InteractionController) decide(ctx context.Context, candidate domain.OverlayBounds) Outcome {
	ctx, span := c.tracer.Start(ctx, telemetry.SpanOverlayPlace, trace.WithAttributes(
		telemetry.AttrOverlayID.String(c.overlayID),
		telemetry.AttrOverlayCandidate.String(candidate.BBoxString()),
	))
	defer span.End()

	verdict := c.deps.Validator.Validate(candidate, c.deps.Polygons.Current())
	span.SetAttributes(telemetry.AttrOverlayValid.Bool(verdict.Valid))
	if !verdict.Valid {
		span.SetAttributes(telemetry.AttrOverlayReason.String(string(verdict.Reason)))
	}

	if !verdict.Valid {
		c.logger.Info("placement rejected",
			"reason", verdict.Reason, "polygon", verdict.PolygonID, "edge", verdict.Edge,
			"candidate", candidate.BBoxString())
		metrics.DragOutcomes.WithLabelValues(string(OutcomeRejected)).Inc()
		c.notify(ctx, domain.Notice{Kind: domain.NoticeRejection, Message: verdict.Message})
		c.render(ctx)
		c.publish(ctx, domain.OutcomeRejected, &candidate, verdict.Reason)

		out := c.outcome(OutcomeRejected)
		out.Candidate = &candidate
		out.Verdict = &verdict
		return out
	}

	c.bounds.Store(&candidate)
	if c.deps.Store != nil {
		if err := c.deps.Store.Save(ctx, candidate); err != nil {
			span.RecordError(err)
			c.logger.Error("persist bounds failed, keeping in-memory commit", "error", err)
		}
	}
	c.logger.Info("overlay bounds committed", "bounds", candidate, "bbox", candidate.BBoxString())
	metrics.DragOutcomes.WithLabelValues(string(OutcomeCommitted)).Inc()
	c.render(ctx)
	c.publish(ctx, domain.OutcomeCommitted, &candidate, "")

	out := c.outcome(OutcomeCommitted)
	out.Candidate = &candidate
	out.Verdict = &verdict
	return out
}

func (c *InteractionController) render(ctx context.Context) {
	if c.deps.Renderer == nil {
		return
	}
	if err := c.deps.Renderer.RenderOverlay(ctx, c.View()); err != nil {
		c.logger.Warn("render overlay failed", "error", err)
	}
}

func (c *InteractionController) notify(ctx context.Context, n domain.Notice) {
	if c.deps.Notifier == nil {
		return
	}
	if err := c.deps.Notifier.Notify(ctx, n); err != nil {
		c.logger.Warn("notice not delivered", "kind", n.Kind, "error", err)
	}
}

func (c *InteractionController) publish(ctx context.Context, outcome domain.PlacementOutcome, candidate *domain.OverlayBounds, reason domain.RejectionReason) {
	if c.deps.Publisher == nil {
		return
	}
	ev := &domain.PlacementEvent{
		Time:      time.Now().UTC(),
		OverlayID: c.overlayID,
		Outcome:   outcome,
		Bounds:    c.Bounds(),
		Candidate: candidate,
		Reason:    reason,
	}
	if err := c.deps.Publisher.PublishPlacement(ctx, ev); err != nil {
		c.logger.Warn("publish placement failed", "outcome", outcome, "error", err)
	}
}
