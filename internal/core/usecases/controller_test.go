package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/usecases"
)

type controllerFixture struct {
	ctrl  *usecases.InteractionController
	store *mockStore
	rec   *recorder
}

func newController(t *testing.T, source usecases.PolygonSource) controllerFixture {
	t.Helper()
	store := &mockStore{}
	rec := &recorder{}
	ctrl := usecases.NewInteractionController("ov-1", "https://example.com/plan.png", domain.MustBounds(2, 2, 4, 4), usecases.ControllerDeps{
		Validator: usecases.NewContainmentValidator(domain.DefaultTolerance),
		Polygons:  source,
		Surface:   &mockSurface{},
		Store:     store,
		Renderer:  rec,
		Notifier:  rec,
		Publisher: rec,
	})
	return controllerFixture{ctrl: ctrl, store: store, rec: rec}
}

// overlayRect is the pixel rectangle of bounds (2,2)-(4,4) on mockSurface.
var overlayRect = domain.PixelRect{Left: 200, Top: 600, Width: 200, Height: 200}

func down(target usecases.PointerTarget, x, y float64, rect *domain.PixelRect) usecases.PointerEvent {
	return usecases.PointerEvent{Kind: usecases.PointerDown, Target: target, Position: domain.PixelPoint{X: x, Y: y}, Rect: rect}
}

func move(x, y float64) usecases.PointerEvent {
	return usecases.PointerEvent{Kind: usecases.PointerMove, Position: domain.PixelPoint{X: x, Y: y}}
}

func up(x, y float64) usecases.PointerEvent {
	return usecases.PointerEvent{Kind: usecases.PointerUp, Position: domain.PixelPoint{X: x, Y: y}}
}

func requireBounds(t *testing.T, want, got domain.OverlayBounds) {
	t.Helper()
	require.InDelta(t, want.South(), got.South(), 1e-9)
	require.InDelta(t, want.West(), got.West(), 1e-9)
	require.InDelta(t, want.North(), got.North(), 1e-9)
	require.InDelta(t, want.East(), got.East(), 1e-9)
}

func TestInteractionController_DragCommits(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()

	out := f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, &overlayRect))
	require.Equal(t, usecases.OutcomeDragStarted, out.Kind)
	require.Equal(t, usecases.StateDragging, f.ctrl.State())

	out = f.ctrl.HandlePointer(ctx, move(320, 690))
	require.Equal(t, usecases.OutcomeDragMoved, out.Kind)
	require.Empty(t, f.store.saved, "moves never commit")

	out = f.ctrl.HandlePointer(ctx, up(350, 650))
	require.Equal(t, usecases.OutcomeCommitted, out.Kind)
	require.NoError(t, out.Err)
	require.True(t, out.Verdict.Valid)
	requireBounds(t, domain.MustBounds(2.5, 2.5, 4.5, 4.5), out.Bounds)
	requireBounds(t, out.Bounds, f.ctrl.Bounds())
	require.Equal(t, usecases.StateIdle, f.ctrl.State())

	require.Len(t, f.store.saved, 1)
	requireBounds(t, out.Bounds, f.store.saved[0])
	require.Len(t, f.rec.views, 1)
	require.Len(t, f.rec.events, 1)
	require.Equal(t, domain.OutcomeCommitted, f.rec.events[0].Outcome)
	require.Equal(t, "ov-1", f.rec.events[0].OverlayID)
	require.Empty(t, f.rec.notices)
}

func TestInteractionController_DragUsesSurfaceRect(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()

	f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, nil))
	out := f.ctrl.HandlePointer(ctx, up(300, 600))
	require.Equal(t, usecases.OutcomeCommitted, out.Kind)
	requireBounds(t, domain.MustBounds(3, 2, 5, 4), out.Bounds)
}

func TestInteractionController_DragRejected(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()
	before := f.ctrl.Bounds()

	f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, &overlayRect))
	out := f.ctrl.HandlePointer(ctx, up(0, 700))

	require.Equal(t, usecases.OutcomeRejected, out.Kind)
	require.Equal(t, domain.ReasonCrossesBorder, out.Verdict.Reason)
	require.NotNil(t, out.Candidate)
	require.Equal(t, before, out.Bounds)
	require.Equal(t, before, f.ctrl.Bounds())
	require.Equal(t, usecases.StateIdle, f.ctrl.State())
	require.Empty(t, f.store.saved)

	require.Equal(t, []domain.Notice{{Kind: domain.NoticeRejection, Message: "Image cannot intersect with polygon border"}}, f.rec.notices)
	require.Len(t, f.rec.views, 1, "overlay is redrawn at its old bounds")
	require.Equal(t, before, f.rec.views[0].Bounds)
	require.Equal(t, domain.OutcomeRejected, f.rec.events[0].Outcome)
	require.Equal(t, domain.ReasonCrossesBorder, f.rec.events[0].Reason)
}

func TestInteractionController_DegenerateDragAborts(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()
	before := f.ctrl.Bounds()

	f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, &domain.PixelRect{Left: 200, Top: 600, Width: 0, Height: 200}))
	out := f.ctrl.HandlePointer(ctx, up(320, 700))

	require.Equal(t, usecases.OutcomeAborted, out.Kind)
	require.True(t, errors.Is(out.Err, domain.ErrDegenerateGeometry))
	require.Equal(t, before, f.ctrl.Bounds())
	require.Equal(t, usecases.StateIdle, f.ctrl.State())
	require.Empty(t, f.store.saved)
	require.Empty(t, f.rec.notices)
}

func TestInteractionController_ValidatesAgainstSetAtPointerUp(t *testing.T) {
	provider := &mockProvider{}
	polygons := usecases.NewPolygonService(provider, nil, nil, usecases.PolygonServiceOptions{})
	f := newController(t, polygons)
	ctx := context.Background()

	f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, &overlayRect))

	provider.fetchFn = func(ctx context.Context, lat, lon float64) ([]domain.Polygon, error) {
		return []domain.Polygon{square10()}, nil
	}
	_, err := polygons.Refresh(ctx, pt(5, 5))
	require.NoError(t, err)

	out := f.ctrl.HandlePointer(ctx, up(350, 650))
	require.Equal(t, usecases.OutcomeCommitted, out.Kind)
}

func TestInteractionController_EmptySetRejectsEverything(t *testing.T) {
	f := newController(t, staticSource{usecases.EmptyPolygonSet()})
	ctx := context.Background()

	f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, &overlayRect))
	out := f.ctrl.HandlePointer(ctx, up(301, 700))
	require.Equal(t, usecases.OutcomeRejected, out.Kind)
	require.Equal(t, domain.ReasonOutsideAllPolygons, out.Verdict.Reason)
}

func TestInteractionController_Rotation(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()
	before := f.ctrl.Bounds()

	out := f.ctrl.HandlePointer(ctx, down(usecases.TargetRotateHandle, 0, 0, nil))
	require.Equal(t, usecases.OutcomeRotateStarted, out.Kind)
	require.Equal(t, usecases.StateRotating, f.ctrl.State())

	out = f.ctrl.HandlePointer(ctx, move(10, 10))
	require.Equal(t, usecases.OutcomeRotated, out.Kind)
	require.InDelta(t, 45, out.Rotation, 1e-9)

	out = f.ctrl.HandlePointer(ctx, up(10, 10))
	require.Equal(t, usecases.OutcomeRotateEnded, out.Kind)
	require.Equal(t, usecases.StateIdle, f.ctrl.State())

	f.ctrl.HandlePointer(ctx, down(usecases.TargetRotateHandle, 0, 0, nil))
	out = f.ctrl.HandlePointer(ctx, move(0, 10))
	require.InDelta(t, 135, out.Rotation, 1e-9)
	f.ctrl.HandlePointer(ctx, up(0, 10))

	require.InDelta(t, 135, f.ctrl.Rotation(), 1e-9)
	require.Equal(t, before, f.ctrl.Bounds(), "rotation never touches bounds")
	require.Empty(t, f.store.saved)
	require.Empty(t, f.rec.events)
	require.Len(t, f.rec.views, 2)
	require.InDelta(t, 135, f.rec.views[1].Rotation, 1e-9)
}

func TestInteractionController_RotationIgnoredByValidation(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()

	f.ctrl.HandlePointer(ctx, down(usecases.TargetRotateHandle, 0, 0, nil))
	f.ctrl.HandlePointer(ctx, move(10, 10))
	f.ctrl.HandlePointer(ctx, up(10, 10))
	require.InDelta(t, 45, f.ctrl.Rotation(), 1e-9)

	// Turned 45 degrees about its centre this box would reach from -1.36 to
	// 11.36 on both axes, far across the square's border.
	wide := domain.MustBounds(0.5, 0.5, 9.5, 9.5)
	out := f.ctrl.Place(ctx, wide)
	require.Equal(t, usecases.OutcomeCommitted, out.Kind)
	require.True(t, out.Verdict.Valid)
	require.Equal(t, wide, f.ctrl.Bounds())
	require.InDelta(t, 45, f.ctrl.Rotation(), 1e-9)
}

func TestInteractionController_IgnoredEvents(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()

	require.Equal(t, usecases.OutcomeIgnored, f.ctrl.HandlePointer(ctx, up(1, 1)).Kind)
	require.Equal(t, usecases.OutcomeIgnored, f.ctrl.HandlePointer(ctx, move(1, 1)).Kind)
	require.Equal(t, usecases.OutcomeIgnored, f.ctrl.HandlePointer(ctx, down(usecases.TargetMap, 1, 1, nil)).Kind)
	require.Equal(t, usecases.OutcomeIgnored, f.ctrl.HandlePointer(ctx, usecases.PointerEvent{Kind: "wheel"}).Kind)

	f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 300, 700, &overlayRect))
	require.Equal(t, usecases.OutcomeIgnored, f.ctrl.HandlePointer(ctx, down(usecases.TargetRotateHandle, 1, 1, nil)).Kind)
	require.Equal(t, usecases.OutcomeIgnored, f.ctrl.HandlePointer(ctx, down(usecases.TargetOverlay, 1, 1, nil)).Kind)
	require.Equal(t, usecases.StateDragging, f.ctrl.State())
}

func TestInteractionController_Place(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	ctx := context.Background()

	out := f.ctrl.Place(ctx, domain.MustBounds(0, 2, 2, 4))
	require.Equal(t, usecases.OutcomeRejected, out.Kind)
	require.Equal(t, domain.ReasonTouchesBorder, out.Verdict.Reason)
	require.Equal(t, domain.MustBounds(2, 2, 4, 4), f.ctrl.Bounds())

	out = f.ctrl.Place(ctx, domain.MustBounds(6, 6, 7, 7))
	require.Equal(t, usecases.OutcomeCommitted, out.Kind)
	require.Equal(t, domain.MustBounds(6, 6, 7, 7), f.ctrl.Bounds())
	require.Equal(t, []domain.OverlayBounds{domain.MustBounds(6, 6, 7, 7)}, f.store.saved)
}

func TestInteractionController_PersistFailureKeepsCommit(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	f.store.saveFn = func(ctx context.Context, b domain.OverlayBounds) error {
		return errors.New("valkey down")
	}

	out := f.ctrl.Place(context.Background(), domain.MustBounds(6, 6, 7, 7))
	require.Equal(t, usecases.OutcomeCommitted, out.Kind)
	require.NoError(t, out.Err)
	require.Equal(t, domain.MustBounds(6, 6, 7, 7), f.ctrl.Bounds())
}

func TestInteractionController_View(t *testing.T) {
	f := newController(t, staticSource{setOf(square10())})
	v := f.ctrl.View()
	require.Equal(t, "ov-1", v.OverlayID)
	require.Equal(t, "https://example.com/plan.png", v.ImageURL)
	require.Equal(t, domain.MustBounds(2, 2, 4, 4), v.Bounds)
	require.Zero(t, v.Rotation)
}
