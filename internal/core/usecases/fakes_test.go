package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/usecases"
)

// --- Mock PolygonProvider ---

type mockProvider struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, lat, lon float64) ([]domain.Polygon, error)
}

func (m *mockProvider) FetchPolygons(ctx context.Context, lat, lon float64) ([]domain.Polygon, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, lat, lon)
	}
	return nil, nil
}

func (m *mockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrBoundsNotFound
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock BoundsStore ---

type mockStore struct {
	loadFn func(ctx context.Context) (domain.OverlayBounds, error)
	saveFn func(ctx context.Context, b domain.OverlayBounds) error
	saved  []domain.OverlayBounds
}

func (m *mockStore) Load(ctx context.Context) (domain.OverlayBounds, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return domain.OverlayBounds{}, domain.ErrBoundsNotFound
}

func (m *mockStore) Save(ctx context.Context, b domain.OverlayBounds) error {
	m.saved = append(m.saved, b)
	if m.saveFn != nil {
		return m.saveFn(ctx, b)
	}
	return nil
}

// --- Mock MapSurface ---

// mockSurface maps pixels linearly: one pixel is 0.01 degrees, the
// container origin is (lat 10, lon 0), and y grows southwards.
type mockSurface struct {
	rect domain.PixelRect
}

func (m *mockSurface) ContainerPointToGeo(p domain.PixelPoint) domain.GeoPoint {
	return domain.GeoPoint{Lat: 10 - p.Y*0.01, Lon: p.X * 0.01}
}

func (m *mockSurface) OverlayRect(b domain.OverlayBounds) domain.PixelRect {
	if m.rect != (domain.PixelRect{}) {
		return m.rect
	}
	return domain.PixelRect{
		Left:   b.West() / 0.01,
		Top:    (10 - b.North()) / 0.01,
		Width:  b.Width() / 0.01,
		Height: b.Height() / 0.01,
	}
}

// --- Recorders for renderer, notifier and publisher ---

type recorder struct {
	mu      sync.Mutex
	views   []domain.OverlayView
	notices []domain.Notice
	events  []domain.PlacementEvent
}

func (r *recorder) RenderOverlay(ctx context.Context, v domain.OverlayView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	return nil
}

func (r *recorder) Notify(ctx context.Context, n domain.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recorder) PublishPlacement(ctx context.Context, ev *domain.PlacementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *recorder) Notices() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notice(nil), r.notices...)
}

// --- Static polygon source ---

type staticSource struct{ set *usecases.PolygonSet }

func (s staticSource) Current() *usecases.PolygonSet { return s.set }

// --- Helpers ---

func pt(lat, lon float64) domain.GeoPoint { return domain.GeoPoint{Lat: lat, Lon: lon} }

func polygon(id string, coords ...[2]float64) domain.Polygon {
	vs := make([]domain.GeoPoint, len(coords))
	for i, c := range coords {
		vs[i] = pt(c[0], c[1])
	}
	p, err := domain.NewPolygon(id, vs)
	if err != nil {
		panic(err)
	}
	return p
}

// square10 is the polygon [[0,0],[0,10],[10,10],[10,0]].
func square10() domain.Polygon {
	return polygon("square", [2]float64{0, 0}, [2]float64{0, 10}, [2]float64{10, 10}, [2]float64{10, 0})
}

func setOf(polygons ...domain.Polygon) *usecases.PolygonSet {
	return usecases.NewPolygonSet(polygons, pt(5, 5), domain.DefaultTolerance)
}
