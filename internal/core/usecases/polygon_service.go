package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/ports"
	"github.com/samirrijal/plotfit/internal/pkg/metrics"
	"github.com/samirrijal/plotfit/internal/pkg/telemetry"
)

// NoParcelsMessage is shown when a fetch resolves with no polygons.
const NoParcelsMessage = "No parcel data found."

const tracerName = "github.com/samirrijal/plotfit/internal/core/usecases"

// PolygonSource yields the polygon set validation should use right now.
type PolygonSource interface {
	Current() *PolygonSet
}

// PolygonServiceOptions tunes a PolygonService. Zero values pick defaults.
type PolygonServiceOptions struct {
	Source       string // metrics label, e.g. "regrid"
	Tolerance    float64
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// PolygonService owns the current polygon set. Fetches replace the set as
// a whole; whichever fetch resolves last wins.
type PolygonService struct {
	provider ports.PolygonProvider
	cache    ports.CacheService
	notifier ports.Notifier
	opts     PolygonServiceOptions
	logger   *slog.Logger
	tracer   trace.Tracer

	current   atomic.Pointer[PolygonSet]
	reference atomic.Pointer[domain.GeoPoint]
	inflight  sync.WaitGroup
}

// NewPolygonService creates a PolygonService whose current set is empty.
// cache and notifier may be nil.
func NewPolygonService(provider ports.PolygonProvider, cache ports.CacheService, notifier ports.Notifier, opts PolygonServiceOptions) *PolygonService {
	if opts.Source == "" {
		opts.Source = "provider"
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = domain.DefaultTolerance
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &PolygonService{
		provider: provider,
		cache:    cache,
		notifier: notifier,
		opts:     opts,
		logger:   logger.With("component", "polygons", "source", opts.Source),
		tracer:   otel.Tracer(tracerName),
	}
	s.current.Store(EmptyPolygonSet())
	return s
}

// Current returns the polygon set in force. It is never nil.
func (s *PolygonService) Current() *PolygonSet {
	return s.current.Load()
}

// Reference returns the point of the most recent refresh request.
func (s *PolygonService) Reference() (domain.GeoPoint, bool) {
	p := s.reference.Load()
	if p == nil {
		return domain.GeoPoint{}, false
	}
	return *p, true
}

// Refresh fetches the polygons around point and makes them current.
// On provider failure the previous set is kept and an error wrapping
// domain.ErrProviderFailure is returned together with that set.
func (s *PolygonService) Refresh(ctx context.Context, point domain.GeoPoint) (*PolygonSet, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanParcelsRefresh, trace.WithAttributes(
		telemetry.AttrParcelsLat.Float64(point.Lat),
		telemetry.AttrParcelsLon.Float64(point.Lon),
		telemetry.AttrParcelsSource.String(s.opts.Source),
	))
	defer span.End()

	s.reference.Store(&point)

	polygons, err := s.fetch(ctx, point)
	if err != nil {
		metrics.ParcelFetchErrors.WithLabelValues(s.opts.Source).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.logger.Warn("parcel fetch failed, keeping previous set",
			"lat", point.Lat, "lon", point.Lon, "error", err)
		return s.Current(), fmt.Errorf("fetch parcels at %.6f,%.6f: %w: %w", point.Lat, point.Lon, domain.ErrProviderFailure, err)
	}

	set := NewPolygonSet(polygons, point, s.opts.Tolerance)
	s.current.Store(set)
	metrics.PolygonsLoaded.Set(float64(set.Len()))
	span.SetAttributes(telemetry.AttrParcelsCount.Int(set.Len()))

	if set.Len() == 0 {
		s.logger.Info("no parcels around reference point", "lat", point.Lat, "lon", point.Lon)
		s.notify(ctx, domain.Notice{Kind: domain.NoticeNoParcels, Message: NoParcelsMessage})
	} else {
		s.logger.Info("polygon set replaced", "count", set.Len(), "lat", point.Lat, "lon", point.Lon)
	}
	return set, nil
}

// RefreshAsync starts a Refresh in the background and returns immediately.
// Failures are logged by Refresh.
func (s *PolygonService) RefreshAsync(point domain.GeoPoint) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.FetchTimeout)
		defer cancel()
		_, _ = s.Refresh(ctx, point)
	}()
}

// Wait blocks until every RefreshAsync call has resolved.
func (s *PolygonService) Wait() {
	s.inflight.Wait()
}

func cacheKey(p domain.GeoPoint) string {
	return fmt.Sprintf("parcels:%.5f:%.5f", p.Lat, p.Lon)
}

func (s *PolygonService) fetch(ctx context.Context, point domain.GeoPoint) ([]domain.Polygon, error) {
	key := cacheKey(point)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var polygons []domain.Polygon
			if err := json.Unmarshal(data, &polygons); err == nil {
				metrics.CacheHits.WithLabelValues("parcels").Inc()
				return polygons, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("parcels").Inc()
	}

	start := time.Now()
	polygons, err := s.provider.FetchPolygons(ctx, point.Lat, point.Lon)
	metrics.ParcelFetchDuration.WithLabelValues(s.opts.Source).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if data, err := json.Marshal(polygons); err == nil {
			_ = s.cache.Set(ctx, key, data, int(s.opts.CacheTTL.Seconds()))
		}
	}
	return polygons, nil
}

func (s *PolygonService) notify(ctx context.Context, n domain.Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notice not delivered", "kind", n.Kind, "error", err)
	}
}
