package memory

import (
	"context"
	"log/slog"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// LogSink implements ports.OverlayRenderer, ports.Notifier and
// ports.EventPublisher by logging. It stands in for NATS when none is
// configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger (slog.Default() when nil).
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "sink")}
}

func (s *LogSink) RenderOverlay(ctx context.Context, v domain.OverlayView) error {
	s.logger.Debug("render overlay", "overlay", v.OverlayID, "bbox", v.Bounds.BBoxString(), "rotation", v.Rotation)
	return nil
}

func (s *LogSink) Notify(ctx context.Context, n domain.Notice) error {
	s.logger.Info("notice", "kind", n.Kind, "message", n.Message)
	return nil
}

func (s *LogSink) PublishPlacement(ctx context.Context, ev *domain.PlacementEvent) error {
	s.logger.Info("placement", "overlay", ev.OverlayID, "outcome", ev.Outcome, "reason", ev.Reason, "bbox", ev.Bounds.BBoxString())
	return nil
}
