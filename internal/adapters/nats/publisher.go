package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/plotfit/internal/core/domain"
)

// Subjects. Placements go through JetStream; render and notice messages
// are transient and use core NATS.
const (
	PlacementStream   = "OVERLAY_PLACEMENTS"
	PlacementSubjects = "overlay.placements.>"
	RenderSubjects    = "overlay.render.>"
	NoticeSubject     = "overlay.notices"
)

// PlacementSubject is the subject of placement events for one overlay.
func PlacementSubject(overlayID string) string { return "overlay.placements." + overlayID }

// RenderSubject is the subject of render messages for one overlay.
func RenderSubject(overlayID string) string { return "overlay.render." + overlayID }

// Publisher implements ports.EventPublisher, ports.OverlayRenderer and
// ports.Notifier using NATS.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      PlacementStream,
		Subjects:  []string{PlacementSubjects},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishPlacement records a finished placement attempt.
func (p *Publisher) PublishPlacement(ctx context.Context, event *domain.PlacementEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(PlacementSubject(event.OverlayID), data, nats.Context(ctx))
	return err
}

// RenderOverlay broadcasts the overlay view to connected map clients.
func (p *Publisher) RenderOverlay(ctx context.Context, view domain.OverlayView) error {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
		domain.OverlayView
	}{"overlay", view})
	if err != nil {
		return err
	}
	return p.conn.Publish(RenderSubject(view.OverlayID), data)
}

// Notify broadcasts a user notice.
func (p *Publisher) Notify(ctx context.Context, n domain.Notice) error {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
		domain.Notice
	}{"notice", n})
	if err != nil {
		return err
	}
	return p.conn.Publish(NoticeSubject, data)
}

// Conn exposes the underlying connection for readiness checks and relays.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn connects with unlimited reconnects; the publisher and subscriber
// both build on it.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
