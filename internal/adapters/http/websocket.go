package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/plotfit/internal/adapters/nats"
	"github.com/samirrijal/plotfit/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Overlay string `json:"overlay"` // overlay id filter (optional, "" = this service's overlay)
	Channel string `json:"channel"` // "overlay" | "notices" | "placements" (default: overlay)
}

// channelSubject maps a client channel to a NATS subject. An overlay id of
// "*" selects every overlay.
func channelSubject(channel, overlayID string) (string, bool) {
	switch channel {
	case "", "overlay":
		if overlayID == "*" {
			return natsadapter.RenderSubjects, true
		}
		return natsadapter.RenderSubject(overlayID), true
	case "placements":
		if overlayID == "*" {
			return natsadapter.PlacementSubjects, true
		}
		return natsadapter.PlacementSubject(overlayID), true
	case "notices":
		return natsadapter.NoticeSubject, true
	}
	return "", false
}

// subscription is the part of *nats.Subscription the relay needs.
type subscription interface {
	Unsubscribe() error
}

// subscribeAll subscribes to every subject. If one fails, the ones already
// made are unsubscribed before the error is returned.
func subscribeAll(subscribe func(subject string) (subscription, error), subjects []string) (map[string]subscription, error) {
	subs := make(map[string]subscription, len(subjects))
	for _, subject := range subjects {
		sub, err := subscribe(subject)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs[subject] = sub
	}
	return subs, nil
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// render instructions, notices and placement events to the browser map.
// Clients send JSON: {"action":"subscribe","channel":"placements"}.
// Every connection starts subscribed to the overlay and notice channels.
func WebSocketHandler(nc *nats.Conn, overlayID string) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("component", "ws", "remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}
		subscribe := func(subject string) (subscription, error) {
			s, err := nc.Subscribe(subject, relay)
			if err != nil {
				return nil, err
			}
			return s, nil
		}

		// subject -> subscription
		subs, err := subscribeAll(subscribe, []string{natsadapter.RenderSubject(overlayID), natsadapter.NoticeSubject})
		if err != nil {
			log.Error("ws default subscribe", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			target := m.Overlay
			if target == "" {
				target = overlayID
			}
			subject, ok := channelSubject(m.Channel, target)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := subscribe(subject)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
