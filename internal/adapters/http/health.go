package http

import (
	"context"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/plotfit/internal/pkg/metrics"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "healthy",
			"uptime":     time.Since(startedAt).String(),
			"version":    "dev",
			"overlay_id": deps.Controller.OverlayID(),
		})
	}
}

// backendCheck probes one optional backend. A nil probe means the backend
// is not configured, which does not fail readiness.
type backendCheck struct {
	name  string
	probe func(ctx context.Context) error
}

func backendChecks(deps *Dependencies) []backendCheck {
	checks := []backendCheck{{name: "database"}, {name: "nats"}, {name: "cache"}}
	if deps.DB != nil {
		checks[0].probe = func(ctx context.Context) error {
			metrics.UpdateDBPoolMetrics(deps.DB.Pool.Stat())
			return deps.DB.Ping(ctx)
		}
	}
	if deps.NATS != nil {
		checks[1].probe = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	if deps.Cache != nil {
		checks[2].probe = deps.Cache.Ping
	}
	return checks
}

type readinessError string

func (e readinessError) Error() string { return string(e) }

const errDisconnected = readinessError("disconnected")

// ReadyHandler probes the configured backends and describes the parcel set
// containment currently runs against. An empty set is reported but is not
// a failure: containment is then disabled rather than broken.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true
		for _, chk := range backendChecks(deps) {
			if chk.probe == nil {
				checks[chk.name] = "not configured"
				continue
			}
			if err := chk.probe(ctx); err != nil {
				checks[chk.name] = "error: " + err.Error()
				allOK = false
				continue
			}
			checks[chk.name] = "ok"
		}

		body := fiber.Map{"checks": checks, "parcels": 0}
		if deps.Polygons != nil {
			set := deps.Polygons.Current()
			body["parcels"] = set.Len()
			if set.Len() == 0 {
				checks["parcels"] = "empty (containment disabled)"
			} else {
				checks["parcels"] = "ok"
			}
			if !set.FetchedAt().IsZero() {
				body["reference"] = set.Reference()
				body["parcels_age_seconds"] = math.Round(time.Since(set.FetchedAt()).Seconds())
			}
		}
		if deps.DB != nil && deps.DB.PostGISVersion != "" {
			body["postgis"] = deps.DB.PostGISVersion
		}

		body["status"] = "ready"
		code := fiber.StatusOK
		if !allOK {
			body["status"] = "not ready"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(body)
	}
}
