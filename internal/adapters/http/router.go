package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/plotfit/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Request-scoped logger (request ID + overlay)
	app.Use(RequestLoggerMiddleware(deps.Controller.OverlayID()))

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP. Pointer events arrive
	// at gesture rate and are exempt.
	app.Use(limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/v1/overlay/events"
		},
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Legacy routes carry Deprecation/Sunset headers
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1: 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/overlay", GetOverlayHandler(deps))
	v1.Post("/overlay/validate", timeout.NewWithContext(ValidateHandler(deps), 15*time.Second))
	v1.Post("/overlay/place", timeout.NewWithContext(PlaceHandler(deps), 15*time.Second))
	v1.Post("/overlay/events", timeout.NewWithContext(PointerEventHandler(deps), 15*time.Second))
	v1.Get("/viewport", GetViewportHandler(deps))
	v1.Put("/viewport", PutViewportHandler(deps))
	v1.Put("/reference", PutReferenceHandler(deps))
	v1.Get("/parcels", timeout.NewWithContext(ListParcelsHandler(deps), 15*time.Second))
	v1.Get("/parcels.geojson", timeout.NewWithContext(ParcelsGeoJSONHandler(deps), 15*time.Second))
	v1.Get("/parcels/:id", timeout.NewWithContext(GetParcelHandler(deps), 15*time.Second))

	// Deprecated: use /v1/overlay
	v1.Get("/bounds", LegacyBoundsHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.OpenAPIPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	if deps.NATS == nil {
		app.Get("/ws", func(c *fiber.Ctx) error {
			return errUnavailable(c, "realtime relay requires NATS")
		})
		return
	}
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS, deps.Controller.OverlayID())))
}
