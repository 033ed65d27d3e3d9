package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/plotfit/internal/adapters/http"
	"github.com/samirrijal/plotfit/internal/adapters/mercator"
	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/usecases"
	"github.com/samirrijal/plotfit/internal/pkg/config"
	"github.com/samirrijal/plotfit/internal/pkg/logging"
	"github.com/samirrijal/plotfit/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("plotfit-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Backends: database, cache, NATS
	infra, err := connect(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer infra.Close()

	provider, err := buildProvider(cfg, infra)
	if err != nil {
		log.Fatalf("parcel provider: %v", err)
	}
	store, err := buildStore(cfg, infra)
	if err != nil {
		log.Fatalf("bounds store: %v", err)
	}
	renderer, notifier, publisher := infra.sinks(logger)

	// Use cases
	polygons := usecases.NewPolygonService(provider, infra.cacheService(), notifier, usecases.PolygonServiceOptions{
		Source:       cfg.Parcels.Provider,
		Tolerance:    cfg.Overlay.Tolerance,
		CacheTTL:     cfg.Parcels.CacheTTL,
		FetchTimeout: cfg.Parcels.Timeout,
		Logger:       logger,
	})

	surface, err := mercator.NewSurface(mercator.Viewport{
		Center: domain.GeoPoint{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon},
		Zoom:   cfg.Map.Zoom,
		Width:  cfg.Map.Width,
		Height: cfg.Map.Height,
	})
	if err != nil {
		log.Fatalf("map viewport: %v", err)
	}

	fallback, err := cfg.Overlay.Bounds()
	if err != nil {
		log.Fatalf("default bounds: %v", err)
	}
	initial := usecases.LoadInitialBounds(ctx, store, fallback, logger)

	validator := usecases.NewContainmentValidator(cfg.Overlay.Tolerance)
	ctrl := usecases.NewInteractionController(cfg.Overlay.ID, cfg.Overlay.ImageURL, initial, usecases.ControllerDeps{
		Validator: validator,
		Polygons:  polygons,
		Surface:   surface,
		Store:     store,
		Renderer:  renderer,
		Notifier:  notifier,
		Publisher: publisher,
		Logger:    logger,
	})
	ctrl.Render(ctx)
	polygons.RefreshAsync(cfg.Map.Reference())

	deps := &http.Dependencies{
		Controller: ctrl,
		Polygons:   polygons,
		Validator:  validator,
		Surface:    surface,
		NATS:       infra.natsConn(),
		DB:         infra.db,
		Cache:      infra.cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "PlotFit API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "overlay", cfg.Overlay.ID,
			"provider", cfg.Parcels.Provider, "storage", cfg.Overlay.Storage)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	polygons.Wait()

	slog.Info("server stopped")
}
