package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/adapters/memory"
	natsadapter "github.com/samirrijal/plotfit/internal/adapters/nats"
	"github.com/samirrijal/plotfit/internal/adapters/postgres"
	"github.com/samirrijal/plotfit/internal/adapters/regrid"
	"github.com/samirrijal/plotfit/internal/adapters/valkey"
	"github.com/samirrijal/plotfit/internal/core/ports"
	"github.com/samirrijal/plotfit/internal/pkg/config"
)

// infra holds the optional backend connections. Nil fields are disabled
// or unreachable backends.
type infra struct {
	db    *postgres.DB
	cache *valkey.Cache
	pub   *natsadapter.Publisher
}

// connect opens the backends cfg asks for. Only the database is fatal, and
// only when a component needs it; cache and NATS degrade to warnings.
func connect(ctx context.Context, cfg *config.Config) (*infra, error) {
	in := &infra{}

	if cfg.UsesDatabase() {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		in.db = db
		slog.Info("database connected", "postgis", db.PostGISVersion)
	}

	if cfg.Valkey.Addr != "" {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			in.cache = cache
		}
	}

	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events will only be logged", "error", err)
		} else {
			in.pub = pub
		}
	}

	return in, nil
}

func (in *infra) Close() {
	if in.pub != nil {
		in.pub.Close()
	}
	if in.cache != nil {
		in.cache.Close()
	}
	if in.db != nil {
		in.db.Close()
	}
}

// cacheService returns the parcel cache, or a nil interface when disabled.
func (in *infra) cacheService() ports.CacheService {
	if in.cache == nil {
		return nil
	}
	return in.cache
}

func (in *infra) natsConn() *nats.Conn {
	if in.pub == nil {
		return nil
	}
	return in.pub.Conn()
}

// sinks returns where render instructions, notices and placement events
// go: NATS when connected, the log otherwise.
func (in *infra) sinks(logger *slog.Logger) (ports.OverlayRenderer, ports.Notifier, ports.EventPublisher) {
	if in.pub != nil {
		return in.pub, in.pub, in.pub
	}
	sink := memory.NewLogSink(logger)
	return sink, sink, sink
}

func buildProvider(cfg *config.Config, in *infra) (ports.PolygonProvider, error) {
	switch cfg.Parcels.Provider {
	case config.ProviderRegrid:
		return regrid.NewClient(cfg.Parcels.BaseURL, cfg.Parcels.Token, cfg.Parcels.Timeout), nil
	case config.ProviderPostGIS:
		if in.db == nil {
			return nil, fmt.Errorf("provider %q needs a database", cfg.Parcels.Provider)
		}
		return postgres.NewParcelRepo(in.db, cfg.Parcels.SearchRadiusM), nil
	case config.ProviderFile:
		return geojsonadapter.NewFileProvider(cfg.Parcels.File, cfg.Parcels.SearchRadiusM), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Parcels.Provider)
	}
}

func buildStore(cfg *config.Config, in *infra) (ports.BoundsStore, error) {
	switch cfg.Overlay.Storage {
	case config.StorageValkey:
		if in.cache == nil {
			slog.Warn("valkey unavailable, overlay bounds kept in memory only")
			return memory.NewBoundsStore(), nil
		}
		return valkey.NewBoundsStore(in.cache, cfg.Overlay.StorageKey), nil
	case config.StoragePostgres:
		if in.db == nil {
			return nil, fmt.Errorf("storage %q needs a database", cfg.Overlay.Storage)
		}
		return postgres.NewOverlayRepo(in.db, cfg.Overlay.ID), nil
	case config.StorageMemory:
		return memory.NewBoundsStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Overlay.Storage)
	}
}
