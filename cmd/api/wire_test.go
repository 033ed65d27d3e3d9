package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/adapters/memory"
	"github.com/samirrijal/plotfit/internal/adapters/regrid"
	"github.com/samirrijal/plotfit/internal/pkg/config"
)

func TestBuildProvider(t *testing.T) {
	in := &infra{}

	cfg := &config.Config{}
	cfg.Parcels.Provider = config.ProviderRegrid
	p, err := buildProvider(cfg, in)
	require.NoError(t, err)
	assert.IsType(t, &regrid.Client{}, p)

	cfg.Parcels.Provider = config.ProviderFile
	cfg.Parcels.File = "parcels.geojson"
	p, err = buildProvider(cfg, in)
	require.NoError(t, err)
	assert.IsType(t, &geojsonadapter.FileProvider{}, p)

	cfg.Parcels.Provider = config.ProviderPostGIS
	_, err = buildProvider(cfg, in)
	assert.ErrorContains(t, err, "needs a database")

	cfg.Parcels.Provider = "carrier-pigeon"
	_, err = buildProvider(cfg, in)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestBuildStore(t *testing.T) {
	in := &infra{}
	cfg := &config.Config{}

	// Valkey without a reachable cache degrades to memory.
	cfg.Overlay.Storage = config.StorageValkey
	s, err := buildStore(cfg, in)
	require.NoError(t, err)
	assert.IsType(t, &memory.BoundsStore{}, s)

	cfg.Overlay.Storage = config.StoragePostgres
	_, err = buildStore(cfg, in)
	assert.ErrorContains(t, err, "needs a database")

	cfg.Overlay.Storage = "floppy"
	_, err = buildStore(cfg, in)
	assert.ErrorContains(t, err, "unknown storage")
}

func TestInfra_DisabledBackends(t *testing.T) {
	in := &infra{}
	assert.Nil(t, in.cacheService())
	assert.Nil(t, in.natsConn())

	r, n, p := in.sinks(slog.Default())
	assert.IsType(t, &memory.LogSink{}, r)
	assert.Same(t, r, n)
	assert.Same(t, r, p)
	in.Close()
}
