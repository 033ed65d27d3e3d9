package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

const lotsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "lot-1", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.4205, 37.7735], [-122.4175, 37.7735], [-122.4175, 37.7765], [-122.4205, 37.7765], [-122.4205, 37.7735]]]}},
    {"type": "Feature", "id": "lot-2", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.4205, 37.777], [-122.4175, 37.777], [-122.4175, 37.779], [-122.4205, 37.779], [-122.4205, 37.777]]]}}
  ]
}`

func writeLots(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lots.geojson")
	require.NoError(t, os.WriteFile(path, []byte(lotsGeoJSON), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Keep config loading away from any real backend.
	t.Setenv("PLOTFIT_OVERLAY_STORAGE", "memory")
	t.Setenv("PLOTFIT_PARCELS_PROVIDER", "file")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_Accepted(t *testing.T) {
	out, err := run(t, "validate", "--bounds", "37.774,-122.42,37.776,-122.418", "--parcels", writeLots(t))
	require.NoError(t, err)

	var res struct {
		BBox     string         `json:"bbox"`
		Polygons int            `json:"polygons"`
		Verdict  domain.Verdict `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Verdict.Valid)
	assert.Equal(t, 2, res.Polygons)
	assert.Equal(t, "-122.42,37.774,-122.418,37.776", res.BBox)
}

func TestValidate_Rejected(t *testing.T) {
	for _, fullScan := range []bool{false, true} {
		args := []string{"validate", "--bounds", "37.776,-122.42,37.778,-122.418", "--parcels", writeLots(t)}
		if fullScan {
			args = append(args, "--full-scan")
		}
		out, err := run(t, args...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errRejected))

		var res struct {
			Verdict domain.Verdict `json:"verdict"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, domain.ReasonCrossesBorder, res.Verdict.Reason)
		assert.Equal(t, "lot-1", res.Verdict.PolygonID)
	}
}

func TestValidate_BadBounds(t *testing.T) {
	_, err := run(t, "validate", "--bounds", "1,2,3", "--parcels", writeLots(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 4")
}

func TestRemap(t *testing.T) {
	out, err := run(t, "remap",
		"--bounds", "0,0,1,2",
		"--rect", "0,0,200,100",
		"--center", "10,20")
	require.NoError(t, err)

	var res struct {
		Bounds domain.OverlayBounds `json:"bounds"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 9.5, res.Bounds.South(), 1e-12)
	assert.InDelta(t, 19, res.Bounds.West(), 1e-12)
	assert.InDelta(t, 10.5, res.Bounds.North(), 1e-12)
	assert.InDelta(t, 21, res.Bounds.East(), 1e-12)
}

func TestRemap_Degenerate(t *testing.T) {
	_, err := run(t, "remap", "--bounds", "0,0,1,2", "--rect", "0,0,0,100", "--center", "10,20")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDegenerateGeometry))
}

func TestFetch_FromFile(t *testing.T) {
	out, err := run(t, "fetch", "--parcels", writeLots(t), "--lat", "37.775", "--lon", "-122.419")
	require.NoError(t, err)

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
}

func TestBounds_MemoryStorageRejected(t *testing.T) {
	_, err := run(t, "bounds", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be reached")
}

func TestParseHelpers(t *testing.T) {
	b, err := parseBounds(" 1, 2 ,3,4")
	require.NoError(t, err)
	assert.Equal(t, domain.MustBounds(1, 2, 3, 4), b)

	_, err = parseBounds("3,4,1,2")
	assert.True(t, errors.Is(err, domain.ErrInvalidBounds))

	r, err := parseRect("1,2,3,4")
	require.NoError(t, err)
	assert.Equal(t, domain.PixelRect{Left: 1, Top: 2, Width: 3, Height: 4}, r)

	_, err = parsePoint("x,1")
	assert.Error(t, err)
}

func TestFetch_ProviderFlag(t *testing.T) {
	t.Setenv("PLOTFIT_PARCELS_FILE", writeLots(t))
	out, err := run(t, "fetch", "--provider", "file", "--lat", "37.775", "--lon", "-122.419")
	require.NoError(t, err)

	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Len(t, fc.Features, 2)
}

func TestFetch_UnknownProvider(t *testing.T) {
	_, err := run(t, "fetch", "--provider", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "bogus"`)
}
