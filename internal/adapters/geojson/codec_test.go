package geojsonadapter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/core/domain"
)

const parcels = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "p-1",
      "properties": {},
      "geometry": {"type": "Polygon", "coordinates": [[[-96.797, 32.776], [-96.796, 32.776], [-96.796, 32.777], [-96.797, 32.777], [-96.797, 32.776]]]}
    },
    {
      "type": "Feature",
      "properties": {"ll_uuid": "uuid-2"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[0, 0], [1, 0], [1, 1], [0, 0]]],
        [[[5, 5], [6, 5], [6, 6], [5, 5]], [[5.1, 5.1], [5.2, 5.1], [5.2, 5.2], [5.1, 5.1]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"name": "road"},
      "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "Polygon", "coordinates": [[[10, 10], [11, 10], [10, 10]]]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "Polygon", "coordinates": [[[20, 20], [21, 20], [21, 21]]]}
    }
  ]
}`

func TestDecodeFeatureCollection(t *testing.T) {
	polys, err := geojsonadapter.DecodeFeatureCollection([]byte(parcels))
	require.NoError(t, err)
	require.Len(t, polys, 4)

	require.Equal(t, "p-1", polys[0].ID)
	require.Len(t, polys[0].Vertices, 4, "closing vertex dropped")
	require.Equal(t, domain.GeoPoint{Lat: 32.776, Lon: -96.797}, polys[0].Vertices[0])

	require.Equal(t, "uuid-2", polys[1].ID)
	require.Equal(t, "uuid-2/1", polys[2].ID)
	require.Len(t, polys[2].Vertices, 3, "holes ignored")
	require.Equal(t, domain.GeoPoint{Lat: 5, Lon: 5}, polys[2].Vertices[0])

	require.Equal(t, "4", polys[3].ID, "index fallback")
}

func TestDecodeFeatureCollection_Malformed(t *testing.T) {
	_, err := geojsonadapter.DecodeFeatureCollection([]byte(`{"type": "FeatureCollection", "features": [`))
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrProviderFailure))
}

func TestDecodeFeatureCollection_Empty(t *testing.T) {
	polys, err := geojsonadapter.DecodeFeatureCollection([]byte(`{"type": "FeatureCollection", "features": []}`))
	require.NoError(t, err)
	require.Empty(t, polys)
}

func TestEncodeFeatureCollection(t *testing.T) {
	in, err := geojsonadapter.DecodeFeatureCollection([]byte(parcels))
	require.NoError(t, err)

	data, err := geojsonadapter.EncodeFeatureCollection(in)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, len(in))
	require.Equal(t, geojson.BBox{-96.797, 0, 21, 32.777}, fc.BBox)

	out, err := geojsonadapter.DecodeFeatureCollection(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestGeometryRoundTrip(t *testing.T) {
	p, err := domain.NewPolygon("g", []domain.GeoPoint{{Lat: 1, Lon: 2}, {Lat: 1, Lon: 3}, {Lat: 2, Lon: 3}})
	require.NoError(t, err)

	data, err := geojsonadapter.EncodeGeometry(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"Polygon","coordinates":[[[2,1],[3,1],[3,2],[2,1]]]}`, string(data))

	back, err := geojsonadapter.DecodeGeometry("g", data)
	require.NoError(t, err)
	require.Equal(t, []domain.Polygon{p}, back)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcels.geojson")
	require.NoError(t, os.WriteFile(path, []byte(parcels), 0o644))

	all, err := geojsonadapter.NewFileProvider(path, 0).FetchPolygons(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)

	near, err := geojsonadapter.NewFileProvider(path, 500).FetchPolygons(context.Background(), 32.7765, -96.7965)
	require.NoError(t, err)
	require.Len(t, near, 1)
	require.Equal(t, "p-1", near[0].ID)

	_, err = geojsonadapter.NewFileProvider(filepath.Join(t.TempDir(), "missing.geojson"), 0).FetchPolygons(context.Background(), 0, 0)
	require.Error(t, err)
}

func TestDecodeFeatureCollection_NoUsablePolygons(t *testing.T) {
	data := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 1]]]}},
		{"type": "Feature", "properties": {}, "geometry": null}
	]}`
	polys, err := geojsonadapter.DecodeFeatureCollection([]byte(data))
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrProviderFailure))
	require.Nil(t, polys)
}
