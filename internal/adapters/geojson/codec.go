// Package geojsonadapter converts between GeoJSON parcel data and domain
// polygons. GeoJSON positions are (lon, lat); domain points are (lat, lon).
package geojsonadapter

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// idProperties are tried in order when a feature has no top-level id.
var idProperties = []string{"ll_uuid", "id", "parcelnumb"}

// DecodeFeatureCollection returns one polygon per Polygon feature and one
// per outer ring of a MultiPolygon feature. Other geometry types and rings
// with fewer than three vertices are skipped. Holes are ignored.
func DecodeFeatureCollection(data []byte) ([]domain.Polygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %v: %w", err, domain.ErrProviderFailure)
	}
	return FromFeatures(fc.Features)
}

// FromFeatures converts already-decoded features. An empty slice is a valid
// empty result, but features of which not one yields a polygon are reported
// as ErrProviderFailure so callers keep their previous data.
func FromFeatures(features []*geojson.Feature) ([]domain.Polygon, error) {
	var out []domain.Polygon
	for i, f := range features {
		if f == nil {
			continue
		}
		out = append(out, FromGeometry(featureID(f, i), f.Geometry)...)
	}
	if len(features) > 0 && len(out) == 0 {
		return nil, fmt.Errorf("none of %d features is a usable parcel polygon: %w", len(features), domain.ErrProviderFailure)
	}
	return out, nil
}

// FromGeometry converts a Polygon or MultiPolygon. Parts of a multi-part
// geometry after the first get the id suffix "/n".
func FromGeometry(id string, g orb.Geometry) []domain.Polygon {
	var rings []orb.Ring
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			rings = append(rings, g[0])
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if len(p) > 0 {
				rings = append(rings, p[0])
			}
		}
	default:
		return nil
	}

	var out []domain.Polygon
	for n, ring := range rings {
		pid := id
		if n > 0 {
			pid = id + "/" + strconv.Itoa(n)
		}
		vs := make([]domain.GeoPoint, len(ring))
		for i, p := range ring {
			vs[i] = domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
		}
		poly, err := domain.NewPolygon(pid, vs)
		if err != nil {
			continue
		}
		out = append(out, poly)
	}
	return out
}

// ToGeometry returns p as a closed GeoJSON-order polygon.
func ToGeometry(p domain.Polygon) orb.Polygon {
	ring := make(orb.Ring, 0, len(p.Vertices)+1)
	for _, v := range p.Vertices {
		ring = append(ring, orb.Point{v.Lon, v.Lat})
	}
	if len(p.Vertices) > 0 {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// EncodeFeatureCollection is the inverse of DecodeFeatureCollection. The
// collection carries a bbox covering every polygon.
func EncodeFeatureCollection(polygons []domain.Polygon) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	var bound orb.Bound
	for i, p := range polygons {
		g := ToGeometry(p)
		f := geojson.NewFeature(g)
		f.ID = p.ID
		f.Properties["id"] = p.ID
		fc.Append(f)

		if i == 0 {
			bound = g.Bound()
		} else {
			bound = bound.Union(g.Bound())
		}
	}
	if len(polygons) > 0 {
		fc.BBox = geojson.NewBBox(bound)
	}
	return fc.MarshalJSON()
}

// EncodeGeometry returns the GeoJSON geometry object of p.
func EncodeGeometry(p domain.Polygon) ([]byte, error) {
	return geojson.NewGeometry(ToGeometry(p)).MarshalJSON()
}

// DecodeGeometry parses a GeoJSON geometry object such as the output of
// PostGIS ST_AsGeoJSON.
func DecodeGeometry(id string, data []byte) ([]domain.Polygon, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("decode geometry %s: %w", id, err)
	}
	return FromGeometry(id, g.Geometry()), nil
}

func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		switch id := f.ID.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		default:
			return fmt.Sprint(id)
		}
	}
	for _, key := range idProperties {
		if v, ok := f.Properties[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return strconv.Itoa(index)
}
