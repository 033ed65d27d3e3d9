package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// parseFloats splits a comma-separated list of exactly n numbers.
func parseFloats(s string, n int, what string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%s: want %d comma-separated numbers, got %q", what, n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		out[i] = f
	}
	return out, nil
}

// parseBounds reads "swLat,swLon,neLat,neLon".
func parseBounds(s string) (domain.OverlayBounds, error) {
	v, err := parseFloats(s, 4, "bounds")
	if err != nil {
		return domain.OverlayBounds{}, err
	}
	return domain.NewOverlayBounds(domain.GeoPoint{Lat: v[0], Lon: v[1]}, domain.GeoPoint{Lat: v[2], Lon: v[3]})
}

// parseRect reads "left,top,width,height".
func parseRect(s string) (domain.PixelRect, error) {
	v, err := parseFloats(s, 4, "rect")
	if err != nil {
		return domain.PixelRect{}, err
	}
	return domain.PixelRect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}, nil
}

// parsePoint reads "lat,lon".
func parsePoint(s string) (domain.GeoPoint, error) {
	v, err := parseFloats(s, 2, "point")
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: v[0], Lon: v[1]}, nil
}
