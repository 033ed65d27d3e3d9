package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanParcelsRefresh = "parcels.refresh"
	SpanOverlayPlace   = "overlay.place"
)

// Span attribute keys.
const (
	AttrParcelsLat    = attribute.Key("parcels.lat")
	AttrParcelsLon    = attribute.Key("parcels.lon")
	AttrParcelsSource = attribute.Key("parcels.source")
	AttrParcelsCount  = attribute.Key("parcels.count")

	AttrOverlayID        = attribute.Key("overlay.id")
	AttrOverlayCandidate = attribute.Key("overlay.candidate")
	AttrOverlayValid     = attribute.Key("overlay.valid")
	AttrOverlayReason    = attribute.Key("overlay.reason")
)
