package domain

import "time"

// RejectionReason says why a placement was refused.
type RejectionReason string

const (
	ReasonTouchesBorder      RejectionReason = "touches border"
	ReasonCrossesBorder      RejectionReason = "crosses border"
	ReasonOutsideAllPolygons RejectionReason = "outside all polygons"
)

// Message is the sentence shown to the user.
func (r RejectionReason) Message() string {
	switch r {
	case ReasonTouchesBorder:
		return "Image cannot touch polygon border"
	case ReasonCrossesBorder:
		return "Image cannot intersect with polygon border"
	case ReasonOutsideAllPolygons:
		return "Image must lie inside a parcel"
	default:
		return "Not allowed"
	}
}

// Verdict is the result of validating a candidate placement. PolygonID and
// Edge locate the first violation; Edge is -1 when no edge is involved.
type Verdict struct {
	Valid     bool            `json:"valid"`
	Reason    RejectionReason `json:"reason,omitempty"`
	Message   string          `json:"message,omitempty"`
	PolygonID string          `json:"polygon_id,omitempty"`
	Edge      int             `json:"edge"`
}

// Accept is the verdict for a valid placement.
func Accept() Verdict {
	return Verdict{Valid: true, Edge: -1}
}

// Reject builds a rejection verdict.
func Reject(reason RejectionReason, polygonID string, edge int) Verdict {
	return Verdict{Reason: reason, Message: reason.Message(), PolygonID: polygonID, Edge: edge}
}

// PlacementOutcome classifies how a drag or placement ended.
type PlacementOutcome string

const (
	OutcomeCommitted PlacementOutcome = "committed"
	OutcomeRejected  PlacementOutcome = "rejected"
	OutcomeAborted   PlacementOutcome = "aborted"
)

// PlacementEvent records a finished placement attempt.
type PlacementEvent struct {
	Time      time.Time        `json:"time"`
	OverlayID string           `json:"overlay_id"`
	Outcome   PlacementOutcome `json:"outcome"`
	Bounds    OverlayBounds    `json:"bounds"`
	Candidate *OverlayBounds   `json:"candidate,omitempty"`
	Reason    RejectionReason  `json:"reason,omitempty"`
}

// OverlayView is what the map needs to draw the overlay.
type OverlayView struct {
	OverlayID string        `json:"overlay_id"`
	ImageURL  string        `json:"image_url"`
	Bounds    OverlayBounds `json:"bounds"`
	Rotation  float64       `json:"rotation"`
}

// NoticeKind groups user-facing notices.
type NoticeKind string

const (
	NoticeRejection NoticeKind = "rejection"
	NoticeNoParcels NoticeKind = "no_parcels"
)

// Notice is a message for the user, presented by the UI.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}
