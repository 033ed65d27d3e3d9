package domain

import "errors"

var (
	// ErrDegenerateGeometry means a pixel rectangle has no area, so no
	// per-pixel scale exists.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrInvalidBounds means a rectangle is inverted or not finite.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrTooFewVertices means a ring has fewer than three vertices.
	ErrTooFewVertices = errors.New("polygon needs at least 3 vertices")

	// ErrBoundsNotFound means nothing has been persisted yet.
	ErrBoundsNotFound = errors.New("bounds not found")

	// ErrStorageCorruption means persisted bounds could not be parsed.
	ErrStorageCorruption = errors.New("stored bounds corrupted")

	// ErrProviderFailure means the polygon fetch failed or returned
	// malformed data.
	ErrProviderFailure = errors.New("polygon provider failure")
)
