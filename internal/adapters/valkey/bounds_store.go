package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// DefaultBoundsKey is where overlay bounds live when no key is configured.
const DefaultBoundsKey = "overlay:bounds"

// BoundsStore implements ports.BoundsStore on top of a Cache. Bounds are
// kept without expiry in their [[swLat, swLon], [neLat, neLon]] form.
type BoundsStore struct {
	cache *Cache
	key   string
}

// NewBoundsStore creates a store writing to key.
func NewBoundsStore(cache *Cache, key string) *BoundsStore {
	if key == "" {
		key = DefaultBoundsKey
	}
	return &BoundsStore{cache: cache, key: key}
}

// Load returns the stored bounds.
func (s *BoundsStore) Load(ctx context.Context) (domain.OverlayBounds, error) {
	data, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if IsMiss(err) {
			return domain.OverlayBounds{}, domain.ErrBoundsNotFound
		}
		return domain.OverlayBounds{}, fmt.Errorf("valkey get %s: %w", s.key, err)
	}
	var b domain.OverlayBounds
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.OverlayBounds{}, fmt.Errorf("%s holds %q: %v: %w", s.key, data, err, domain.ErrStorageCorruption)
	}
	return b, nil
}

// Save replaces the stored bounds.
func (s *BoundsStore) Save(ctx context.Context, b domain.OverlayBounds) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("valkey set %s: %w", s.key, err)
	}
	return nil
}
