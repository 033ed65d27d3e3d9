// Package memory holds in-process adapters for single-node runs and the CLI.
package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/plotfit/internal/core/domain"
)

// BoundsStore implements ports.BoundsStore in memory.
type BoundsStore struct {
	mu     sync.RWMutex
	bounds *domain.OverlayBounds
}

// NewBoundsStore creates an empty store.
func NewBoundsStore() *BoundsStore {
	return &BoundsStore{}
}

func (s *BoundsStore) Load(ctx context.Context) (domain.OverlayBounds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bounds == nil {
		return domain.OverlayBounds{}, domain.ErrBoundsNotFound
	}
	return *s.bounds, nil
}

func (s *BoundsStore) Save(ctx context.Context, b domain.OverlayBounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = &b
	return nil
}
