package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/usecases"
)

func TestLoadInitialBounds(t *testing.T) {
	stored := domain.MustBounds(37.7745, -122.4195, 37.7755, -122.4185)

	tests := []struct {
		name   string
		loadFn func(ctx context.Context) (domain.OverlayBounds, error)
		want   domain.OverlayBounds
	}{
		{"stored", func(ctx context.Context) (domain.OverlayBounds, error) { return stored, nil }, stored},
		{"absent", func(ctx context.Context) (domain.OverlayBounds, error) {
			return domain.OverlayBounds{}, domain.ErrBoundsNotFound
		}, usecases.DefaultBounds},
		{"corrupt", func(ctx context.Context) (domain.OverlayBounds, error) {
			return domain.OverlayBounds{}, fmt.Errorf("decode: %w", domain.ErrStorageCorruption)
		}, usecases.DefaultBounds},
		{"unreachable", func(ctx context.Context) (domain.OverlayBounds, error) {
			return domain.OverlayBounds{}, errors.New("dial tcp: connection refused")
		}, usecases.DefaultBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecases.LoadInitialBounds(context.Background(), &mockStore{loadFn: tt.loadFn}, usecases.DefaultBounds, nil)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLoadInitialBounds_NilStore(t *testing.T) {
	got := usecases.LoadInitialBounds(context.Background(), nil, usecases.DefaultBounds, nil)
	if got != usecases.DefaultBounds {
		t.Errorf("expected default bounds, got %v", got)
	}
}

func TestDefaultBounds(t *testing.T) {
	if got := usecases.DefaultBounds.BBoxString(); got != "-122.42,37.774,-122.418,37.776" {
		t.Errorf("unexpected default bbox %q", got)
	}
}
