package cache

import (
	"context"
	"testing"
	"time"

	"github.com/receiptly/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(1 * time.Minute)
	ctx := context.Background()

	result := &domain.MatchResult{
		ProductID:         42,
		Confidence:        0.91,
		MatchMethod:       domain.MethodFuzzy,
		UoMID:             7,
		ConvertedQuantity: 3,
		UoMMethod:         domain.UoMLiteral,
	}

	if err := cache.Set(ctx, "line:abc", result); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cache.Get(ctx, "line:abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ProductID != 42 || got.Confidence != 0.91 {
		t.Errorf("Get() = %+v, want stored result", got)
	}

	// Returned value is a copy; mutating it must not touch the cache.
	got.ProductID = 99
	again, err := cache.Get(ctx, "line:abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.ProductID != 42 {
		t.Errorf("cached result mutated through returned pointer")
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache(1 * time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "non-existent-key")
	if err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(1 * time.Millisecond)
	ctx := context.Background()

	if err := cache.Set(ctx, "short-lived", &domain.MatchResult{ProductID: 1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	_, err := cache.Get(ctx, "short-lived")
	if err != domain.ErrCacheMiss {
		t.Errorf("Get() after expiration error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_NilResult(t *testing.T) {
	cache := NewMemoryCache(1 * time.Minute)
	ctx := context.Background()

	if err := cache.Set(ctx, "nil-result", nil); err != nil {
		t.Fatalf("Set(nil) error = %v", err)
	}
	if _, err := cache.Get(ctx, "nil-result"); err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_SizeAndClear(t *testing.T) {
	cache := NewMemoryCache(1 * time.Minute)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, key, &domain.MatchResult{ProductID: 1}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if cache.Size() != 3 {
		t.Errorf("Size() = %d, want 3", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear() = %d, want 0", cache.Size())
	}
}
