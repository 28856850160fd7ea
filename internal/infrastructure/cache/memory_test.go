package cache

import (
	"sort"
	"testing"
	"time"

	"github.com/shadematch/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{
			name:  "store and retrieve string",
			key:   "products:dm",
			value: "catalog",
		},
		{
			name: "store and retrieve slice",
			key:  "products:douglas",
			value: []domain.Product{
				{Code: "1221378", Type: "foundation"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Set(tt.key, tt.value)

			got, err := c.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if products, ok := tt.value.([]domain.Product); ok {
				gotProducts, ok := got.([]domain.Product)
				if !ok || len(gotProducts) != len(products) {
					t.Errorf("Get() = %v, want %v", got, tt.value)
				}
				return
			}
			if got != tt.value {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	_, err := c.Get("non-existent-key")
	if err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_ExpiryWithFakeClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(300 * time.Second).WithClock(func() time.Time { return now })

	c.Set("products:dm", "catalog")

	// Just inside the TTL.
	now = now.Add(299 * time.Second)
	if _, err := c.Get("products:dm"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	// At the TTL boundary the entry is logically absent.
	now = now.Add(1 * time.Second)
	if _, err := c.Get("products:dm"); err != domain.ErrCacheMiss {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_SetTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour).WithClock(func() time.Time { return now })

	c.Set("k", "v")
	now = now.Add(10 * time.Second)

	// Shrinking the TTL below the entry age expires it immediately.
	c.SetTTL(5 * time.Second)
	if _, err := c.Get("k"); err != domain.ErrCacheMiss {
		t.Errorf("Get() after TTL shrink error = %v, want ErrCacheMiss", err)
	}

	if c.TTL() != 5*time.Second {
		t.Errorf("TTL() = %v, want 5s", c.TTL())
	}

	// Non-positive TTL is ignored.
	c.SetTTL(0)
	if c.TTL() != 5*time.Second {
		t.Errorf("TTL() after SetTTL(0) = %v, want 5s", c.TTL())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	c.Set("delete-me", "value")
	if _, err := c.Get("delete-me"); err != nil {
		t.Fatalf("Get() before delete error = %v", err)
	}

	c.Delete("delete-me")
	if _, err := c.Get("delete-me"); err != domain.ErrCacheMiss {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_ClearAndInfo(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	keys := c.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear() = %d, want 0", c.Size())
	}
}

func TestNewMemoryCache_DefaultTTL(t *testing.T) {
	c := NewMemoryCache(0)
	if c.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", c.TTL(), DefaultTTL)
	}
}
