//go:build unit

package cache

import (
	"context"
	"testing"
	"time"

	"go-community-app/internal/config"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(config.CacheConfig{FilePath: ":memory:", TallyTTL: time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected 'v', got %q (err %v)", got, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := c.Get(ctx, "k"); got != nil {
		t.Errorf("expected miss after delete, got %q", got)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	now = now.Add(2 * time.Second)
	if got, _ := c.Get(ctx, "k"); got != nil {
		t.Errorf("expected expired entry to miss, got %q", got)
	}
}

func TestCache_JSON(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type tally struct{ Score int }
	if err := c.SetJSON(ctx, "t", tally{Score: 3}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var got tally
	hit, err := c.GetJSON(ctx, "t", &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Score != 3 {
		t.Errorf("expected score 3, got %d", got.Score)
	}
	if hit, _ := c.GetJSON(ctx, "missing", &got); hit {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Purge(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "old", []byte("1"), time.Second)
	_ = c.Set(ctx, "new", []byte("2"), time.Hour)
	now = now.Add(time.Minute)

	n, err := c.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged entry, got %d", n)
	}
}
