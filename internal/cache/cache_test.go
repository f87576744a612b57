package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	_, err := c.Get(context.Background(), "missing")
	if err != ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "key"); err != ErrCacheMiss {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("value"), 0)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if has, _ := c.Has(ctx, "key"); has {
		t.Error("Has() = true after Delete()")
	}
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("abc"), 0)

	got, _ := c.Get(ctx, "key")
	got[0] = 'X'

	again, _ := c.Get(ctx, "key")
	if string(again) != "abc" {
		t.Errorf("cached value mutated through returned slice: %q", again)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	c.Close()

	if _, err := c.Get(context.Background(), "key"); err != ErrCacheClosed {
		t.Errorf("Get() after Close() error = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(context.Background(), "key", nil, 0); err != ErrCacheClosed {
		t.Errorf("Set() after Close() error = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "sidebar:a", []byte("1"), 0)
	_ = c.Set(ctx, "sidebar:b", []byte("2"), 0)
	_ = c.Set(ctx, "other", []byte("3"), 0)

	if err := c.DeleteByPrefix(ctx, "sidebar:"); err != nil {
		t.Fatalf("DeleteByPrefix() error = %v", err)
	}

	if has, _ := c.Has(ctx, "sidebar:a"); has {
		t.Error("sidebar:a still present after DeleteByPrefix")
	}
	if has, _ := c.Has(ctx, "other"); !has {
		t.Error("other was removed by DeleteByPrefix")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("value"), 0)
	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "missing")

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
	if stats.HitRate != 50 {
		t.Errorf("HitRate = %f, want 50", stats.HitRate)
	}
}

func TestTypedCache_RoundTrip(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	c := NewTypedCache[payload](backend, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "p", &payload{Name: "golang", Count: 3}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := c.Get(ctx, "p")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.Name != "golang" || got.Count != 3 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	c := NewTypedCache[int](backend, time.Minute)
	ctx := context.Background()

	calls := 0
	loader := func() (*int, error) {
		calls++
		v := 42
		return &v, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrSet(ctx, "answer", loader)
		if err != nil {
			t.Fatalf("GetOrSet() error = %v", err)
		}
		if *got != 42 {
			t.Errorf("GetOrSet() = %d, want 42", *got)
		}
	}

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New() returned %T, want *MemoryCache", c)
	}
}
