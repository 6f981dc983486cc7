package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missing")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("Get(%s) missing", k)
		}
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute, WithClock(clk.now))
	c.Set("view:overview", "x")
	c.Set("view:loans", "y")

	clk.t = clk.t.Add(30 * time.Second)
	if v, ok := c.Get("view:overview"); !ok || v != "x" {
		t.Fatalf("Get() = %q, %v before ttl", v, ok)
	}

	clk.t = clk.t.Add(time.Minute)
	if _, ok := c.Get("view:overview"); ok {
		t.Error("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, 0)
	c.Set("net_values:2024-01", 1)
	c.Set("net_values:2024-02", 2)
	c.Set("overview", 3)

	if n := c.DeletePrefix("net_values:"); n != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", n)
	}
	if _, ok := c.Get("overview"); !ok {
		t.Error("unrelated key removed")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() after Purge = %d", c.Size())
	}
}

func TestLRUCache_SetIfUnchanged(t *testing.T) {
	c := NewLRUCache[string](10, 0)

	epoch := c.Epoch()
	if !c.SetIfUnchanged("expenses:all", "fresh", epoch) {
		t.Fatal("SetIfUnchanged() = false with no invalidation in between")
	}

	epoch = c.Epoch()
	c.DeletePrefix("expenses:")
	if c.SetIfUnchanged("expenses:all", "stale", epoch) {
		t.Error("SetIfUnchanged() = true after DeletePrefix")
	}
	if _, ok := c.Get("expenses:all"); ok {
		t.Error("stale value stored after invalidation")
	}

	epoch = c.Epoch()
	c.Delete("overview:2024-05")
	if c.SetIfUnchanged("overview:2024-05", "stale", epoch) {
		t.Error("SetIfUnchanged() = true after Delete")
	}
}

func TestManager_Sweep(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	a := NewLRUCache[int](10, time.Second, WithClock(clk.now))
	b := NewLRUCache[int](10, time.Hour, WithClock(clk.now))
	a.Set("k", 1)
	b.Set("k", 1)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)

	clk.t = clk.t.Add(time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}

	m.Start(context.Background(), time.Millisecond)
	m.Stop()
}
