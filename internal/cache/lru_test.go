// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRU_GetAdd(t *testing.T) {
	c := NewLRU[int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 10)

	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Errorf("Get(a) = %d, %v; want 10, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) found a value")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 2 {
		t.Errorf("Stats = %d/%d/%d", hits, misses, size)
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string](3, time.Minute)
	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Add("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s evicted", k)
		}
	}
}

func TestLRU_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Minute).WithClock(clock.Now)
	c.Add("a", 1)
	c.Add("b", 2)

	clock.advance(30 * time.Second)
	c.Add("b", 3)
	clock.advance(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("a did not expire")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Errorf("Get(b) = %d, %v; refreshed entry should live", v, ok)
	}

	clock.advance(time.Hour)
	if n := c.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired = %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after cleanup", c.Len())
	}
}

func TestLRU_Seen(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[struct{}](10, time.Minute).WithClock(clock.Now)

	if c.Seen("Game|g1|3") {
		t.Error("first sighting reported as duplicate")
	}
	if !c.Seen("Game|g1|3") {
		t.Error("second sighting not reported")
	}
	if c.Seen("Game|g1|4") {
		t.Error("new version reported as duplicate")
	}

	clock.advance(2 * time.Minute)
	if c.Seen("Game|g1|3") {
		t.Error("expired key reported as duplicate")
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](100, time.Minute)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (w*500+i)%150)
				c.Add(key, i)
				c.Get(key)
				c.Seen(key)
			}
		}(w)
	}
	wg.Wait()
	if c.Len() > 100 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}

func TestLRU_Remove(t *testing.T) {
	c := NewLRU[int](0, 0)
	c.Add("a", 1)
	if !c.Remove("a") || c.Remove("a") {
		t.Error("Remove should report presence exactly once")
	}
}
