package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danwib/tacwx/pkg/logger"
)

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(time.Minute, logger.NewNop())

	assert.Nil(t, cache.Get("31.71.01.1001"))

	snap := &Snapshot{RegionCode: "31.71.01.1001"}
	cache.Set("31.71.01.1001", snap)

	got := cache.Get("31.71.01.1001")
	assert.Same(t, snap, got)

	// Keys are independent
	assert.Nil(t, cache.Get("32.01.01.2001"))
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10*time.Millisecond, logger.NewNop())
	snap := &Snapshot{RegionCode: "x"}
	cache.Set("x", snap)

	assert.NotNil(t, cache.Get("x"))
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, cache.Get("x"), "expired entry must not be served")
	assert.Same(t, snap, cache.GetStale("x"), "stale entry stays available explicitly")
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(time.Minute, logger.NewNop())
	cache.Set("x", &Snapshot{RegionCode: "x"})
	cache.Invalidate("x")
	assert.Nil(t, cache.Get("x"))
	assert.Nil(t, cache.GetStale("x"))
}

func TestCacheStats(t *testing.T) {
	cache := NewCache(time.Minute, logger.NewNop())
	cache.Get("miss")
	cache.Set("x", &Snapshot{})
	cache.Get("x")

	stats := cache.Stats()
	assert.Equal(t, 1, stats["regions"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}
