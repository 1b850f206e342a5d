package features

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/clever-tipster/internal/metrics"
)

// SignalCache provides in-memory caching for market signals keyed by
// match id and odds history
type SignalCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewSignalCache creates a new signal cache
func NewSignalCache(ttl time.Duration, maxSize int) *SignalCache {
	return &SignalCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Key builds the cache key for a match and its odds history
func Key(matchID string, history []float64) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range history {
		bits := math.Float64bits(v)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%s:%d:%x", matchID, len(history), h.Sum64())
}

// Get retrieves cached signals
func (sc *SignalCache) Get(key string) (Signals, bool) {
	if v, found := sc.cache.Get(key); found {
		if s, ok := v.(Signals); ok {
			sc.hitCount.Add(1)
			sc.updateMetrics()
			return s, true
		}
	}
	sc.missCount.Add(1)
	sc.updateMetrics()
	return Signals{}, false
}

// Set stores signals in cache
func (sc *SignalCache) Set(key string, s Signals) {
	if sc.maxSize > 0 && sc.cache.ItemCount() >= sc.maxSize {
		// Remove expired items first
		sc.cache.DeleteExpired()
		if sc.cache.ItemCount() >= sc.maxSize {
			return
		}
	}
	sc.cache.Set(key, s, sc.ttl)
}

// Clear flushes the entire cache
func (sc *SignalCache) Clear() {
	sc.cache.Flush()
	sc.hitCount.Store(0)
	sc.missCount.Store(0)
}

// Stats returns cache statistics
func (sc *SignalCache) Stats() (hits, misses uint64, ratio float64) {
	hits = sc.hitCount.Load()
	misses = sc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (sc *SignalCache) ItemCount() int {
	return sc.cache.ItemCount()
}

func (sc *SignalCache) updateMetrics() {
	_, _, ratio := sc.Stats()
	metrics.SignalCacheHitRatio.Set(ratio)
}
