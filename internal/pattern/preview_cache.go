// internal/pattern/preview_cache.go
package pattern

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

// PreviewCache memoizes Preview by (pattern, duration, concurrency) so
// repeated status polling during a running test's ramp-up doesn't
// recompute the sampled curve (up to 100 points for durations of at
// most 300s) on every poll. Bounded LRU
// eviction, adapted from vaultaire's internal/cache.LRU container/list
// shape but keyed on pattern parameters instead of container/artifact.
type PreviewCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List

	hits   int64
	misses int64
}

type previewEntry struct {
	key    string
	points []PreviewPoint
}

// NewPreviewCache creates a cache holding up to capacity entries.
func NewPreviewCache(capacity int) *PreviewCache {
	if capacity < 1 {
		capacity = 1
	}
	return &PreviewCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func previewKey(p *loadmodel.Pattern, durationSeconds, n int) string {
	if p == nil {
		return fmt.Sprintf("nil|%d|%d", durationSeconds, n)
	}
	return fmt.Sprintf("%s|%d|%d|%d|%d|%d|%d",
		p.Type, p.TargetRPS, p.RampUpSeconds, p.SpikeConcurrency, p.SpikeDurationSeconds,
		durationSeconds, n)
}

// Get returns the cached preview for the given parameters, computing
// and storing it on a miss.
func (c *PreviewCache) Get(p *loadmodel.Pattern, durationSeconds, n int) []PreviewPoint {
	key := previewKey(p, durationSeconds, n)

	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		points := elem.Value.(*previewEntry).points
		c.mu.Unlock()
		return points
	}
	c.misses++
	c.mu.Unlock()

	points := Preview(p, durationSeconds, n)

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*previewEntry).points
	}
	elem := c.order.PushFront(&previewEntry{key: key, points: points})
	c.items[key] = elem
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*previewEntry).key)
		}
	}
	return points
}

// Stats returns hit/miss counters for diagnostics.
func (c *PreviewCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
