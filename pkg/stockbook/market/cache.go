package market

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// CacheService decorates a Fetcher with a TTL+LRU cache.
type CacheService struct {
	next Fetcher
	ttl  time.Duration
	size int
	now  func() time.Time

	mu    sync.Mutex
	items map[string]cacheEntry
	order []string // oldest at index 0
}

type cacheEntry struct {
	at   time.Time
	snap *types.Snapshot
}

func NewCacheService(next Fetcher, ttl time.Duration, size int) *CacheService {
	if size <= 0 {
		size = 1
	}
	return &CacheService{next: next, ttl: ttl, size: size, now: time.Now, items: make(map[string]cacheEntry)}
}

func (c *CacheService) key(ticker string, period types.Period) string {
	return strings.ToUpper(strings.TrimSpace(ticker)) + "|" + string(period)
}

// Fetch serves a cached snapshot while it is fresh. Errors are not cached.
func (c *CacheService) Fetch(ctx context.Context, ticker string, period types.Period) (*types.Snapshot, error) {
	k := c.key(ticker, period)
	now := c.now()
	c.mu.Lock()
	if ent, ok := c.items[k]; ok {
		if now.Sub(ent.at) <= c.ttl {
			c.touchLocked(k)
			snap := ent.snap
			c.mu.Unlock()
			return snap, nil
		}
		delete(c.items, k)
		c.removeFromOrderLocked(k)
	}
	c.mu.Unlock()

	snap, err := c.next.Fetch(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if _, ok := c.items[k]; ok {
		c.removeFromOrderLocked(k)
	}
	c.items[k] = cacheEntry{at: now, snap: snap}
	c.order = append(c.order, k)
	for len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
	c.mu.Unlock()
	return snap, nil
}

// Len reports the number of cached snapshots.
func (c *CacheService) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *CacheService) touchLocked(k string) {
	c.removeFromOrderLocked(k)
	c.order = append(c.order, k)
}

func (c *CacheService) removeFromOrderLocked(k string) {
	for i, v := range c.order {
		if v == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
