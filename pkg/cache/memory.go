package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/projmd/projmd/pkg/observability"
)

// Defaults for the in-memory cache.
const (
	// DefaultMaxItems is the capacity limit before LRU eviction kicks in.
	DefaultMaxItems = 100

	// DefaultSweepInterval is how often the background maintenance runs.
	DefaultSweepInterval = 15 * time.Minute
)

// memEntry wraps cached data with expiry and access metadata.
type memEntry struct {
	data     []byte
	expiry   time.Time // zero means no expiry
	accessed time.Time
}

// MemoryCache is an in-process cache with per-entry TTLs, last-access
// tracking, and a capacity bound.
//
// Expired entries are removed lazily on Get and proactively by the
// maintenance sweep. When the cache grows past its capacity, eviction runs
// in two phases: expired entries first, then least-recently-accessed entries
// until the cache is back at capacity.
//
// The maintenance sweep is not started implicitly: call [MemoryCache.Start]
// to begin periodic sweeps and [MemoryCache.Stop] (or Close) to end them.
// This keeps the lifecycle owned by the caller and tests isolated.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]memEntry
	maxItems int
	interval time.Duration

	stop chan struct{}
	done chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// MemoryOption customizes a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMaxItems overrides the capacity limit.
func WithMaxItems(n int) MemoryOption {
	return func(c *MemoryCache) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithSweepInterval overrides the maintenance sweep interval.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *MemoryCache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides the time source. Tests use this to simulate expiry
// without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates an in-memory cache with the given options.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries:  make(map[string]memEntry),
		maxItems: DefaultMaxItems,
		interval: DefaultSweepInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value by key. An expired entry is deleted and reported as
// a miss, so a stale value can never be read. A hit refreshes the entry's
// last-accessed time.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "memory")
		return nil, false, nil
	}

	now := c.now()
	if !e.expiry.IsZero() && now.After(e.expiry) {
		delete(c.entries, key)
		observability.Cache().OnCacheMiss(ctx, "memory")
		return nil, false, nil
	}

	e.accessed = now
	c.entries[key] = e
	observability.Cache().OnCacheHit(ctx, "memory")
	return e.data, true, nil
}

// Set stores a value, overwriting any existing entry and resetting its
// expiry and last-accessed time. If the cache is over capacity afterwards,
// maintenance runs immediately.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := memEntry{data: data, accessed: now}
	if ttl > 0 {
		e.expiry = now.Add(ttl)
	}
	c.entries[key] = e

	if len(c.entries) > c.maxItems {
		c.maintainLocked(ctx)
	}

	observability.Cache().OnCacheSet(ctx, "memory", len(data))
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memEntry)
}

// Len returns the number of entries currently stored, including entries that
// have expired but not yet been swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Maintain removes expired entries and, if the cache is still over capacity,
// evicts least-recently-accessed entries until at or under the limit.
// It is idempotent and safe to call at any time.
func (c *MemoryCache) Maintain(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maintainLocked(ctx)
}

func (c *MemoryCache) maintainLocked(ctx context.Context) {
	now := c.now()

	expired := 0
	for key, e := range c.entries {
		if !e.expiry.IsZero() && now.After(e.expiry) {
			delete(c.entries, key)
			expired++
		}
	}

	evicted := 0
	if over := len(c.entries) - c.maxItems; over > 0 {
		type keyed struct {
			key      string
			accessed time.Time
		}
		all := make([]keyed, 0, len(c.entries))
		for key, e := range c.entries {
			all = append(all, keyed{key, e.accessed})
		}
		sort.Slice(all, func(i, j int) bool { return all[i].accessed.Before(all[j].accessed) })
		for _, k := range all[:over] {
			delete(c.entries, k.key)
			evicted++
		}
	}

	if expired > 0 || evicted > 0 {
		observability.Cache().OnCacheEvict(ctx, expired, evicted)
	}
}

// Start launches the background maintenance sweep. Calling Start on a cache
// that is already running is a no-op.
func (c *MemoryCache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Maintain(context.Background())
			}
		}
	}(c.stop, c.done)
}

// Stop halts the background maintenance sweep and waits for it to exit.
// Calling Stop on a cache that is not running is a no-op.
func (c *MemoryCache) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Close stops the maintenance sweep.
func (c *MemoryCache) Close() error {
	c.Stop()
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
