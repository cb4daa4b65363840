// Package cache implements the bounded live-seed cache: a combined
// count-and-byte-budgeted LRU with lazy TTL expiry and a synchronous
// eviction hook. The cache itself performs no I/O and takes no locks;
// serialization of mutating calls is the owner's responsibility.
package cache

import (
	"container/list"
	"time"

	"cyberforge-corpus/internal/seed"
)

const (
	DefaultMaxEntries    = 10000
	DefaultMaxTotalBytes = 100 << 20 // 100 MiB
	DefaultTTL           = 24 * time.Hour
)

// Options configures a SeedCache. Zero values for MaxEntries, MaxTotalBytes
// and TTL fall back to the defaults above.
type Options struct {
	MaxEntries    int
	MaxTotalBytes int
	TTL           time.Duration

	// DisableRecencyOnRead leaves recency ordering and the age clock
	// untouched on Get. By default every successful read promotes the entry
	// to most-recently-used and resets its age clock.
	DisableRecencyOnRead bool

	// OnEvict runs synchronously for every entry evicted under capacity
	// pressure, before the triggering Set returns. This is where the owner
	// hooks in the archival write-through. A non-nil error propagates out of
	// Set; the entry is dropped from the live structure either way.
	OnEvict func(*seed.Seed) error
}

// DefaultOptions returns the stock configuration: 10k entries, 100 MiB,
// 24h TTL, recency refreshed on read.
func DefaultOptions() Options {
	return Options{
		MaxEntries:    DefaultMaxEntries,
		MaxTotalBytes: DefaultMaxTotalBytes,
		TTL:           DefaultTTL,
	}
}

type entry struct {
	seed *seed.Seed
	size int
	// refreshedAt is the age-clock baseline: set on insert, reset on any
	// recency refresh.
	refreshedAt time.Time
}

// SeedCache holds the live corpus. The recency list keeps the most recently
// used entry at the front, so the back is always the eviction victim; ties
// between never-read entries resolve to earliest-inserted-first.
type SeedCache struct {
	opts       Options
	items      map[string]*list.Element
	order      *list.List
	totalBytes int
}

func New(opts Options) *SeedCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.MaxTotalBytes <= 0 {
		opts.MaxTotalBytes = DefaultMaxTotalBytes
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &SeedCache{
		opts:  opts,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

// Set inserts or replaces the entry for s.ID, evicting least-recently-used
// entries until both budgets hold again. On return the cache never exceeds
// MaxEntries or MaxTotalBytes. The only error source is the OnEvict hook.
func (c *SeedCache) Set(s *seed.Seed) error {
	size := seed.EstimateSize(s)
	if elem, ok := c.items[s.ID]; ok {
		ent := elem.Value.(*entry)
		c.totalBytes += size - ent.size
		ent.seed = s
		ent.size = size
		ent.refreshedAt = time.Now()
		c.order.MoveToFront(elem)
		return c.evictUntilFit()
	}

	elem := c.order.PushFront(&entry{
		seed:        s,
		size:        size,
		refreshedAt: time.Now(),
	})
	c.items[s.ID] = elem
	c.totalBytes += size
	return c.evictUntilFit()
}

// Get returns the live entry for id, or false on absence or TTL expiry.
// An expired entry is removed on the spot and never surfaces as a hit.
func (c *SeedCache) Get(id string) (*seed.Seed, bool) {
	elem, ok := c.items[id]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*entry)
	if c.expired(ent) {
		// Expiry is not eviction: the entry is dropped without the
		// write-through hook.
		c.remove(elem)
		return nil, false
	}
	if !c.opts.DisableRecencyOnRead {
		c.order.MoveToFront(elem)
		ent.refreshedAt = time.Now()
	}
	return ent.seed, true
}

// Touch promotes the entry for id to most-recently-used and resets its age
// clock, regardless of the read-refresh setting. Expired entries are dropped
// on the spot, as in Get.
func (c *SeedCache) Touch(id string) bool {
	elem, ok := c.items[id]
	if !ok {
		return false
	}
	ent := elem.Value.(*entry)
	if c.expired(ent) {
		c.remove(elem)
		return false
	}
	c.order.MoveToFront(elem)
	ent.refreshedAt = time.Now()
	return true
}

// Has reports presence without touching recency, the age clock, or any
// counters.
func (c *SeedCache) Has(id string) bool {
	elem, ok := c.items[id]
	if !ok {
		return false
	}
	return !c.expired(elem.Value.(*entry))
}

// Remove drops the entry for id without invoking the eviction hook. Used by
// explicit maintenance paths that handle archival themselves.
func (c *SeedCache) Remove(id string) (*seed.Seed, bool) {
	elem, ok := c.items[id]
	if !ok {
		return nil, false
	}
	s := elem.Value.(*entry).seed
	c.remove(elem)
	return s, true
}

// Clear drops every live entry without archiving.
func (c *SeedCache) Clear() {
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.totalBytes = 0
}

// Len returns the live entry count.
func (c *SeedCache) Len() int {
	return len(c.items)
}

// MaxEntries returns the configured entry-count ceiling.
func (c *SeedCache) MaxEntries() int {
	return c.opts.MaxEntries
}

// TotalBytes returns the estimated byte footprint of all live entries.
func (c *SeedCache) TotalBytes() int {
	return c.totalBytes
}

// Snapshot returns the live seeds in recency order, most recently used
// first. The slice is freshly allocated; the seeds are shared.
func (c *SeedCache) Snapshot() []*seed.Seed {
	out := make([]*seed.Seed, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*entry).seed)
	}
	return out
}

func (c *SeedCache) expired(ent *entry) bool {
	return time.Since(ent.refreshedAt) >= c.opts.TTL
}

func (c *SeedCache) remove(elem *list.Element) {
	ent := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.items, ent.seed.ID)
	c.totalBytes -= ent.size
}

// evictUntilFit evicts from the back of the recency list until both budgets
// are satisfied. A just-inserted entry sits at the front, so it only becomes
// a victim when it alone exceeds the byte budget, which keeps the invariant
// unconditional. Hook failures never stop the loop: every needed eviction
// happens and the first error is reported once the budgets hold.
func (c *SeedCache) evictUntilFit() error {
	var firstErr error
	for c.order.Len() > c.opts.MaxEntries || c.totalBytes > c.opts.MaxTotalBytes {
		victim := c.order.Back()
		if victim == nil {
			break
		}
		ent := victim.Value.(*entry)
		if c.opts.OnEvict != nil {
			// Write-through: the hook runs, and is waited on, before the
			// entry leaves the live structure.
			if err := c.opts.OnEvict(ent.seed); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		c.remove(victim)
	}
	return firstErr
}
