// Package corpus exposes the corpus manager: the façade the fuzzing engine
// and the HTTP layer talk to. It composes the content addresser, the bounded
// live cache and the archival store, and owns the hit/miss counters.
package corpus

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"cyberforge-corpus/internal/archive"
	"cyberforge-corpus/internal/cache"
	"cyberforge-corpus/internal/seed"
)

// Archiver is the durable-storage dependency of the manager. Satisfied by
// *archive.Store; tests inject failing backends to pin down the durability
// policy.
type Archiver interface {
	Archive(ctx context.Context, s *seed.Seed) error
	Load(ctx context.Context, id string) (*seed.Seed, error)
	Count() int
	Export(ctx context.Context, path string, seeds []*seed.Seed) error
	Import(ctx context.Context, path string) ([]*seed.Seed, error)
}

// DurabilityPolicy names what happens when the archive write for an evicted
// seed fails.
type DurabilityPolicy string

const (
	// DurabilityBestEffort logs the lost seed and lets the eviction
	// complete. Losing a durable copy is degraded durability, not a fatal
	// condition; eviction must never block on archival failure.
	DurabilityBestEffort DurabilityPolicy = "best-effort"

	// DurabilityStrict propagates the archive failure to the caller of the
	// operation that triggered the eviction.
	DurabilityStrict DurabilityPolicy = "strict"
)

// Options configures a Manager.
type Options struct {
	Cache      cache.Options
	Durability DurabilityPolicy
}

// Manager serializes all corpus mutations behind one mutex, which is the
// documented requirement for multi-worker engines sharing one corpus
// instance. Reads that touch recency or counters take the same lock.
type Manager struct {
	mu     sync.Mutex
	cache  *cache.SeedCache
	store  Archiver
	logger *zap.Logger

	durability DurabilityPolicy

	hits   uint64
	misses uint64
}

// New constructs a manager. The cache's eviction hook is owned by the
// manager and wired to the archival write-through; callers must not set
// Options.Cache.OnEvict themselves.
func New(opts Options, store Archiver, logger *zap.Logger) *Manager {
	if opts.Durability == "" {
		opts.Durability = DurabilityBestEffort
	}
	m := &Manager{
		store:      store,
		logger:     logger,
		durability: opts.Durability,
	}
	opts.Cache.OnEvict = m.archiveEvicted
	m.cache = cache.New(opts.Cache)
	return m
}

// archiveEvicted is the write-through hook: it runs synchronously inside
// cache.Set, before the evicted entry is gone from the live structure.
func (m *Manager) archiveEvicted(s *seed.Seed) error {
	if err := m.store.Archive(context.Background(), s); err != nil {
		if m.durability == DurabilityStrict {
			return err
		}
		m.logger.Warn("evicted seed lost, archive write failed",
			zap.String("id", s.ID),
			zap.Error(err))
	}
	return nil
}

// AddSeed computes the content ID for input and inserts a new seed into the
// live cache. Adding byte-identical input again is a recency refresh, not a
// duplicate insert. Under capacity pressure the call may include one or more
// synchronous archive writes for the evicted entries.
func (m *Manager) AddSeed(input []byte, coverage []uint32, metadata *seed.Metadata) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := seed.ContentID(input)
	if m.cache.Touch(id) {
		// Dedup invariant: refresh recency, keep the original entry and its
		// coverage as recorded at first insertion.
		return id, nil
	}

	s := seed.New(input, coverage, metadata)
	if err := m.cache.Set(s); err != nil {
		return id, err
	}
	m.logger.Debug("added seed",
		zap.String("id", id),
		zap.Int("input_bytes", len(input)),
		zap.Int("coverage_points", len(coverage)))
	return id, nil
}

// GetSeed returns the live seed for id. Absence and TTL expiry are both
// counted as misses; archived-only seeds are not consulted (rehydration is
// the explicit LoadArchivedSeed path).
func (m *Manager) GetSeed(id string) (*seed.Seed, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.cache.Get(id)
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return s, ok
}

// HasSeed reports live presence without recency or counter side effects.
func (m *Manager) HasSeed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Has(id)
}

// LoadArchivedSeed rehydrates an archived seed back into the live cache.
// A nil result means the seed was never archived or has since been removed
// from the archive; that is an expected outcome, not an error. Genuine read
// failures propagate. Rehydration inserts through the normal Set path and so
// obeys the same capacity invariants as any other insert.
func (m *Manager) LoadArchivedSeed(ctx context.Context, id string) (*seed.Seed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Load(ctx, id)
	if errors.Is(err, archive.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		m.logger.Error("failed to read archived seed",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}
	if s.Metadata == nil {
		s.Metadata = &seed.Metadata{}
	}
	s.Metadata.Origin = seed.OriginRestored
	if err := m.cache.Set(s); err != nil {
		return nil, err
	}
	m.logger.Info("rehydrated archived seed", zap.String("id", id))
	return s, nil
}

// GetSeeds returns up to count live seeds in recency order, most recently
// used first. A count below zero is treated as zero.
func (m *Manager) GetSeeds(count int) []*seed.Seed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return truncateSeeds(m.cache.Snapshot(), count)
}

// GetTopSeeds returns up to count seeds sorted descending by coverage point
// count; ties go to the more recently used seed. This ranking is the primary
// signal for which seeds are worth mutating next.
func (m *Manager) GetTopSeeds(count int) []*seed.Seed {
	m.mu.Lock()
	defer m.mu.Unlock()

	seeds := m.cache.Snapshot()
	sort.SliceStable(seeds, func(i, j int) bool {
		return len(seeds[i].Coverage) > len(seeds[j].Coverage)
	})
	return truncateSeeds(seeds, count)
}

func truncateSeeds(seeds []*seed.Seed, count int) []*seed.Seed {
	if count < 0 {
		count = 0
	}
	if count < len(seeds) {
		seeds = seeds[:count]
	}
	return seeds
}

// PruneOldSeeds archives and removes every live seed older than maxAge,
// returning the number pruned. This is explicit maintenance, distinct from
// passive TTL expiry. Archive failures follow the durability policy.
func (m *Manager) PruneOldSeeds(ctx context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for _, s := range m.cache.Snapshot() {
		if time.Since(s.Timestamp) <= maxAge {
			continue
		}
		if err := m.store.Archive(ctx, s); err != nil {
			if m.durability == DurabilityStrict {
				return pruned, err
			}
			m.logger.Warn("pruned seed lost, archive write failed",
				zap.String("id", s.ID),
				zap.Error(err))
		}
		m.cache.Remove(s.ID)
		pruned++
	}
	if pruned > 0 {
		m.logger.Info("pruned old seeds",
			zap.Int("pruned", pruned),
			zap.Duration("max_age", maxAge))
	}
	return pruned, nil
}

// ExportCorpus writes the entire live cache to a single file. I/O failures
// propagate to the caller.
func (m *Manager) ExportCorpus(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Export(ctx, path, m.cache.Snapshot())
}

// ImportCorpus reads a previously exported file and inserts every seed into
// the live cache under the usual capacity rules, returning the count
// imported.
func (m *Manager) ImportCorpus(ctx context.Context, path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seeds, err := m.store.Import(ctx, path)
	if err != nil {
		return 0, err
	}
	imported := 0
	for _, s := range seeds {
		if err := m.cache.Set(s); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// Clear drops every live entry without archiving. This models "discard
// everything", not eviction, so the write-through hook is intentionally
// skipped. Hit/miss counters keep accumulating across a clear.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Clear()
	m.logger.Info("cleared live corpus")
}
