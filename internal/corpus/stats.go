package corpus

import (
	"github.com/dustin/go-humanize"
)

// Stats is a derived snapshot of cache effectiveness; nothing in it is
// persisted.
type Stats struct {
	TotalSeeds    int     `json:"total_seeds"`
	CacheSize     int     `json:"cache_size"`
	ArchivedSeeds int     `json:"archived_seeds"`
	HitRate       float64 `json:"hit_rate"`
	MemoryUsage   string  `json:"memory_usage"`
}

// Capacity reports live occupancy against the entry-count ceiling, for
// monitoring and dashboard display.
type Capacity struct {
	Current    int     `json:"current"`
	Max        int     `json:"max"`
	Percentage float64 `json:"percentage"`
}

// GetStats computes current corpus statistics. The hit rate is cumulative
// over the manager's lifetime, expressed as a percentage.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits + m.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(m.hits) / float64(total) * 100
	}
	size := m.cache.TotalBytes()
	return Stats{
		TotalSeeds:    m.cache.Len(),
		CacheSize:     size,
		ArchivedSeeds: m.store.Count(),
		HitRate:       hitRate,
		MemoryUsage:   humanize.IBytes(uint64(size)),
	}
}

// GetCapacity reports how full the live cache is, by entry count.
func (m *Manager) GetCapacity() Capacity {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.cache.Len()
	max := m.cache.MaxEntries()
	pct := 0.0
	if max > 0 {
		pct = float64(current) / float64(max) * 100
	}
	return Capacity{
		Current:    current,
		Max:        max,
		Percentage: pct,
	}
}
