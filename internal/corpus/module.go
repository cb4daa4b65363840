package corpus

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/archive"
	"cyberforge-corpus/internal/cache"
)

type ManagerParams struct {
	fx.In

	Lc        fx.Lifecycle
	AppConfig *config.AppConfig
	Store     *archive.Store
	Logger    *zap.Logger
}

// NewManager builds the process's corpus manager from configuration. The
// manager has no import-time state; every fuzzing session constructs and
// owns its own instance.
func NewManager(p ManagerParams) *Manager {
	cfg := p.AppConfig.CorpusConfig
	m := New(Options{
		Cache: cache.Options{
			MaxEntries:    cfg.MaxEntries,
			MaxTotalBytes: cfg.MaxTotalBytes,
			TTL:           cfg.TTL,
		},
		Durability: DurabilityPolicy(cfg.Durability),
	}, p.Store, p.Logger)

	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stats := m.GetStats()
			p.Logger.Info("corpus manager stopping",
				zap.Int("total_seeds", stats.TotalSeeds),
				zap.Int("archived_seeds", stats.ArchivedSeeds),
				zap.Float64("hit_rate", stats.HitRate),
				zap.String("memory_usage", stats.MemoryUsage))
			return nil
		},
	})

	return m
}
