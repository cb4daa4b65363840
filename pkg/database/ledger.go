package database

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cyberforge-corpus/internal/seed"
)

// Ledger records archived seeds. With a nil DB every method is a no-op, so
// callers never branch on whether the ledger is configured.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{
		db:     db,
		logger: logger,
	}
}

// Enabled reports whether rows are actually being written.
func (l *Ledger) Enabled() bool {
	return l.db != nil
}

// RecordArchived inserts one ledger row for an archived seed. Best-effort:
// a failed insert is logged and the archival itself is unaffected.
func (l *Ledger) RecordArchived(ctx context.Context, s *seed.Seed) {
	if l.db == nil {
		return
	}
	row := newArchivedSeed(s)
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		l.logger.Error("failed to record archived seed in ledger",
			zap.String("id", s.ID),
			zap.Error(err))
	}
}

func newArchivedSeed(s *seed.Seed) *ArchivedSeed {
	row := &ArchivedSeed{
		SeedID:         s.ID,
		CreatedAt:      time.Now(),
		InputBytes:     len(s.Input),
		CoveragePoints: len(s.Coverage),
	}
	if s.Metadata != nil {
		row.Origin = string(s.Metadata.Origin)
		row.Attrs = Attrs{
			"crash_count":       s.Metadata.CrashCount,
			"last_exec_time_ms": s.Metadata.LastExecTime.Milliseconds(),
		}
	}
	return row
}
