package archive

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/pkg/database"
)

type StoreParams struct {
	fx.In

	AppConfig *config.AppConfig
	Logger    *zap.Logger
	Ledger    *database.Ledger
}

// NewArchiveStore wires the store to the configured archive directory and
// the campaign ledger.
func NewArchiveStore(p StoreParams) (*Store, error) {
	return NewStore(p.AppConfig.CorpusConfig.ArchiveDir, p.Logger, p.Ledger)
}
