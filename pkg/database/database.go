// Package database is the optional campaign ledger: a Postgres record of
// every seed that reaches durable storage, for dashboard queries across a
// long-running campaign. The corpus itself never depends on the ledger
// being up; ledger failures are logged and swallowed.
package database

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cyberforge-corpus/config"
)

// NewDBConnection connects to Postgres when DATABASE_URL is configured.
// A nil return with nil error means the ledger is disabled.
func NewDBConnection(appConfig *config.AppConfig, logger *zap.Logger) (*gorm.DB, error) {
	if appConfig.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, campaign ledger disabled")
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(appConfig.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		return nil, err
	}
	if err := db.AutoMigrate(&ArchivedSeed{}); err != nil {
		logger.Error("failed to migrate ledger schema", zap.Error(err))
		return nil, err
	}
	logger.Debug("connected to campaign ledger database")
	return db, nil
}
