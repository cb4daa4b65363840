package main

import (
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/api"
	"cyberforge-corpus/internal/archive"
	"cyberforge-corpus/internal/corpus"
	"cyberforge-corpus/internal/ingest"
	"cyberforge-corpus/pkg/database"
	"cyberforge-corpus/pkg/logger"
	"cyberforge-corpus/pkg/telemetry"
	"cyberforge-corpus/pkg/watchdog"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,           // inject config
			logger.NewLogger,            // inject logger
			telemetry.NewTelemetry,      // inject telemetry
			database.NewDBConnection,    // inject ledger db connection (optional)
			database.NewLedger,          // inject campaign ledger
			archive.NewArchiveStore,     // inject archival store
			corpus.NewManager,           // inject corpus manager
			watchdog.NewWatchDogFactory, // inject watchdog factory
		),
		api.Module, // serve the corpus HTTP endpoints
		fx.Invoke(
			ingest.NewDropIngestor, // watch drop directories for new seeds
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			zlogger := fxevent.ZapLogger{Logger: log}
			zlogger.UseLogLevel(zap.DebugLevel)
			return &zlogger
		}),
	)
	app.Run()
}
