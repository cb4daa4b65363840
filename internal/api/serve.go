// Package api exposes the corpus over HTTP for the monitoring dashboard and
// for manual corpus seeding. Read endpoints surface stats and capacity;
// write endpoints are thin wrappers over the corpus manager.
package api

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/corpus"
	"cyberforge-corpus/pkg/telemetry"
)

type ServerParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Manager   *corpus.Manager
	Telemetry telemetry.Telemetry
	Logger    *zap.Logger
	Config    *config.AppConfig
}

// NewAPIServer creates the HTTP server for the corpus endpoints.
func NewAPIServer(params ServerParams) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth())
	mux.HandleFunc("/stats", handleStats(params.Manager, params.Logger))
	mux.HandleFunc("/capacity", handleCapacity(params.Manager, params.Logger))
	mux.HandleFunc("/seed", handleGetSeed(params.Manager, params.Logger))
	mux.HandleFunc("/seed/restore", handleRestoreSeed(params.Manager, params.Logger))
	mux.HandleFunc("/seeds", handleSeeds(params.Manager, params.Logger))
	mux.HandleFunc("/seeds/top", handleTopSeeds(params.Manager, params.Logger))
	mux.HandleFunc("/export", handleExport(params.Manager, params.Config, params.Telemetry, params.Logger))
	mux.HandleFunc("/import", handleImport(params.Manager, params.Telemetry, params.Logger))
	mux.HandleFunc("/prune", handlePrune(params.Manager, params.Telemetry, params.Logger))
	mux.HandleFunc("/clear", handleClear(params.Manager, params.Logger))

	server := &http.Server{
		Addr:    params.Config.APIAddr,
		Handler: mux,
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					params.Logger.Fatal("failed to start API server", zap.Error(err))
				}
			}()
			params.Logger.Info("API server listening", zap.String("addr", params.Config.APIAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})

	return server
}

var Module = fx.Module("api",
	fx.Invoke(
		NewAPIServer,
	),
)
