// Package ingest feeds externally dropped seed files into the corpus.
// Fuzzer workers (and humans) write raw inputs as files into the configured
// drop directories; the ingestor picks up each new file and adds its
// contents as a seed. Coverage for dropped files is unknown until the
// engine executes them, so they enter the corpus with an empty coverage
// vector.
package ingest

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/corpus"
	"cyberforge-corpus/internal/seed"
	"cyberforge-corpus/pkg/watchdog"
)

type DropIngestor struct {
	manager *corpus.Manager
	logger  *zap.Logger

	dropChan chan string
	done     chan struct{}
}

type DropIngestorParams struct {
	fx.In

	Lc        fx.Lifecycle
	AppConfig *config.AppConfig
	Manager   *corpus.Manager
	Watchdogs *watchdog.WatchDogFactory
	Logger    *zap.Logger
}

func NewDropIngestor(p DropIngestorParams) (*DropIngestor, error) {
	ingestor := &DropIngestor{
		manager:  p.Manager,
		logger:   p.Logger,
		dropChan: make(chan string, 1024),
		done:     make(chan struct{}),
	}

	if len(p.AppConfig.DropDirs) == 0 {
		p.Logger.Info("no drop directories configured, drop ingestion disabled")
		close(ingestor.dropChan)
		close(ingestor.done)
		return ingestor, nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			dog, err := p.Watchdogs.New(watchCtx, ingestor.dropChan, nil)
			if err != nil {
				cancel()
				return err
			}
			for _, dir := range p.AppConfig.DropDirs {
				if err := dog.AddDir(dir); err != nil {
					p.Logger.Warn("skipping drop directory", zap.Error(err))
				}
			}
			go ingestor.start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			<-ingestor.done
			return nil
		},
	})

	return ingestor, nil
}

func (d *DropIngestor) start() {
	defer close(d.done)
	for path := range d.dropChan {
		d.ingestFile(path)
	}
}

func (d *DropIngestor) ingestFile(path string) {
	input, err := os.ReadFile(path)
	if err != nil {
		d.logger.Warn("failed to read dropped seed file",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	if len(input) == 0 {
		d.logger.Debug("ignoring empty dropped file", zap.String("path", path))
		return
	}

	id, err := d.manager.AddSeed(input, nil, &seed.Metadata{Origin: seed.OriginUser})
	if err != nil {
		d.logger.Error("failed to add dropped seed",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	d.logger.Info("ingested dropped seed",
		zap.String("path", path),
		zap.String("id", id),
		zap.Int("input_bytes", len(input)))
}
