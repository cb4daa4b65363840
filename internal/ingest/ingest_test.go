package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/archive"
	"cyberforge-corpus/internal/corpus"
	"cyberforge-corpus/internal/seed"
	"cyberforge-corpus/pkg/watchdog"
)

func newTestManager(t *testing.T) *corpus.Manager {
	t.Helper()
	store, err := archive.NewStore(t.TempDir(), zap.NewNop(), nil)
	require.NoError(t, err)
	return corpus.New(corpus.Options{}, store, zap.NewNop())
}

func TestDropIngestorPicksUpNewFiles(t *testing.T) {
	dropDir := t.TempDir()
	manager := newTestManager(t)
	lc := fxtest.NewLifecycle(t)

	_, err := NewDropIngestor(DropIngestorParams{
		Lc:        lc,
		AppConfig: &config.AppConfig{DropDirs: []string{dropDir}},
		Manager:   manager,
		Watchdogs: watchdog.NewWatchDogFactory(zap.NewNop()),
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)

	lc.RequireStart()
	defer lc.RequireStop()

	input := []byte("dropped by a worker")
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "worker-0001"), input, 0644))

	id := seed.ContentID(input)
	require.Eventually(t, func() bool {
		return manager.HasSeed(id)
	}, 5*time.Second, 10*time.Millisecond)

	s, ok := manager.GetSeed(id)
	require.True(t, ok)
	require.Equal(t, input, s.Input)
	require.NotNil(t, s.Metadata)
	require.Equal(t, seed.OriginUser, s.Metadata.Origin)
}

func TestDropIngestorIgnoresEmptyFiles(t *testing.T) {
	dropDir := t.TempDir()
	manager := newTestManager(t)
	lc := fxtest.NewLifecycle(t)

	_, err := NewDropIngestor(DropIngestorParams{
		Lc:        lc,
		AppConfig: &config.AppConfig{DropDirs: []string{dropDir}},
		Manager:   manager,
		Watchdogs: watchdog.NewWatchDogFactory(zap.NewNop()),
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)

	lc.RequireStart()
	defer lc.RequireStop()

	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "empty"), nil, 0644))
	payload := []byte("real payload")
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "real"), payload, 0644))

	require.Eventually(t, func() bool {
		return manager.HasSeed(seed.ContentID(payload))
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, manager.GetStats().TotalSeeds)
}

func TestDropIngestorDisabledWithoutDirs(t *testing.T) {
	manager := newTestManager(t)
	lc := fxtest.NewLifecycle(t)

	ing, err := NewDropIngestor(DropIngestorParams{
		Lc:        lc,
		AppConfig: &config.AppConfig{},
		Manager:   manager,
		Watchdogs: watchdog.NewWatchDogFactory(zap.NewNop()),
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	require.NotNil(t, ing)

	// No hooks registered: start and stop return immediately.
	lc.RequireStart()
	lc.RequireStop()
}
