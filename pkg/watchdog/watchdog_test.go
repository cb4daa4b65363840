package watchdog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatchDogNotifiesOnCreate(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan string, 8)
	wd, err := NewWatchDogFactory(zap.NewNop()).New(ctx, notify, nil)
	require.NoError(t, err)
	require.NoError(t, wd.AddDir(dir))

	dropped := filepath.Join(dir, "crash-input.bin")
	require.NoError(t, os.WriteFile(dropped, []byte("payload"), 0644))

	select {
	case path := <-notify:
		assert.Equal(t, dropped, path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for create notification")
	}
}

func TestWatchDogFilter(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan string, 8)
	onlyBin := func(path string) bool { return strings.HasSuffix(path, ".bin") }
	wd, err := NewWatchDogFactory(zap.NewNop()).New(ctx, notify, onlyBin)
	require.NoError(t, err)
	require.NoError(t, wd.AddDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("x"), 0644))
	accepted := filepath.Join(dir, "seed.bin")
	require.NoError(t, os.WriteFile(accepted, []byte("y"), 0644))

	select {
	case path := <-notify:
		assert.Equal(t, accepted, path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for filtered notification")
	}
}

func TestWatchDogRejectsMissingDir(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan string, 1)
	wd, err := NewWatchDogFactory(zap.NewNop()).New(ctx, notify, nil)
	require.NoError(t, err)

	assert.Error(t, wd.AddDir(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestWatchDogClosesChannelOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	notify := make(chan string, 1)
	_, err := NewWatchDogFactory(zap.NewNop()).New(ctx, notify, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-notify:
		assert.False(t, ok, "channel should be closed, not carrying a value")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
