package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/dedup"
	"github.com/atenger/gmfc101/internal/notify"
	"github.com/atenger/gmfc101/internal/storage"
	"github.com/atenger/gmfc101/pkg/config"
)

func testApp(cfg *config.Config) *App {
	return &App{Config: cfg, Logger: zap.NewNop()}
}

func TestStores_Local(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.MetadataFile),
		[]byte(`[{"episode":"ep1","title":"Hello","aired_date":"2024-01-01"}]`), 0o644))

	cfg := &config.Config{}
	cfg.Catalog.Source = "local"
	cfg.Catalog.DataDir = dir
	cfg.Transcripts.Source = "local"

	a := testApp(cfg)
	cat, transcripts, err := a.stores(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, cat)
	assert.IsType(t, &storage.FileStore{}, transcripts)

	episodes, err := cat.LoadEpisodes(context.Background())
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "ep1", episodes[0].ID)
	assert.Empty(t, a.closers)
}

func TestDeduper_DefaultsToMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dedup.TTL = time.Minute
	cfg.Dedup.Capacity = 10

	d, err := testApp(cfg).deduper(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &dedup.Gate{}, d)
}

func TestDeduper_BadRedisURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dedup.RedisURL = "not-a-url://"

	_, err := testApp(cfg).deduper(context.Background())
	assert.Error(t, err)
}

func TestNotifier_NopWithoutToken(t *testing.T) {
	n, err := testApp(&config.Config{}).notifier()
	require.NoError(t, err)
	assert.Equal(t, notify.Nop{}, n)
}

func TestClose_RunsNewestFirst(t *testing.T) {
	var order []int
	a := testApp(&config.Config{})
	a.closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}
	a.Close()
	assert.Equal(t, []int{2, 1}, order)
	assert.Empty(t, a.closers)
}
