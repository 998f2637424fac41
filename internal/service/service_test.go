package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pb-tracker/internal/catalog"
	"pb-tracker/internal/repository"
	"pb-tracker/internal/storage"
	"pb-tracker/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	records  *repository.PBRecordRepository
	players  *repository.PlayerRepository
	counters *repository.MercyCounterRepository
	catalog  *catalog.Catalog
	store    *storage.ScreenshotStore
	root     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sqlDB, queries := testutil.OpenTestDB(t)
	cat, err := catalog.Load("")
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "screenshots")
	store, err := storage.NewScreenshotStoreAt(root, zerolog.Nop())
	require.NoError(t, err)

	return &fixture{
		records:  repository.NewPBRecordRepository(sqlDB, queries, zerolog.Nop()),
		players:  repository.NewPlayerRepository(sqlDB, queries, zerolog.Nop()),
		counters: repository.NewMercyCounterRepository(sqlDB, queries, zerolog.Nop()),
		catalog:  cat,
		store:    store,
		root:     root,
	}
}

// files lists the screenshots stored for a board.
func (f *fixture) files(t *testing.T, boss, difficulty string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.root, boss, difficulty))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func noFetch(t *testing.T) AttachmentFetcher {
	return fetchFunc(func(context.Context, string) ([]byte, error) {
		t.Error("unexpected attachment fetch")
		return nil, nil
	})
}
