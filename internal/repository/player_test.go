package repository

import (
	"context"
	"testing"

	"pb-tracker/internal/domain"
	"pb-tracker/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerFindByName(t *testing.T) {
	sqlDB, queries := testutil.OpenTestDB(t)
	repo := NewPlayerRepository(sqlDB, queries, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "1", "[RTF] Alice"))
	require.NoError(t, repo.Upsert(ctx, "2", "Alice"))
	require.NoError(t, repo.Upsert(ctx, "3", "Alicia"))

	exact, err := repo.FindByName(ctx, "ALICE", 5)
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "2", exact[0].ID)

	partial, err := repo.FindByName(ctx, "ali", 5)
	require.NoError(t, err)
	assert.Len(t, partial, 3)

	none, err := repo.FindByName(ctx, "zed", 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Upsert(ctx, "2", "Alice2"))
	p, err := repo.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Alice2", p.DisplayName)

	_, err = repo.Get(ctx, "99")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
