package service

import (
	"context"
	"testing"
	"time"

	"pb-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMercyService(t *testing.T) *MercyService {
	t.Helper()
	f := newFixture(t)
	svc := NewMercyService(f.counters, f.catalog, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestMercyAddAndStatus(t *testing.T) {
	svc := newMercyService(t)
	ctx := context.Background()

	out, err := svc.Add(ctx, "1", "Ancient", 210)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ancient", out[0].Category)
	assert.Equal(t, int64(210), out[0].Pulls)
	assert.InDelta(t, 5.0, out[0].ChancePercent, 1e-9)
	assert.Equal(t, int64(220), out[0].GuaranteedAt)
	assert.Equal(t, int64(10), out[0].Remaining)

	out, err = svc.Add(ctx, "1", "ancient", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(230), out[0].Pulls)
	assert.Equal(t, int64(0), out[0].Remaining)

	out, err = svc.Add(ctx, "1", "ancient", -500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out[0].Pulls, "counters clamp at zero")

	status, err := svc.Status(ctx, "1", "sacred")
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, int64(0), status[0].Pulls)
	assert.Equal(t, int64(59), status[0].GuaranteedAt)

	_, err = svc.Add(ctx, "1", "legendary", 5)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Status(ctx, "", "ancient")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMercyPrimalFanOut(t *testing.T) {
	svc := newMercyService(t)
	ctx := context.Background()

	out, err := svc.Add(ctx, "1", "primal", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "primal_legendary", out[0].Category)
	assert.Equal(t, "primal_mythical", out[1].Category)
	assert.Equal(t, int64(10), out[0].Pulls)
	assert.Equal(t, int64(10), out[1].Pulls)

	reset, err := svc.Reset(ctx, "1", "primal", "legendary")
	require.NoError(t, err)
	assert.Equal(t, []string{"primal_legendary"}, reset)

	status, err := svc.Status(ctx, "1", "primal")
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, int64(0), status[0].Pulls)
	assert.Equal(t, int64(10), status[1].Pulls)

	reset, err = svc.Reset(ctx, "1", "primal", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"primal_legendary", "primal_mythical"}, reset)

	status, err = svc.Status(ctx, "1", "primal")
	require.NoError(t, err)
	assert.Equal(t, int64(0), status[1].Pulls)

	_, err = svc.Reset(ctx, "1", "primal", "epic")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMercyResetPlainCategory(t *testing.T) {
	svc := newMercyService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "1", "void", 150)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "1", "remnant", 30)
	require.NoError(t, err)

	// a subtype means nothing for a plain category
	reset, err := svc.Reset(ctx, "1", "void", "legendary")
	require.NoError(t, err)
	assert.Equal(t, []string{"void"}, reset)

	all, err := svc.StatusAll(ctx, "1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "remnant", all[0].Category)
	assert.Equal(t, int64(30), all[0].Pulls)
	assert.InDelta(t, 6.0, all[0].ChancePercent, 1e-9)
	assert.Equal(t, "void", all[1].Category)
	assert.Equal(t, int64(0), all[1].Pulls)

	_, err = svc.Reset(ctx, "1", "mythic", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
