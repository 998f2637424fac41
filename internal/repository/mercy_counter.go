package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pb-tracker/internal/db"
	"pb-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type MercyCounterRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMercyCounterRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MercyCounterRepository {
	return &MercyCounterRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *MercyCounterRepository) Get(ctx context.Context, playerID, category string) (*domain.MercyCounter, error) {
	c, err := r.queries.GetMercyCounter(ctx, db.GetMercyCounterParams{
		PlayerID:      playerID,
		ShardCategory: category,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mercy %s/%s: %w", playerID, category, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	counter := toDomainCounter(c)
	return &counter, nil
}

// Add applies delta inside a transaction and returns the stored counter. The
// result never goes below zero.
func (r *MercyCounterRepository) Add(ctx context.Context, playerID, category string, delta int64, now time.Time) (*domain.MercyCounter, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	current, err := qtx.GetMercyCounter(ctx, db.GetMercyCounterParams{
		PlayerID:      playerID,
		ShardCategory: category,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = db.MercyCounter{PlayerID: playerID, ShardCategory: category, LastResetAt: now}
	case err != nil:
		return nil, fmt.Errorf("failed to read mercy counter: %w", err)
	}

	pulls := current.Pulls + delta
	if pulls < 0 {
		r.logger.Warn().
			Str("player_id", playerID).
			Str("category", category).
			Int64("pulls", current.Pulls).
			Int64("delta", delta).
			Msg("mercy counter would go negative, clamping to zero")
		pulls = 0
	}

	err = qtx.UpsertMercyPulls(ctx, db.UpsertMercyPullsParams{
		PlayerID:      playerID,
		ShardCategory: category,
		Pulls:         pulls,
		LastResetAt:   current.LastResetAt,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mercy counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mercy counter: %w", err)
	}

	return &domain.MercyCounter{
		PlayerID:    playerID,
		Category:    category,
		Pulls:       pulls,
		LastResetAt: current.LastResetAt,
		UpdatedAt:   now,
	}, nil
}

func (r *MercyCounterRepository) Reset(ctx context.Context, playerID, category string, now time.Time) error {
	return r.queries.ResetMercyCounter(ctx, db.ResetMercyCounterParams{
		PlayerID:      playerID,
		ShardCategory: category,
		ResetAt:       now,
	})
}

func (r *MercyCounterRepository) ListByPlayer(ctx context.Context, playerID string) ([]domain.MercyCounter, error) {
	rows, err := r.queries.ListMercyCountersByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.MercyCounter, len(rows))
	for i, c := range rows {
		result[i] = toDomainCounter(c)
	}
	return result, nil
}

func toDomainCounter(c db.MercyCounter) domain.MercyCounter {
	return domain.MercyCounter{
		PlayerID:    c.PlayerID,
		Category:    c.ShardCategory,
		Pulls:       c.Pulls,
		LastResetAt: c.LastResetAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
