package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pb-tracker/internal/db"
	"pb-tracker/internal/domain"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	player, err := r.queries.GetPlayer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p := toDomainPlayer(player)
	return &p, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, id, displayName string) error {
	return upsertPlayer(ctx, r.queries, id, displayName, time.Now().UTC())
}

// FindByName matches display names case-insensitively, exact matches first
// and substring matches only when nothing matches exactly.
func (r *PlayerRepository) FindByName(ctx context.Context, name string, limit int) ([]domain.Player, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil, nil
	}

	players, err := r.queries.FindPlayersByExactName(ctx, db.FindPlayersByExactNameParams{
		DisplayNameLower: lower,
		Limit:            int64(limit),
	})
	if err != nil {
		return nil, err
	}

	if len(players) == 0 {
		r.logger.Debug().Str("name", name).Msg("no exact name match, searching substrings")
		players, err = r.queries.SearchPlayersByName(ctx, db.SearchPlayersByNameParams{
			Needle: lower,
			Limit:  int64(limit),
		})
		if err != nil {
			return nil, err
		}
	}

	result := make([]domain.Player, len(players))
	for i, p := range players {
		result[i] = toDomainPlayer(p)
	}
	return result, nil
}

func upsertPlayer(ctx context.Context, q *db.Queries, id, displayName string, now time.Time) error {
	return q.UpsertPlayer(ctx, db.UpsertPlayerParams{
		ID:               id,
		DisplayName:      displayName,
		DisplayNameLower: strings.ToLower(displayName),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

func toDomainPlayer(p db.Player) domain.Player {
	return domain.Player{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
