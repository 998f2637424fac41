package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pb-tracker/internal/db"
	"pb-tracker/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ErrStaleRecord is returned by CommitImprovement when the stored best is
// already at or above the new damage.
var ErrStaleRecord = errors.New("stored record is not lower than submitted damage")

type PBRecordRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPBRecordRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PBRecordRepository {
	return &PBRecordRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *PBRecordRepository) Get(ctx context.Context, key domain.PBKey) (*domain.PBRecord, error) {
	row, err := r.queries.GetPBRecord(ctx, db.GetPBRecordParams{
		PlayerID:   key.PlayerID,
		Boss:       key.Boss,
		Difficulty: key.Difficulty,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pb %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rec := toDomainRecord(row)
	return &rec, nil
}

func (r *PBRecordRepository) ListByPlayer(ctx context.Context, playerID string) ([]domain.PBRecord, error) {
	rows, err := r.queries.ListPBRecordsByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.PBRecord, len(rows))
	for i, row := range rows {
		result[i] = toDomainRecord(row)
	}
	return result, nil
}

// Leaderboard returns non-zero records for a board ordered by damage, then
// earliest recorded_at, then player id. limit < 0 returns all of them.
func (r *PBRecordRepository) Leaderboard(ctx context.Context, boss, difficulty string, limit int) ([]domain.PBRecord, error) {
	rows, err := r.queries.ListLeaderboard(ctx, db.ListLeaderboardParams{
		Boss:       boss,
		Difficulty: difficulty,
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.PBRecord, len(rows))
	for i, row := range rows {
		result[i] = toDomainRecord(row)
	}
	return result, nil
}

type Improvement struct {
	Key          domain.PBKey
	DisplayName  string
	Damage       int64
	PreviousBest int64
	EvidenceRef  string
	At           time.Time
}

// CommitImprovement upserts the player and record and appends the history
// row in one transaction.
func (r *PBRecordRepository) CommitImprovement(ctx context.Context, imp Improvement) (*domain.PBHistoryEntry, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	if err := upsertPlayer(ctx, qtx, imp.Key.PlayerID, imp.DisplayName, imp.At); err != nil {
		return nil, fmt.Errorf("failed to upsert player %s: %w", imp.Key.PlayerID, err)
	}

	ref := nullable(imp.EvidenceRef)
	n, err := qtx.UpsertPBRecord(ctx, db.UpsertPBRecordParams{
		PlayerID:    imp.Key.PlayerID,
		Boss:        imp.Key.Boss,
		Difficulty:  imp.Key.Difficulty,
		BestDamage:  imp.Damage,
		EvidenceRef: ref,
		RecordedAt:  imp.At,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pb %s: %w", imp.Key, err)
	}
	if n == 0 {
		return nil, ErrStaleRecord
	}

	entry := domain.PBHistoryEntry{
		ID:           id,
		PlayerID:     imp.Key.PlayerID,
		DisplayName:  imp.DisplayName,
		Boss:         imp.Key.Boss,
		Difficulty:   imp.Key.Difficulty,
		Damage:       imp.Damage,
		PreviousBest: imp.PreviousBest,
		EvidenceRef:  imp.EvidenceRef,
		CreatedAt:    imp.At,
	}
	err = qtx.InsertPBHistory(ctx, db.InsertPBHistoryParams{
		ID:           entry.ID,
		PlayerID:     entry.PlayerID,
		DisplayName:  entry.DisplayName,
		Boss:         entry.Boss,
		Difficulty:   entry.Difficulty,
		Damage:       entry.Damage,
		PreviousBest: entry.PreviousBest,
		EvidenceRef:  ref,
		CreatedAt:    entry.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append pb history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pb update: %w", err)
	}

	r.logger.Debug().
		Str("history_id", entry.ID).
		Str("key", imp.Key.String()).
		Int64("damage", imp.Damage).
		Msg("pb improvement committed")
	return &entry, nil
}

func (r *PBRecordRepository) History(ctx context.Context, playerID string, limit int) ([]domain.PBHistoryEntry, error) {
	rows, err := r.queries.ListPBHistoryByPlayer(ctx, db.ListPBHistoryByPlayerParams{
		PlayerID: playerID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.PBHistoryEntry, len(rows))
	for i, h := range rows {
		result[i] = domain.PBHistoryEntry{
			ID:           h.ID,
			PlayerID:     h.PlayerID,
			DisplayName:  h.DisplayName,
			Boss:         h.Boss,
			Difficulty:   h.Difficulty,
			Damage:       h.Damage,
			PreviousBest: h.PreviousBest,
			EvidenceRef:  deref(h.EvidenceRef),
			CreatedAt:    h.CreatedAt,
		}
	}
	return result, nil
}

func toDomainRecord(row db.PBRecordRow) domain.PBRecord {
	return domain.PBRecord{
		PBKey: domain.PBKey{
			PlayerID:   row.PlayerID,
			Boss:       row.Boss,
			Difficulty: row.Difficulty,
		},
		DisplayName:  row.DisplayName,
		BestDamage:   row.BestDamage,
		EvidenceRef:  deref(row.EvidenceRef),
		RecordedAt:   row.RecordedAt,
		AttemptCount: row.AttemptCount,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
