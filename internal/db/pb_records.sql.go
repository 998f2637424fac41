package db

import (
	"context"
	"time"
)

const getPBRecord = `
SELECT r.player_id, r.boss, r.difficulty, r.best_damage, r.evidence_ref, r.recorded_at, r.attempt_count, p.display_name
FROM pb_records r
JOIN players p ON p.id = r.player_id
WHERE r.player_id = ? AND r.boss = ? AND r.difficulty = ?
`

type GetPBRecordParams struct {
	PlayerID   string
	Boss       string
	Difficulty string
}

type PBRecordRow struct {
	PlayerID     string
	Boss         string
	Difficulty   string
	BestDamage   int64
	EvidenceRef  *string
	RecordedAt   time.Time
	AttemptCount int64
	DisplayName  string
}

func (q *Queries) GetPBRecord(ctx context.Context, arg GetPBRecordParams) (PBRecordRow, error) {
	row := q.db.QueryRowContext(ctx, getPBRecord, arg.PlayerID, arg.Boss, arg.Difficulty)
	var i PBRecordRow
	err := row.Scan(
		&i.PlayerID,
		&i.Boss,
		&i.Difficulty,
		&i.BestDamage,
		&i.EvidenceRef,
		&i.RecordedAt,
		&i.AttemptCount,
		&i.DisplayName,
	)
	return i, err
}

// The WHERE clause keeps best_damage monotonic even if two writers race; a
// zero row count means the stored value was already at least as high.
const upsertPBRecord = `
INSERT INTO pb_records (player_id, boss, difficulty, best_damage, evidence_ref, recorded_at, attempt_count)
VALUES (?, ?, ?, ?, ?, ?, 1)
ON CONFLICT (player_id, boss, difficulty) DO UPDATE SET
    best_damage = excluded.best_damage,
    evidence_ref = excluded.evidence_ref,
    recorded_at = excluded.recorded_at,
    attempt_count = pb_records.attempt_count + 1
WHERE excluded.best_damage > pb_records.best_damage
`

type UpsertPBRecordParams struct {
	PlayerID    string
	Boss        string
	Difficulty  string
	BestDamage  int64
	EvidenceRef *string
	RecordedAt  time.Time
}

func (q *Queries) UpsertPBRecord(ctx context.Context, arg UpsertPBRecordParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, upsertPBRecord,
		arg.PlayerID,
		arg.Boss,
		arg.Difficulty,
		arg.BestDamage,
		arg.EvidenceRef,
		arg.RecordedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPBRecordsByPlayer = `
SELECT r.player_id, r.boss, r.difficulty, r.best_damage, r.evidence_ref, r.recorded_at, r.attempt_count, p.display_name
FROM pb_records r
JOIN players p ON p.id = r.player_id
WHERE r.player_id = ? AND r.best_damage > 0
ORDER BY r.boss, r.difficulty
`

func (q *Queries) ListPBRecordsByPlayer(ctx context.Context, playerID string) ([]PBRecordRow, error) {
	return q.listRecords(ctx, listPBRecordsByPlayer, playerID)
}

// Limit -1 returns every row.
const listLeaderboard = `
SELECT r.player_id, r.boss, r.difficulty, r.best_damage, r.evidence_ref, r.recorded_at, r.attempt_count, p.display_name
FROM pb_records r
JOIN players p ON p.id = r.player_id
WHERE r.boss = ? AND r.difficulty = ? AND r.best_damage > 0
ORDER BY r.best_damage DESC, r.recorded_at ASC, r.player_id ASC
LIMIT ?
`

type ListLeaderboardParams struct {
	Boss       string
	Difficulty string
	Limit      int64
}

func (q *Queries) ListLeaderboard(ctx context.Context, arg ListLeaderboardParams) ([]PBRecordRow, error) {
	return q.listRecords(ctx, listLeaderboard, arg.Boss, arg.Difficulty, arg.Limit)
}

func (q *Queries) listRecords(ctx context.Context, query string, args ...interface{}) ([]PBRecordRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PBRecordRow
	for rows.Next() {
		var i PBRecordRow
		if err := rows.Scan(
			&i.PlayerID,
			&i.Boss,
			&i.Difficulty,
			&i.BestDamage,
			&i.EvidenceRef,
			&i.RecordedAt,
			&i.AttemptCount,
			&i.DisplayName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertPBHistory = `
INSERT INTO pb_history (id, player_id, display_name, boss, difficulty, damage, previous_best, evidence_ref, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertPBHistoryParams struct {
	ID           string
	PlayerID     string
	DisplayName  string
	Boss         string
	Difficulty   string
	Damage       int64
	PreviousBest int64
	EvidenceRef  *string
	CreatedAt    time.Time
}

func (q *Queries) InsertPBHistory(ctx context.Context, arg InsertPBHistoryParams) error {
	_, err := q.db.ExecContext(ctx, insertPBHistory,
		arg.ID,
		arg.PlayerID,
		arg.DisplayName,
		arg.Boss,
		arg.Difficulty,
		arg.Damage,
		arg.PreviousBest,
		arg.EvidenceRef,
		arg.CreatedAt,
	)
	return err
}

const listPBHistoryByPlayer = `
SELECT id, player_id, display_name, boss, difficulty, damage, previous_best, evidence_ref, created_at
FROM pb_history
WHERE player_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

type ListPBHistoryByPlayerParams struct {
	PlayerID string
	Limit    int64
}

func (q *Queries) ListPBHistoryByPlayer(ctx context.Context, arg ListPBHistoryByPlayerParams) ([]PbHistory, error) {
	rows, err := q.db.QueryContext(ctx, listPBHistoryByPlayer, arg.PlayerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PbHistory
	for rows.Next() {
		var i PbHistory
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.DisplayName,
			&i.Boss,
			&i.Difficulty,
			&i.Damage,
			&i.PreviousBest,
			&i.EvidenceRef,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
