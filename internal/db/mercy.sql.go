package db

import (
	"context"
	"time"
)

const getMercyCounter = `
SELECT player_id, shard_category, pulls, last_reset_at, updated_at
FROM mercy_counters
WHERE player_id = ? AND shard_category = ?
`

type GetMercyCounterParams struct {
	PlayerID      string
	ShardCategory string
}

func (q *Queries) GetMercyCounter(ctx context.Context, arg GetMercyCounterParams) (MercyCounter, error) {
	row := q.db.QueryRowContext(ctx, getMercyCounter, arg.PlayerID, arg.ShardCategory)
	var i MercyCounter
	err := row.Scan(
		&i.PlayerID,
		&i.ShardCategory,
		&i.Pulls,
		&i.LastResetAt,
		&i.UpdatedAt,
	)
	return i, err
}

// last_reset_at is only written on insert; adding pulls is not a reset.
const upsertMercyPulls = `
INSERT INTO mercy_counters (player_id, shard_category, pulls, last_reset_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (player_id, shard_category) DO UPDATE SET
    pulls = excluded.pulls,
    updated_at = excluded.updated_at
`

type UpsertMercyPullsParams struct {
	PlayerID      string
	ShardCategory string
	Pulls         int64
	LastResetAt   time.Time
	UpdatedAt     time.Time
}

func (q *Queries) UpsertMercyPulls(ctx context.Context, arg UpsertMercyPullsParams) error {
	_, err := q.db.ExecContext(ctx, upsertMercyPulls,
		arg.PlayerID,
		arg.ShardCategory,
		arg.Pulls,
		arg.LastResetAt,
		arg.UpdatedAt,
	)
	return err
}

const resetMercyCounter = `
INSERT INTO mercy_counters (player_id, shard_category, pulls, last_reset_at, updated_at)
VALUES (?, ?, 0, ?, ?)
ON CONFLICT (player_id, shard_category) DO UPDATE SET
    pulls = 0,
    last_reset_at = excluded.last_reset_at,
    updated_at = excluded.updated_at
`

type ResetMercyCounterParams struct {
	PlayerID      string
	ShardCategory string
	ResetAt       time.Time
}

func (q *Queries) ResetMercyCounter(ctx context.Context, arg ResetMercyCounterParams) error {
	_, err := q.db.ExecContext(ctx, resetMercyCounter,
		arg.PlayerID,
		arg.ShardCategory,
		arg.ResetAt,
		arg.ResetAt,
	)
	return err
}

const listMercyCountersByPlayer = `
SELECT player_id, shard_category, pulls, last_reset_at, updated_at
FROM mercy_counters
WHERE player_id = ?
ORDER BY shard_category
`

func (q *Queries) ListMercyCountersByPlayer(ctx context.Context, playerID string) ([]MercyCounter, error) {
	rows, err := q.db.QueryContext(ctx, listMercyCountersByPlayer, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MercyCounter
	for rows.Next() {
		var i MercyCounter
		if err := rows.Scan(
			&i.PlayerID,
			&i.ShardCategory,
			&i.Pulls,
			&i.LastResetAt,
			&i.UpdatedAt,
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
