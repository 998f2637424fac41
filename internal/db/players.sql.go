package db

import (
	"context"
	"time"
)

const getPlayer = `
SELECT id, display_name, display_name_lower, created_at, updated_at
FROM players
WHERE id = ?
`

func (q *Queries) GetPlayer(ctx context.Context, id string) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, id)
	var i Player
	err := row.Scan(
		&i.ID,
		&i.DisplayName,
		&i.DisplayNameLower,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertPlayer = `
INSERT INTO players (id, display_name, display_name_lower, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    display_name = excluded.display_name,
    display_name_lower = excluded.display_name_lower,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	ID               string
	DisplayName      string
	DisplayNameLower string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.ID,
		arg.DisplayName,
		arg.DisplayNameLower,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const findPlayersByExactName = `
SELECT id, display_name, display_name_lower, created_at, updated_at
FROM players
WHERE display_name_lower = ?
ORDER BY id
LIMIT ?
`

type FindPlayersByExactNameParams struct {
	DisplayNameLower string
	Limit            int64
}

func (q *Queries) FindPlayersByExactName(ctx context.Context, arg FindPlayersByExactNameParams) ([]Player, error) {
	return q.listPlayers(ctx, findPlayersByExactName, arg.DisplayNameLower, arg.Limit)
}

const searchPlayersByName = `
SELECT id, display_name, display_name_lower, created_at, updated_at
FROM players
WHERE instr(display_name_lower, ?) > 0
ORDER BY id
LIMIT ?
`

type SearchPlayersByNameParams struct {
	Needle string
	Limit  int64
}

func (q *Queries) SearchPlayersByName(ctx context.Context, arg SearchPlayersByNameParams) ([]Player, error) {
	return q.listPlayers(ctx, searchPlayersByName, arg.Needle, arg.Limit)
}

func (q *Queries) listPlayers(ctx context.Context, query string, args ...interface{}) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.ID,
			&i.DisplayName,
			&i.DisplayNameLower,
			&i.CreatedAt,
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
