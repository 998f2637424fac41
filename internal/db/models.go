package db

import (
	"time"
)

type Player struct {
	ID               string
	DisplayName      string
	DisplayNameLower string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PbRecord struct {
	PlayerID     string
	Boss         string
	Difficulty   string
	BestDamage   int64
	EvidenceRef  *string
	RecordedAt   time.Time
	AttemptCount int64
}

type PbHistory struct {
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

type MercyCounter struct {
	PlayerID      string
	ShardCategory string
	Pulls         int64
	LastResetAt   time.Time
	UpdatedAt     time.Time
}
