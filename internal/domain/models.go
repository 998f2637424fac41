package domain

import (
	"time"
)

type Player struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PBKey identifies one record. Difficulty is empty for bosses without a
// difficulty axis.
type PBKey struct {
	PlayerID   string
	Boss       string
	Difficulty string
}

func (k PBKey) String() string {
	if k.Difficulty == "" {
		return k.PlayerID + "/" + k.Boss
	}
	return k.PlayerID + "/" + k.Boss + "/" + k.Difficulty
}

type PBRecord struct {
	PBKey
	DisplayName  string
	BestDamage   int64
	EvidenceRef  string // empty when no screenshot is stored
	RecordedAt   time.Time
	AttemptCount int64
}

type PBHistoryEntry struct {
	ID           string // nanoid
	PlayerID     string
	DisplayName  string
	Boss         string
	Difficulty   string
	Damage       int64
	PreviousBest int64
	EvidenceRef  string
	CreatedAt    time.Time
}

type LeaderboardEntry struct {
	Rank        int
	PlayerID    string
	DisplayName string
	Clan        string
	Damage      int64
	RecordedAt  time.Time
}

type MercyCounter struct {
	PlayerID    string
	Category    string
	Pulls       int64
	LastResetAt time.Time
	UpdatedAt   time.Time
}

type OutcomeStatus string

const (
	Improved    OutcomeStatus = "improved"
	NotImproved OutcomeStatus = "not_improved"
)

// Outcome is the result of a PB submission that passed validation.
type Outcome struct {
	Status       OutcomeStatus
	PreviousBest int64
	NewBest      int64
	Improvement  int64
	// Record is the stored record after the call; nil when none exists yet.
	Record *PBRecord
}
