package server

import (
	"pb-tracker/internal/damage"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/mercy"
	"time"
)

type Evidence struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

type SubmitPBRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Boss        string `json:"boss"`
	Difficulty  string `json:"difficulty,omitempty"`
	// Damage accepts "1500000", "1.5M", "850k" and the like.
	Damage   string   `json:"damage"`
	Evidence Evidence `json:"evidence"`
}

type SubmitPBResponse struct {
	Status       string    `json:"status"`
	PreviousBest int64     `json:"previous_best"`
	NewBest      int64     `json:"new_best"`
	Improvement  int64     `json:"improvement"`
	Display      string    `json:"display"`
	Record       *PBRecord `json:"record,omitempty"`
}

type PBRecord struct {
	PlayerID       string    `json:"player_id"`
	DisplayName    string    `json:"display_name"`
	Boss           string    `json:"boss"`
	Difficulty     string    `json:"difficulty,omitempty"`
	DifficultyName string    `json:"difficulty_name,omitempty"`
	BestDamage     int64     `json:"best_damage"`
	Display        string    `json:"display"`
	EvidenceRef    string    `json:"evidence_ref,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
	AttemptCount   int64     `json:"attempt_count"`
}

type GetPBRequest struct {
	PlayerID   string `json:"player_id"`
	Boss       string `json:"boss"`
	Difficulty string `json:"difficulty,omitempty"`
}

type GetPBResponse struct {
	Record       PBRecord `json:"record"`
	EvidencePath string   `json:"evidence_path,omitempty"`
}

type GetAllPBsRequest struct {
	PlayerID string `json:"player_id"`
}

type GetAllPBsResponse struct {
	Records []PBRecord `json:"records"`
}

type GetHistoryRequest struct {
	PlayerID string `json:"player_id"`
	Limit    int    `json:"limit,omitempty"`
}

type HistoryEntry struct {
	ID           string    `json:"id"`
	Boss         string    `json:"boss"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Damage       int64     `json:"damage"`
	PreviousBest int64     `json:"previous_best"`
	CreatedAt    time.Time `json:"created_at"`
}

type GetHistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

type LeaderboardRequest struct {
	Boss       string `json:"boss"`
	Difficulty string `json:"difficulty,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Clan       string `json:"clan,omitempty"`
	// AllDifficulties returns one board per difficulty and ignores Difficulty.
	AllDifficulties bool `json:"all_difficulties,omitempty"`
}

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Clan        string    `json:"clan,omitempty"`
	Damage      int64     `json:"damage"`
	Display     string    `json:"display"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type Board struct {
	Boss           string             `json:"boss"`
	Difficulty     string             `json:"difficulty,omitempty"`
	DifficultyName string             `json:"difficulty_name,omitempty"`
	Entries        []LeaderboardEntry `json:"entries"`
}

type LeaderboardResponse struct {
	Boards []Board `json:"boards"`
}

type ResolvePlayerRequest struct {
	Query string `json:"query"`
}

type ResolvePlayerResponse struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

type MercyAddRequest struct {
	PlayerID string `json:"player_id"`
	Category string `json:"category"`
	Pulls    int64  `json:"pulls"`
}

type MercyResetRequest struct {
	PlayerID string `json:"player_id"`
	Category string `json:"category"`
	Subtype  string `json:"subtype,omitempty"`
}

type MercyResetResponse struct {
	Reset []string `json:"reset"`
}

type MercyStatusRequest struct {
	PlayerID string `json:"player_id"`
	// Category empty lists every counter the player has.
	Category string `json:"category,omitempty"`
}

type MercyStatusResponse struct {
	Statuses []mercy.Status `json:"statuses"`
}

func toPBRecord(r domain.PBRecord, difficultyName string) PBRecord {
	return PBRecord{
		PlayerID:       r.PlayerID,
		DisplayName:    r.DisplayName,
		Boss:           r.Boss,
		Difficulty:     r.Difficulty,
		DifficultyName: difficultyName,
		BestDamage:     r.BestDamage,
		Display:        damage.Format(r.BestDamage),
		EvidenceRef:    r.EvidenceRef,
		RecordedAt:     r.RecordedAt,
		AttemptCount:   r.AttemptCount,
	}
}

func toEntries(in []domain.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(in))
	for i, e := range in {
		out[i] = LeaderboardEntry{
			Rank:        e.Rank,
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName,
			Clan:        e.Clan,
			Damage:      e.Damage,
			Display:     damage.Format(e.Damage),
			RecordedAt:  e.RecordedAt,
		}
	}
	return out
}
