// Package mercy computes drop chances and guarantee points from pull counts.
// Everything here is a pure function of the rule tables and the counter.
package mercy

import (
	"math"

	"pb-tracker/internal/catalog"
)

// Status is the derived view of one counter.
type Status struct {
	Category      string  `json:"category"`
	Pulls         int64   `json:"pulls"`
	ChancePercent float64 `json:"chance_percent"`
	GuaranteedAt  int64   `json:"guaranteed_at"`
	Remaining     int64   `json:"remaining"`
}

// Chance is base up to and including the threshold, then grows by increment
// per pull. It is not capped at 100.
func Chance(rule catalog.MercyRule, pulls int64) float64 {
	p := float64(pulls)
	if p <= rule.Threshold {
		return rule.Base
	}
	return rule.Base + (p-rule.Threshold)*rule.Increment
}

// GuaranteedAt is the pull at which the guaranteed model reaches 100%.
func GuaranteedAt(rule catalog.GuaranteedRule) int64 {
	if rule.Increment <= 0 {
		return 0
	}
	return int64(math.Ceil(rule.Start + (100-rule.Base)/rule.Increment))
}

func Remaining(guaranteedAt, pulls int64) int64 {
	return max(0, guaranteedAt-pulls)
}

func Evaluate(category string, m catalog.MercyRule, g catalog.GuaranteedRule, pulls int64) Status {
	at := GuaranteedAt(g)
	return Status{
		Category:      category,
		Pulls:         pulls,
		ChancePercent: Chance(m, pulls),
		GuaranteedAt:  at,
		Remaining:     Remaining(at, pulls),
	}
}
