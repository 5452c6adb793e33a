package models

import "math"

// DerivedStats holds comparative ratios computed from one AnalysisResult.
// Values carry full precision; call Rounded before presenting them.
type DerivedStats struct {
	KillRatio        float64 `json:"killRatio"`
	DamageEfficiency float64 `json:"damageEfficiency"`
	TroopEfficiency  float64 `json:"troopEfficiency"`
	PowerDifference  int64   `json:"powerDifference"`
}

// Rounded returns a presentation copy with ratios rounded to two decimals.
func (s DerivedStats) Rounded() DerivedStats {
	return DerivedStats{
		KillRatio:        round2(s.KillRatio),
		DamageEfficiency: round2(s.DamageEfficiency),
		TroopEfficiency:  round2(s.TroopEfficiency),
		PowerDifference:  s.PowerDifference,
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Grade is the banded performance rating derived from DerivedStats.
type Grade struct {
	Grade string `json:"grade"`
	Label string `json:"label"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

// BattleComparison is the diff between two battles, used to judge whether
// the first is an improvement over the second.
type BattleComparison struct {
	DamageDealtDiff    float64 `json:"damageDealtDiff"`
	DamageReceivedDiff float64 `json:"damageReceivedDiff"`
	KillsDiff          int64   `json:"killsDiff"`
	OutcomeChange      bool    `json:"outcomeChange"`
	Improvement        bool    `json:"improvement"`
}
