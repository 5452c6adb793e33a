package models

import "time"

// HistoryEntry is the storage-facing projection of one analyzed battle.
type HistoryEntry struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	Outcome         string          `json:"outcome"`
	Opponent        string          `json:"opponent"`
	BattleType      string          `json:"battleType"`
	DamageDealt     float64         `json:"damageDealt"`
	DamageReceived  float64         `json:"damageReceived"`
	EnemyKilled     int64           `json:"enemyKilled"`
	ScreenshotCount int             `json:"screenshotCount"`
	Analysis        *AnalysisResult `json:"analysis,omitempty"`
}

// NewHistoryEntry projects an AnalysisResult into a history record,
// defaulting the fields the analysis did not fill. ID and Date are set by
// the caller that owns persistence.
func NewHistoryEntry(analysis *AnalysisResult, screenshotCount int) *HistoryEntry {
	entry := &HistoryEntry{
		Outcome:         "Unknown",
		Opponent:        "Unknown",
		BattleType:      "PVP",
		ScreenshotCount: screenshotCount,
		Analysis:        analysis,
	}
	if analysis == nil {
		return entry
	}
	if analysis.Outcome != "" {
		entry.Outcome = analysis.Outcome
	}
	if analysis.BattleType != "" {
		entry.BattleType = analysis.BattleType
	}
	if analysis.Opponent != nil && analysis.Opponent.Name != "" {
		entry.Opponent = analysis.Opponent.Name
	}
	if analysis.Damage != nil {
		if analysis.Damage.Dealt != nil {
			entry.DamageDealt = analysis.Damage.Dealt.Total
		}
		if analysis.Damage.Received != nil {
			entry.DamageReceived = analysis.Damage.Received.Total
		}
	}
	if analysis.Casualties != nil && analysis.Casualties.Opponent != nil {
		entry.EnemyKilled = analysis.Casualties.Opponent.Killed
	}
	return entry
}

// HistoryStats aggregates the stored battle history for display.
type HistoryStats struct {
	TotalBattles     int     `json:"total_battles"`
	Wins             int     `json:"wins"`
	WinRate          float64 `json:"win_rate"`
	TotalDamageDealt float64 `json:"total_damage_dealt"`
	TotalKills       int64   `json:"total_kills"`
}
