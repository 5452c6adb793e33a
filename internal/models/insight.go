package models

import "time"

// Trend classifications for OverallPerformance.
const (
	TrendImproving = "Improving"
	TrendStable    = "Stable"
	TrendDeclining = "Declining"
)

// Overall performance ratings.
const (
	RatingExcellent        = "Excellent"
	RatingGood             = "Good"
	RatingAverage          = "Average"
	RatingNeedsImprovement = "Needs Improvement"
)

// InsightReport is the narrative + structured recommendations produced from
// a battle history, either by the inference service or by the local
// heuristic fallback. Both paths emit the same shape.
type InsightReport struct {
	OverallPerformance OverallPerformance `json:"overallPerformance"`
	Strengths          []string           `json:"strengths,omitempty"`
	Weaknesses         []string           `json:"weaknesses,omitempty"`
	Patterns           *BattlePatterns    `json:"patterns,omitempty"`
	Recommendations    []Recommendation   `json:"recommendations,omitempty"`
	CounterStrategy    *CounterStrategy   `json:"counterStrategy,omitempty"`
	NextBattleTips     []string           `json:"nextBattleTips,omitempty"`
	HeroAnalysis       *HeroAnalysis      `json:"heroAnalysis,omitempty"`
	MoraleAndBuffs     *MoraleAndBuffs    `json:"moraleAndBuffs,omitempty"`
	Summary            string             `json:"summary,omitempty"`
}

// OverallPerformance summarizes win rate, efficiency and trend.
type OverallPerformance struct {
	Rating                  string  `json:"rating"`
	WinRate                 float64 `json:"winRate"`
	AverageDamageEfficiency float64 `json:"averageDamageEfficiency"`
	Trend                   string  `json:"trend"`
}

// BattlePatterns captures recurring behavior observed across battles.
type BattlePatterns struct {
	BestPerformingTroopType  string   `json:"bestPerformingTroopType,omitempty"`
	WorstPerformingTroopType string   `json:"worstPerformingTroopType,omitempty"`
	TypeCounterUsage         string   `json:"typeCounterUsage,omitempty"`
	FormationAnalysis        string   `json:"formationAnalysis,omitempty"`
	OptimalBattleType        string   `json:"optimalBattleType,omitempty"`
	RiskyOpponents           []string `json:"riskyOpponents,omitempty"`
}

// Recommendation is one prioritized, categorized suggestion.
type Recommendation struct {
	Priority   string `json:"priority"`
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// CounterStrategy gives guidance against each enemy troop focus.
type CounterStrategy struct {
	AgainstTanks    string `json:"againstTanks,omitempty"`
	AgainstAircraft string `json:"againstAircraft,omitempty"`
	AgainstMissiles string `json:"againstMissiles,omitempty"`
}

// HeroAnalysis assesses the commanders seen across the history.
type HeroAnalysis struct {
	DetectedHeroes      []string `json:"detectedHeroes,omitempty"`
	HeroTierAssessment  string   `json:"heroTierAssessment,omitempty"`
	HeroRecommendations string   `json:"heroRecommendations,omitempty"`
	MostEffectiveHero   string   `json:"mostEffectiveHero,omitempty"`
}

// MoraleAndBuffs assesses use of morale and formation mechanics.
type MoraleAndBuffs struct {
	MoraleUsage         string `json:"moraleUsage,omitempty"`
	FormationBonusUsage string `json:"formationBonusUsage,omitempty"`
	ImprovementTips     string `json:"improvementTips,omitempty"`
}

// BattleSummary is the condensed per-battle record sent to the inference
// service for trend analysis. Full raw analyses stay local.
type BattleSummary struct {
	Date           time.Time    `json:"date"`
	Outcome        string       `json:"outcome"`
	Opponent       string       `json:"opponent,omitempty"`
	OpponentPower  FlexNumber   `json:"opponentPower,omitempty"`
	BattleType     string       `json:"battleType,omitempty"`
	DamageDealt    float64      `json:"damageDealt,omitempty"`
	DamageReceived float64      `json:"damageReceived,omitempty"`
	EnemyKilled    int64        `json:"enemyKilled,omitempty"`
	PlayerKilled   int64        `json:"playerKilled,omitempty"`
	Troops         *TroopReport `json:"troops,omitempty"`
	Heroes         []Hero       `json:"heroes,omitempty"`
}
