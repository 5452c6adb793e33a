package stats

import (
	"github.com/battlelens/battlelens/internal/models"
)

// Compute derives comparative ratios from one analysis. Pure function: the
// same input always yields the same output and nothing is mutated.
//
// Zero-denominator policy: killRatio and damageEfficiency degrade to the raw
// numerator instead of dividing by zero; troopEfficiency is computed only
// when both troop totals are positive and stays zero otherwise.
func Compute(analysis *models.AnalysisResult) models.DerivedStats {
	var stats models.DerivedStats
	if analysis == nil {
		return stats
	}

	var playerKilled, opponentKilled int64
	if analysis.Casualties != nil {
		if analysis.Casualties.Player != nil {
			playerKilled = analysis.Casualties.Player.Killed
		}
		if analysis.Casualties.Opponent != nil {
			opponentKilled = analysis.Casualties.Opponent.Killed
		}
		if playerKilled > 0 {
			stats.KillRatio = float64(opponentKilled) / float64(playerKilled)
		} else {
			stats.KillRatio = float64(opponentKilled)
		}
	}

	if analysis.Damage != nil {
		var dealt, received float64
		if analysis.Damage.Dealt != nil {
			dealt = analysis.Damage.Dealt.Total
		}
		if analysis.Damage.Received != nil {
			received = analysis.Damage.Received.Total
		}
		if received > 0 {
			stats.DamageEfficiency = dealt / received
		} else {
			stats.DamageEfficiency = dealt
		}
	}

	if analysis.Troops != nil && analysis.Troops.Player != nil && analysis.Troops.Opponent != nil {
		playerTotal := analysis.Troops.Player.Total
		opponentTotal := analysis.Troops.Opponent.Total
		if playerTotal > 0 && opponentTotal > 0 {
			playerLossRate := float64(playerKilled) / float64(playerTotal)
			if playerLossRate == 0 {
				playerLossRate = 1
			}
			opponentLossRate := float64(opponentKilled) / float64(opponentTotal)
			stats.TroopEfficiency = opponentLossRate / playerLossRate
		}
	}

	if analysis.Player != nil && analysis.Opponent != nil &&
		analysis.Player.Power != "" && analysis.Opponent.Power != "" {
		stats.PowerDifference = analysis.Player.Power.Int64() - analysis.Opponent.Power.Int64()
	}

	return stats
}

// Grade maps derived stats onto a weighted score and one of six bands.
// Weights and thresholds are fixed policy constants.
func Grade(stats models.DerivedStats) models.Grade {
	score := 0

	switch {
	case stats.KillRatio >= 2:
		score += 30
	case stats.KillRatio >= 1:
		score += 20
	case stats.KillRatio >= 0.5:
		score += 10
	}

	switch {
	case stats.DamageEfficiency >= 2:
		score += 30
	case stats.DamageEfficiency >= 1:
		score += 20
	case stats.DamageEfficiency >= 0.5:
		score += 10
	}

	switch {
	case stats.TroopEfficiency >= 2:
		score += 40
	case stats.TroopEfficiency >= 1:
		score += 25
	case stats.TroopEfficiency >= 0.5:
		score += 15
	}

	switch {
	case score >= 80:
		return models.Grade{Grade: "S", Label: "Exceptional", Color: "#ffd700", Score: score}
	case score >= 65:
		return models.Grade{Grade: "A", Label: "Excellent", Color: "#4ade80", Score: score}
	case score >= 50:
		return models.Grade{Grade: "B", Label: "Good", Color: "#60a5fa", Score: score}
	case score >= 35:
		return models.Grade{Grade: "C", Label: "Average", Color: "#f7c548", Score: score}
	case score >= 20:
		return models.Grade{Grade: "D", Label: "Below Average", Color: "#fb923c", Score: score}
	default:
		return models.Grade{Grade: "F", Label: "Needs Work", Color: "#ef4444", Score: score}
	}
}

// Compare diffs two battles and judges whether the first is an improvement
// over the second.
func Compare(battle, baseline *models.HistoryEntry) models.BattleComparison {
	comparison := models.BattleComparison{
		DamageDealtDiff:    battle.DamageDealt - baseline.DamageDealt,
		DamageReceivedDiff: battle.DamageReceived - baseline.DamageReceived,
		KillsDiff:          battle.EnemyKilled - baseline.EnemyKilled,
		OutcomeChange:      battle.Outcome != baseline.Outcome,
	}

	comparison.Improvement = comparison.DamageDealtDiff > 0 ||
		comparison.KillsDiff > 0 ||
		(battle.Outcome == "Victory" && baseline.Outcome != "Victory")

	return comparison
}
