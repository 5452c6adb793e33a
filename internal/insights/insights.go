package insights

import (
	"context"
	"fmt"
	"math"

	"github.com/battlelens/battlelens/internal/llm"
	"github.com/battlelens/battlelens/internal/logger"
	"github.com/battlelens/battlelens/internal/models"
	"github.com/battlelens/battlelens/internal/quota"
	"github.com/battlelens/battlelens/internal/vision"
)

// At most this many history entries are summarized for the inference
// service; older battles stay local.
const maxSummaries = 20

// Config selects the provider used for the AI trend narrative.
type Config struct {
	Provider  string
	Model     string
	MaxTokens int
}

// Generator produces insight reports from battle history. With fewer than
// two battles, or whenever the AI path fails for any reason, it falls back
// to the local heuristic so callers always receive a report.
type Generator struct {
	registry *llm.Registry
	governor quota.Governor
	cfg      Config
}

// New creates an insight generator.
func New(registry *llm.Registry, governor quota.Governor, cfg Config) *Generator {
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	return &Generator{
		registry: registry,
		governor: governor,
		cfg:      cfg,
	}
}

// Generate returns an insight report for the given history, most recent
// entry first. The AI path consumes quota like any analysis request, under
// the caller's client id.
func (g *Generator) Generate(ctx context.Context, clientID string, history []*models.HistoryEntry) *models.InsightReport {
	if len(history) < 2 {
		return Heuristic(history)
	}

	report, err := g.aiReport(ctx, clientID, history)
	if err != nil {
		logger.Warning("AI insights via %s unavailable, using heuristic fallback: %v", g.cfg.Provider, err)
		return Heuristic(history)
	}
	return report
}

func (g *Generator) aiReport(ctx context.Context, clientID string, history []*models.HistoryEntry) (*models.InsightReport, error) {
	provider, ok := g.registry.Get(g.cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("provider not registered: %s", g.cfg.Provider)
	}

	decision := g.governor.CheckAndReserve(clientID)
	if !decision.Allowed {
		return nil, fmt.Errorf("quota denied: %s", decision.Reason)
	}

	prompt, err := buildPrompt(summarize(history))
	if err != nil {
		g.governor.Release()
		return nil, err
	}

	config := map[string]interface{}{}
	if g.cfg.Model != "" {
		config["model"] = g.cfg.Model
	}
	if g.cfg.MaxTokens > 0 {
		config["max_tokens"] = g.cfg.MaxTokens
	}

	resp, err := provider.Generate(ctx, prompt, config)
	if err != nil {
		g.governor.Release()
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	if resp.Error != "" {
		g.governor.Release()
		return nil, fmt.Errorf("generation failed: %s", resp.Error)
	}

	// The upstream call happened; it counts against the daily budget even
	// if the reply turns out to be unparsable.
	g.governor.Commit()

	var report models.InsightReport
	if err := vision.ExtractJSON(resp.Text, &report); err != nil {
		return nil, fmt.Errorf("unparsable insight reply: %w", err)
	}
	return &report, nil
}

// summarize projects history entries into the condensed records sent
// upstream.
func summarize(history []*models.HistoryEntry) []models.BattleSummary {
	n := len(history)
	if n > maxSummaries {
		n = maxSummaries
	}

	summaries := make([]models.BattleSummary, 0, n)
	for _, entry := range history[:n] {
		summary := models.BattleSummary{
			Date:           entry.Date,
			Outcome:        entry.Outcome,
			Opponent:       entry.Opponent,
			BattleType:     entry.BattleType,
			DamageDealt:    entry.DamageDealt,
			DamageReceived: entry.DamageReceived,
			EnemyKilled:    entry.EnemyKilled,
		}
		if analysis := entry.Analysis; analysis != nil {
			if analysis.Opponent != nil {
				summary.OpponentPower = analysis.Opponent.Power
			}
			if analysis.Casualties != nil && analysis.Casualties.Player != nil {
				summary.PlayerKilled = analysis.Casualties.Player.Killed
			}
			summary.Troops = analysis.Troops
			summary.Heroes = analysis.Heroes
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Heuristic computes a fully local report: win rate, damage efficiency,
// a trend from the five most recent battles against the overall rate, and
// a banded rating. It is the single source of truth for the default report
// shape, so the AI path can degrade to it without diverging.
func Heuristic(history []*models.HistoryEntry) *models.InsightReport {
	total := len(history)
	wins := 0
	var totalDealt, totalReceived float64
	for _, entry := range history {
		if isVictory(entry.Outcome) {
			wins++
		}
		totalDealt += entry.DamageDealt
		totalReceived += entry.DamageReceived
	}

	winRate := 0.0
	if total > 0 {
		winRate = round1(float64(wins) / float64(total) * 100)
	}

	damageEfficiency := totalDealt
	if totalReceived > 0 {
		damageEfficiency = round2(totalDealt / totalReceived)
	}

	recent := history
	if len(recent) > 5 {
		recent = recent[:5]
	}
	recentWins := 0
	for _, entry := range recent {
		if isVictory(entry.Outcome) {
			recentWins++
		}
	}
	recentWinRate := 0.0
	if len(recent) > 0 {
		recentWinRate = float64(recentWins) / float64(len(recent)) * 100
	}

	trend := models.TrendStable
	switch {
	case recentWinRate > winRate+10:
		trend = models.TrendImproving
	case recentWinRate < winRate-10:
		trend = models.TrendDeclining
	}

	rating := models.RatingAverage
	switch {
	case winRate >= 70:
		rating = models.RatingExcellent
	case winRate >= 55:
		rating = models.RatingGood
	case winRate < 40:
		rating = models.RatingNeedsImprovement
	}

	strengths := []string{"Keep analyzing more battles for insights"}
	if total >= 3 && winRate >= 50 {
		strengths = []string{"Maintaining positive win rate"}
	}

	weaknesses := []string{"Continue tracking battles for pattern analysis"}
	if damageEfficiency < 1 {
		weaknesses = []string{"Taking more damage than dealing - consider defensive improvements"}
	}

	return &models.InsightReport{
		OverallPerformance: models.OverallPerformance{
			Rating:                  rating,
			WinRate:                 winRate,
			AverageDamageEfficiency: damageEfficiency,
			Trend:                   trend,
		},
		Strengths:  strengths,
		Weaknesses: weaknesses,
		Patterns: &models.BattlePatterns{
			BestPerformingTroopType:  "Analyze more battles to determine",
			WorstPerformingTroopType: "Analyze more battles to determine",
			OptimalBattleType:        "PVP",
			RiskyOpponents:           []string{"Higher power opponents"},
		},
		Recommendations: []models.Recommendation{
			{
				Priority:   "High",
				Category:   "Strategy",
				Suggestion: "Upload more battle screenshots for detailed pattern analysis",
			},
		},
		NextBattleTips: []string{
			"Review your troop composition before engaging",
			"Check opponent power level before attacking",
		},
		HeroAnalysis: &models.HeroAnalysis{
			MostEffectiveHero:   "Upload more battles to analyze",
			HeroRecommendations: "Include hero details in screenshots for analysis",
		},
		Summary: summaryText(winRate, total, trend),
	}
}

func summaryText(winRate float64, total int, trend string) string {
	phrase := "Your performance is consistent."
	switch trend {
	case models.TrendImproving:
		phrase = "Your performance is improving!"
	case models.TrendDeclining:
		phrase = "Recent performance shows room for improvement."
	}
	return fmt.Sprintf("You have a %.1f%% win rate across %d battles. %s", winRate, total, phrase)
}

func isVictory(outcome string) bool {
	return outcome == "Victory" || outcome == "victory"
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
