package insights

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battlelens/battlelens/internal/llm"
	"github.com/battlelens/battlelens/internal/models"
	"github.com/battlelens/battlelens/internal/quota"
)

type fakeProvider struct {
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "anthropic" }

func (f *fakeProvider) Validate(config map[string]string) error { return nil }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, config map[string]interface{}) (*llm.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Provider: f.Name()}, nil
}

func newGenerator(provider llm.Provider, dailyLimit int) (*Generator, quota.Governor) {
	registry := llm.NewRegistry()
	if provider != nil {
		registry.Register(provider)
	}
	governor := quota.NewMemory(quota.Config{
		Window:       time.Minute,
		MaxPerWindow: 100,
		DailyLimit:   dailyLimit,
	})
	return New(registry, governor, Config{Provider: "anthropic"}), governor
}

func entries(outcomes ...string) []*models.HistoryEntry {
	history := make([]*models.HistoryEntry, 0, len(outcomes))
	for _, outcome := range outcomes {
		history = append(history, &models.HistoryEntry{
			Outcome:     outcome,
			DamageDealt: 100,
			EnemyKilled: 10,
		})
	}
	return history
}

func TestGenerate(t *testing.T) {
	t.Run("single battle stays local", func(t *testing.T) {
		provider := &fakeProvider{text: "{}"}
		generator, governor := newGenerator(provider, 10)

		report := generator.Generate(context.Background(), "client", entries("Victory"))

		require.NotNil(t, report)
		assert.Zero(t, provider.calls)
		assert.Equal(t, 0, governor.Snapshot().RequestsToday)
		assert.Equal(t, float64(100), report.OverallPerformance.WinRate)
		assert.Equal(t, models.TrendStable, report.OverallPerformance.Trend)
	})

	t.Run("provider failure degrades silently to the heuristic", func(t *testing.T) {
		provider := &fakeProvider{err: context.DeadlineExceeded}
		generator, governor := newGenerator(provider, 10)

		// Most recent first: Victory, Victory, Defeat, Victory, Victory, Defeat.
		history := entries("Victory", "Victory", "Defeat", "Victory", "Victory", "Defeat")
		report := generator.Generate(context.Background(), "client", history)

		require.NotNil(t, report)
		assert.Equal(t, 1, provider.calls)
		assert.Equal(t, 0, governor.Snapshot().RequestsToday, "failed calls must not consume quota")

		// 4/6 wins overall, 4/5 recent: the recent rate clears the +10 band.
		assert.InDelta(t, 66.7, report.OverallPerformance.WinRate, 0.01)
		assert.Equal(t, models.TrendImproving, report.OverallPerformance.Trend)
		assert.Equal(t, models.RatingGood, report.OverallPerformance.Rating)
		assert.Contains(t, report.Summary, "66.7% win rate across 6 battles")
		assert.Contains(t, report.Summary, "improving")
	})

	t.Run("quota denial falls back without calling the provider", func(t *testing.T) {
		provider := &fakeProvider{text: "{}"}
		generator, governor := newGenerator(provider, 1)
		require.True(t, governor.CheckAndReserve("other").Allowed)
		governor.Commit()

		report := generator.Generate(context.Background(), "client", entries("Victory", "Defeat"))

		require.NotNil(t, report)
		assert.Zero(t, provider.calls)
		assert.Equal(t, models.RatingAverage, report.OverallPerformance.Rating)
	})

	t.Run("missing provider falls back", func(t *testing.T) {
		generator, _ := newGenerator(nil, 10)

		report := generator.Generate(context.Background(), "client", entries("Defeat", "Defeat"))

		require.NotNil(t, report)
		assert.Equal(t, models.RatingNeedsImprovement, report.OverallPerformance.Rating)
	})

	t.Run("structured reply is extracted from prose", func(t *testing.T) {
		provider := &fakeProvider{text: `Here is the analysis:
{"overallPerformance":{"rating":"Excellent","winRate":75,"averageDamageEfficiency":1.8,"trend":"Improving"},"summary":"Strong tank usage."}`}
		generator, governor := newGenerator(provider, 10)

		report := generator.Generate(context.Background(), "client", entries("Victory", "Defeat"))

		require.NotNil(t, report)
		assert.Equal(t, "Excellent", report.OverallPerformance.Rating)
		assert.Equal(t, float64(75), report.OverallPerformance.WinRate)
		assert.Equal(t, "Strong tank usage.", report.Summary)
		assert.Equal(t, 1, governor.Snapshot().RequestsToday)
	})

	t.Run("unparsable reply degrades but still consumes quota", func(t *testing.T) {
		provider := &fakeProvider{text: "no structured data here"}
		generator, governor := newGenerator(provider, 10)

		report := generator.Generate(context.Background(), "client", entries("Victory", "Victory"))

		require.NotNil(t, report)
		assert.Equal(t, float64(100), report.OverallPerformance.WinRate)
		assert.Equal(t, 1, governor.Snapshot().RequestsToday, "the upstream call happened")
	})
}

func TestHeuristic(t *testing.T) {
	t.Run("empty history yields a zeroed but complete report", func(t *testing.T) {
		report := Heuristic(nil)

		require.NotNil(t, report)
		assert.Zero(t, report.OverallPerformance.WinRate)
		assert.Equal(t, models.TrendStable, report.OverallPerformance.Trend)
		assert.Equal(t, models.RatingNeedsImprovement, report.OverallPerformance.Rating)
		assert.NotEmpty(t, report.Strengths)
		assert.NotEmpty(t, report.NextBattleTips)
		assert.NotNil(t, report.Patterns)
		assert.NotNil(t, report.HeroAnalysis)
	})

	t.Run("declining run is flagged", func(t *testing.T) {
		// Five recent defeats against a winning older stretch.
		history := entries("Defeat", "Defeat", "Defeat", "Defeat", "Defeat",
			"Victory", "Victory", "Victory", "Victory", "Victory")

		report := Heuristic(history)

		assert.Equal(t, models.TrendDeclining, report.OverallPerformance.Trend)
		assert.Contains(t, report.Summary, "room for improvement")
	})

	t.Run("damage imbalance surfaces a defensive weakness", func(t *testing.T) {
		history := []*models.HistoryEntry{
			{Outcome: "Victory", DamageDealt: 100, DamageReceived: 400},
			{Outcome: "Defeat", DamageDealt: 100, DamageReceived: 400},
		}

		report := Heuristic(history)

		assert.Equal(t, 0.25, report.OverallPerformance.AverageDamageEfficiency)
		assert.Contains(t, report.Weaknesses[0], "defensive improvements")
	})

	t.Run("sustained winning earns the positive strength", func(t *testing.T) {
		report := Heuristic(entries("Victory", "Victory", "Defeat"))

		assert.Equal(t, []string{"Maintaining positive win rate"}, report.Strengths)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("caps at twenty battles and projects analysis fields", func(t *testing.T) {
		history := make([]*models.HistoryEntry, 0, 25)
		for i := 0; i < 25; i++ {
			history = append(history, &models.HistoryEntry{
				Outcome: "Victory",
				Analysis: &models.AnalysisResult{
					Opponent: &models.Combatant{Power: "2,400,000"},
					Casualties: &models.CasualtyReport{
						Player: &models.SideCasualties{Killed: 42},
					},
				},
			})
		}

		summaries := summarize(history)

		require.Len(t, summaries, 20)
		assert.Equal(t, models.FlexNumber("2,400,000"), summaries[0].OpponentPower)
		assert.Equal(t, int64(42), summaries[0].PlayerKilled)
	})
}
