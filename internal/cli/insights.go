package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/battlelens/battlelens/internal/db"
	"github.com/battlelens/battlelens/internal/insights"
	"github.com/battlelens/battlelens/internal/quota"
)

var insightsLocal bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate strategy insights from stored battles",
	Long: `Analyze the stored battle history and print strategy insights.

With an inference provider configured the report comes from the AI path;
otherwise, or with --local, the local heuristic report is printed.`,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsLocal, "local", false, "Skip the AI path and use the local heuristic")
}

func runInsights(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	history, err := store.ListEntries(ctx, db.MaxEntries)
	if err != nil {
		return fmt.Errorf("failed to load battles: %w", err)
	}

	report := insights.Heuristic(history)
	if !insightsLocal {
		// Counters are process-local, so this bounds only this invocation.
		governor := quota.NewMemory(quota.Config{
			Window:       time.Minute,
			MaxPerWindow: 1,
			DailyLimit:   cfg.Limits.DailyLimit,
		})
		generator := insights.New(newProviderRegistry(secrets), governor, insights.Config{
			Provider:  cfg.Insights.Provider,
			Model:     cfg.Insights.Model,
			MaxTokens: cfg.Insights.MaxTokens,
		})
		report = generator.Generate(ctx, "cli", history)
	}

	performance := report.OverallPerformance
	fmt.Println("🧠 Battle Insights")
	fmt.Println("==================")
	fmt.Printf("Rating: %s\n", performance.Rating)
	fmt.Printf("Win rate: %.1f%%\n", performance.WinRate)
	fmt.Printf("Damage efficiency: %.2f\n", performance.AverageDamageEfficiency)
	fmt.Printf("Trend: %s\n", performance.Trend)

	printList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("\n%s\n", title)
		for _, item := range items {
			fmt.Printf("  • %s\n", item)
		}
	}

	printList("💪 Strengths", report.Strengths)
	printList("⚠️  Weaknesses", report.Weaknesses)

	if len(report.Recommendations) > 0 {
		fmt.Println("\n🎯 Recommendations")
		for _, rec := range report.Recommendations {
			fmt.Printf("  [%s] %s: %s\n", rec.Priority, rec.Category, rec.Suggestion)
		}
	}

	printList("🗒️  Next battle tips", report.NextBattleTips)

	if report.Summary != "" {
		fmt.Printf("\n%s\n", report.Summary)
	}
	return nil
}
