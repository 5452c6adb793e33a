package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/battlelens/battlelens/internal/stats"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored battle history",
}

var historyListCmd = &cobra.Command{
	Use:   "list [limit]",
	Short: "List stored battles, most recent first",
	RunE:  runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated history statistics",
	RunE:  runHistoryStats,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored battles",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit := 0
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit: %s", args[0])
		}
		limit = parsed
	}

	entries, err := store.ListEntries(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("failed to list battles: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No battles recorded yet.")
		return nil
	}

	fmt.Printf("⚔️  %d battle(s)\n", len(entries))
	fmt.Println("==================")
	for _, entry := range entries {
		grade := stats.Grade(stats.Compute(entry.Analysis))
		fmt.Printf("%s  %-8s vs %-20s %s  [%s %d]\n",
			entry.Date.Format("2006-01-02 15:04"),
			entry.Outcome,
			entry.Opponent,
			entry.BattleType,
			grade.Grade,
			grade.Score,
		)
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	historyStats, err := store.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to aggregate battles: %w", err)
	}

	fmt.Println("📊 Battle Statistics")
	fmt.Println("====================")
	fmt.Printf("Total battles: %d\n", historyStats.TotalBattles)
	fmt.Printf("Wins: %d\n", historyStats.Wins)
	fmt.Printf("Win rate: %.1f%%\n", historyStats.WinRate)
	fmt.Printf("Total damage dealt: %.0f\n", historyStats.TotalDamageDealt)
	fmt.Printf("Total kills: %d\n", historyStats.TotalKills)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	removed, err := store.ClearEntries(context.Background())
	if err != nil {
		return fmt.Errorf("failed to clear battles: %w", err)
	}

	fmt.Printf("🗑️  Removed %d battle(s).\n", removed)
	return nil
}
