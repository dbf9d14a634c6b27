package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/history"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View search history",
	Long: `View the history of recorded searches.

Each search run records its query, root, scope and match count. History
is pruned after the configured retention period.`,
	RunE: runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	RunE:  runHistoryClear,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Prune old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.History, error) {
	dir := viper.GetString("history.dir")
	if dir == "" {
		dir = config.DefaultHistoryDir()
	}
	return history.New(dir)
}

func runHistoryList(_ *cobra.Command, _ []string) error {
	h, err := openHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'wayfind WORD...' to search.")
		return nil
	}

	fmt.Printf("\n%-14s  %-8s  %-7s  %-30s  %s\n", "WHEN", "SCOPE", "MATCHES", "QUERY", "ROOT")
	fmt.Println(strings.Repeat("-", 90))

	for _, entry := range entries {
		query := strings.Join(entry.Query, " ")
		if entry.ProfileID != "" {
			query = fmt.Sprintf("[%s] %s", entry.ProfileID, query)
		}
		fmt.Printf("%-14s  %-8s  %-7d  %-30s  %s\n",
			humanize.Time(entry.Timestamp),
			entry.Scope.Name(),
			entry.Matches,
			truncateString(query, 30),
			types.AbbreviateHome(entry.Root),
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))

	return nil
}

func runHistoryClear(_ *cobra.Command, _ []string) error {
	h, err := openHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	if err := h.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	printInfo("History cleared.")
	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	h, err := openHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	retentionDays := viper.GetInt("history.retention_days")
	if retentionDays <= 0 {
		retentionDays = config.DefaultHistoryRetentionDays
	}

	printInfo("Pruning history entries older than %d days...", retentionDays)

	if err := h.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
