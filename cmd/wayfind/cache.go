package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/cache"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the directory-listing cache",
	Long: `Commands for managing the wayfind walk cache.

The cache stores per-directory listings so repeat searches of the same
root can skip unchanged directories. Cache data is stored in the XDG
cache directory (typically ~/.cache/wayfind/walks).`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays per-root cached entry counts and the cache location.`,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [root]",
	Short: "Clear cached listings",
	Long:  `Removes cached listings for a root, or the whole cache if no root is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(cacheDir())
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cacheDir() string {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return dir
	}
	return config.DefaultCachePath()
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	c, err := cache.Open(cacheDir())
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = c.Close() }()

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Printf("Cache location: %s\n", cacheDir())
	if len(stats) == 0 {
		fmt.Println("Cache: empty")
		return nil
	}

	var total int64
	fmt.Printf("\n%-10s  %s\n", "ENTRIES", "ROOT")
	for _, s := range stats {
		fmt.Printf("%-10d  %s\n", s.Entries, types.AbbreviateHome(s.Root))
		total += s.Entries
	}
	fmt.Printf("\nTotal: %d entries across %d roots\n", total, len(stats))

	return nil
}

func runCacheClear(_ *cobra.Command, args []string) error {
	c, err := cache.Open(cacheDir())
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = c.Close() }()

	if len(args) == 1 {
		if err := c.Clear(args[0]); err != nil {
			return fmt.Errorf("failed to clear cache for %s: %w", args[0], err)
		}
		printInfo("Cleared cache for %s", args[0])
		return nil
	}

	if err := c.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	printInfo("Cache cleared.")
	return nil
}
