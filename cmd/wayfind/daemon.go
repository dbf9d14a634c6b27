package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/client"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the wayfindd daemon",
	Long: `Manage the wayfindd daemon for background path indexing.

The daemon maintains a filesystem index kept fresh by file watches, so
searches are served from the index instead of walking the tree.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the wayfindd daemon",
	Long:  `Start the wayfindd daemon in the background.`,
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the wayfindd daemon",
	Long:  `Stop the wayfindd daemon gracefully.`,
	RunE:  runDaemonStop,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the wayfindd daemon",
	RunE:  runDaemonRestart,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonIndexCmd = &cobra.Command{
	Use:   "index [root]",
	Short: "Index a root directory",
	Long:  `Trigger the daemon to index a root directory and watch it for changes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDaemonIndex,
}

var daemonClearCmd = &cobra.Command{
	Use:   "clear [root]",
	Short: "Clear the index for a root",
	Long:  `Clear the daemon's index for a root, or all indexes if no root is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDaemonClear,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonRestartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonIndexCmd)
	daemonCmd.AddCommand(daemonClearCmd)

	daemonIndexCmd.Flags().BoolP("force", "f", false, "Force re-indexing even if already indexed")
	daemonIndexCmd.Flags().BoolP("wait", "W", false, "Wait for indexing to finish, showing progress")
}

func runDaemonStart(_ *cobra.Command, _ []string) error {
	paths := daemonPathsFromViper()

	printVerbose("starting daemon (socket %s)...", paths.Socket)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.StartDaemon(ctx, paths); err != nil {
		if errors.Is(err, daemon.ErrDaemonAlreadyRunning) {
			printInfo("Daemon is already running")
			return nil
		}
		return err
	}

	printInfo("Daemon started")
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	paths := daemonPathsFromViper()

	if !daemon.IsDaemonRunning(paths.PID) {
		return errors.New("daemon is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.StopDaemon(ctx, paths); err != nil {
		return err
	}

	printInfo("Daemon stopped")
	return nil
}

func runDaemonRestart(_ *cobra.Command, _ []string) error {
	paths := daemonPathsFromViper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.RestartDaemon(ctx, paths); err != nil {
		return err
	}

	printInfo("Daemon restarted")
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	paths := daemonPathsFromViper()

	if !daemon.IsDaemonRunning(paths.PID) {
		printInfo("Daemon status: not running")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.New(paths.Socket)
	status, err := c.Status(ctx)
	if err != nil {
		printInfo("Daemon status: running (but not responding)")
		return nil
	}

	printInfo("Daemon status: running")
	printInfo("  PID:     %d", status.PID)
	printInfo("  Uptime:  %s", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
	printInfo("  Memory:  %s", types.FormatSize(status.MemoryBytes))
	printInfo("  Entries: %d", status.TotalEntries)
	printInfo("  Schema:  v%d", status.SchemaVersion)

	if len(status.IndexedRoots) > 0 {
		printInfo("  Indexed roots:")
		for _, root := range status.IndexedRoots {
			printInfo("    - %s", types.AbbreviateHome(root))
		}
	}
	if len(status.WatchedRoots) > 0 {
		printInfo("  Watched roots:")
		for _, root := range status.WatchedRoots {
			printInfo("    - %s", types.AbbreviateHome(root))
		}
	}

	return nil
}

func runDaemonIndex(cmd *cobra.Command, args []string) error {
	paths := daemonPathsFromViper()

	if !daemon.IsDaemonRunning(paths.PID) {
		return errors.New("daemon is not running (start with: wayfind daemon start)")
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(paths.Socket)
	force, _ := cmd.Flags().GetBool("force")
	result, err := c.TriggerIndex(ctx, absRoot, force)
	if err != nil {
		return fmt.Errorf("failed to trigger indexing: %w", err)
	}
	if !result.Started {
		printInfo("Indexing not started: %s", result.Message)
		return nil
	}

	wait, _ := cmd.Flags().GetBool("wait")
	if !wait {
		printInfo("Indexing started for %s", absRoot)
		return nil
	}

	return waitForIndexing(c, absRoot)
}

// waitForIndexing streams indexing progress until the run settles.
func waitForIndexing(c *client.Client, root string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	events, err := c.WatchProgress(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to watch progress: %w", err)
	}

	var last daemon.IndexProgressEvent
	for event := range events {
		last = event
		if event.State == daemon.IndexStateIndexing && !getQuiet() {
			fmt.Printf("\r  indexing: %d entries (%d dirs)", event.EntriesSeen, event.DirsScanned)
		}
	}
	if !getQuiet() {
		fmt.Println()
	}

	switch last.State {
	case daemon.IndexStateReady:
		printInfo("Indexing complete for %s", root)
		return nil
	case daemon.IndexStateStale:
		return fmt.Errorf("indexing failed for %s", root)
	default:
		return fmt.Errorf("indexing ended in unexpected state %q", last.State)
	}
}

func runDaemonClear(_ *cobra.Command, args []string) error {
	paths := daemonPathsFromViper()

	if !daemon.IsDaemonRunning(paths.PID) {
		return errors.New("daemon is not running")
	}

	root := ""
	if len(args) > 0 {
		absRoot, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve root: %w", err)
		}
		root = absRoot
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(paths.Socket)
	result, err := c.Clear(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	if root == "" {
		printInfo("Cleared all indexes (%d entries)", result.EntriesCleared)
	} else {
		printInfo("Cleared index for %s (%d entries)", root, result.EntriesCleared)
	}

	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
