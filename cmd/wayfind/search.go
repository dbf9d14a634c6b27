package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/cache"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/client"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/history"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/match"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/output"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/profile"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/search"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/walker"
)

// searchSpec is the fully resolved search request: profile, config and
// flags merged.
type searchSpec struct {
	Root      string
	Words     match.Query
	Min       int
	Scope     types.Scope
	Excludes  []string
	Fuzzy     bool
	Limit     int
	Workers   int
	MaxDepth  int
	ProfileID string
}

// runSearch is the root command handler.
func runSearch(cmd *cobra.Command, args []string) error {
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return runTUI(cmd, args)
	}

	if len(args) == 0 {
		return cmd.Help()
	}

	if err := initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closeLogging()

	spec, err := resolveSearchSpec(cmd, args)
	if err != nil {
		return err
	}

	formatter, err := resolveFormatter(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	interrupted := false
	go func() {
		<-sigChan
		printInfo("Interrupted, stopping search...")
		interrupted = true
		cancel()
	}()

	opts := search.Options{
		Root:      spec.Root,
		Words:     spec.Words,
		MinLength: spec.Min,
		Scope:     spec.Scope,
		Excludes:  spec.Excludes,
		Fuzzy:     spec.Fuzzy,
		Limit:     spec.Limit,
		Workers:   spec.Workers,
		MaxDepth:  spec.MaxDepth,
	}

	// Directory-listing cache for repeat walks
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if viper.GetBool("cache.enabled") && !noCache {
		if c := openCache(); c != nil {
			defer func() { _ = c.Close() }()
			opts.Cache = c
		}
	}

	// Daemon index as candidate source
	noDaemon, _ := cmd.Flags().GetBool("no-daemon")
	daemonUp := false
	if viper.GetBool("daemon.enabled") && !noDaemon {
		if source := daemonSource(ctx); source != nil {
			opts.Source = source
			daemonUp = true
		}
	}

	result, err := search.New(opts).Search(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			printInfo("Search cancelled")
			return nil
		}
		if errors.Is(err, walker.ErrRootUnavailable) {
			return fmt.Errorf("cannot search %s: %w", spec.Root, err)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	// An undersized final word is not an error state: say why, print
	// nothing, exit 0.
	if result.Reason == search.ReasonQueryTooShort {
		printInfo("query too short (minimum length %d)", spec.Min)
		return nil
	}

	recordHistory(spec, result)

	if len(result.Matches) == 0 {
		printInfo("no results found")
	}

	out := &output.Result{
		Search:      result,
		DaemonUp:    daemonUp,
		Interrupted: interrupted,
	}
	if daemonUp && result.FromIndex {
		out.IndexAge = indexAge(ctx, result.Root)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, out); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())

	return nil
}

// resolveSearchSpec merges profile settings, app config and flags into
// one search request. Flags win over the profile, which wins over
// defaults.
func resolveSearchSpec(cmd *cobra.Command, args []string) (*searchSpec, error) {
	flagRoot, _ := cmd.Flags().GetString("root")
	profileID, _ := cmd.Flags().GetString("profile")
	if flagRoot != "" && profileID != "" {
		return nil, errors.New("--root and --profile are mutually exclusive")
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	spec := &searchSpec{
		Words:     match.ParseQuery(strings.Join(args, " ")),
		Root:      ".",
		Min:       settings.EffectiveMin(),
		Scope:     settings.EffectiveScope(),
		Excludes:  settings.Defaults.Excludes,
		ProfileID: profileID,
	}

	if profileID != "" {
		eff, err := settings.Effective(profileID)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", profileID, err)
		}
		spec.Root = eff.Dirpath
		spec.Min = eff.Min
		spec.Scope = eff.Scope
		spec.Excludes = eff.Excludes
	} else if flagRoot != "" {
		spec.Root = flagRoot
	}

	// Config-level excludes apply when the settings file carries none.
	if len(spec.Excludes) == 0 {
		spec.Excludes = viper.GetStringSlice("search.excludes")
	}

	expanded, err := config.ExpandPath(spec.Root)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	spec.Root = absRoot

	// Flag overrides
	if min, _ := cmd.Flags().GetInt("min"); min > 0 {
		spec.Min = min
	}
	if scopeStr, _ := cmd.Flags().GetString("scope"); scopeStr != "" {
		scope, err := types.ParseScope(scopeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid scope %q: %w", scopeStr, err)
		}
		spec.Scope = scope
	}
	if extra, _ := cmd.Flags().GetStringSlice("exclude"); len(extra) > 0 {
		spec.Excludes = append(spec.Excludes, extra...)
	}

	spec.Fuzzy = viper.GetBool("search.fuzzy")
	spec.Workers = viper.GetInt("search.workers")
	spec.MaxDepth = viper.GetInt("search.max_depth")

	spec.Limit = viper.GetInt("search.limit")
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		spec.Limit = limit
	}

	return spec, nil
}

// loadSettings reads the profile settings file. A missing file yields
// empty settings, not an error.
func loadSettings() (*profile.Settings, error) {
	path := viper.GetString("settings_path")
	if path == "" {
		path = profile.DefaultPath()
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	settings, err := profile.Load(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings %s: %w", expanded, err)
	}
	return settings, nil
}

// resolveFormatter picks the output formatter: the configured format, or
// plain on a terminal and bare paths when piped.
func resolveFormatter(cmd *cobra.Command) (output.Formatter, error) {
	format := viper.GetString("output.format")
	if format == "" {
		if stdoutIsTerminal() {
			format = config.DefaultFormat
		} else {
			format = "paths"
		}
	}

	if format == "template" {
		tmpl := viper.GetString("template")
		if tmpl == "" {
			tmpl, _ = cmd.Flags().GetString("template")
		}
		if tmpl == "" {
			return nil, errors.New("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(tmpl), nil
	}

	formatter, err := output.Get(format)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", format, output.Available())
	}
	return formatter, nil
}

func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// openCache opens the walk cache, logging rather than failing on error:
// a broken cache must never break the search.
func openCache() *cache.Cache {
	dir := viper.GetString("cache.dir")
	if dir == "" {
		dir = config.DefaultCachePath()
	}
	c, err := cache.Open(dir)
	if err != nil {
		printVerbose("cache unavailable: %v", err)
		return nil
	}
	return c
}

// daemonSource returns a candidate source backed by the index daemon, or
// nil when no daemon can serve. It optionally auto-starts wayfindd.
func daemonSource(ctx context.Context) search.CandidateSource {
	paths := daemonPathsFromViper()

	if viper.GetBool("daemon.auto_start") {
		if err := client.EnsureDaemon(ctx, paths); err != nil {
			printVerbose("daemon auto-start failed: %v", err)
		}
	}

	c := client.New(paths.Socket)
	if !c.Ping(ctx) {
		printVerbose("daemon not reachable at %s, walking directly", paths.Socket)
		return nil
	}
	return c
}

// daemonPathsFromViper builds daemon paths from the viper keys, matching
// the config package's DaemonConfig fields.
func daemonPathsFromViper() client.DaemonPaths {
	cfg := &config.DaemonConfig{
		BinaryPath: viper.GetString("daemon.binary_path"),
		SocketPath: viper.GetString("daemon.socket_path"),
		PIDPath:    viper.GetString("daemon.pid_path"),
		DataDir:    viper.GetString("daemon.data_dir"),
	}
	return client.PathsFromConfig(cfg)
}

// indexAge asks the daemon how old the serving index is. Zero when
// unknown.
func indexAge(ctx context.Context, root string) time.Duration {
	c := client.New(daemonPathsFromViper().Socket)
	status, err := c.IndexStatus(ctx, root)
	if err != nil || status.IndexedAt.IsZero() {
		return 0
	}
	return time.Since(status.IndexedAt)
}

// recordHistory appends the search to the history log. Failures are
// verbose-logged only.
func recordHistory(spec *searchSpec, result *types.SearchResult) {
	if !viper.GetBool("history.enabled") {
		return
	}

	dir := viper.GetString("history.dir")
	if dir == "" {
		dir = config.DefaultHistoryDir()
	}
	h, err := history.New(dir)
	if err != nil {
		printVerbose("history unavailable: %v", err)
		return
	}
	if err := h.EnsureDir(); err != nil {
		printVerbose("history unavailable: %v", err)
		return
	}

	_, err = h.Record(history.Entry{
		Root:      result.Root,
		Query:     result.Query,
		Scope:     result.Scope,
		ProfileID: spec.ProfileID,
		Matches:   len(result.Matches),
		Elapsed:   result.Elapsed,
		FromIndex: result.FromIndex,
	})
	if err != nil {
		printVerbose("failed to record history: %v", err)
	}
}
