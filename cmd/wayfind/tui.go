package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wayfind-tools/wayfind/cmd/wayfind/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [WORD...]",
	Short: "Interactive search picker",
	Long: `Launch the interactive picker: type a query, browse ranked results
(list or tree), and press enter to print the selected path.

The selected absolute path goes to stdout so the picker composes with
shell wrappers:

  cd "$(wayfind tui)"`,
	Args: cobra.ArbitraryArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringP("root", "r", "", "search root directory")
	tuiCmd.Flags().StringP("profile", "p", "", "search profile from the settings file")
	tuiCmd.Flags().StringP("scope", "S", "", "entry scope: folders, files or both")
	tuiCmd.Flags().StringSliceP("exclude", "e", nil, "exclude glob patterns")
	tuiCmd.Flags().Int("min", 0, "minimum final query word length")
	tuiCmd.Flags().BoolP("fuzzy", "f", false, "enable fuzzy subsequence matching")
	tuiCmd.Flags().IntP("limit", "l", 0, "maximum number of results")
	tuiCmd.Flags().IntP("workers", "w", 0, "walk worker count (0 = auto)")
	tuiCmd.Flags().Int("max-depth", 0, "maximum depth below the root (0 = unlimited)")
	tuiCmd.Flags().Bool("no-cache", false, "bypass the directory-listing cache")
	tuiCmd.Flags().Bool("no-daemon", false, "bypass the index daemon")

	rootCmd.AddCommand(tuiCmd)
}

// runTUI launches the interactive picker. Also reached via `wayfind -i`.
func runTUI(cmd *cobra.Command, args []string) error {
	if err := initTUILogging(); err != nil {
		return fmt.Errorf("failed to initialize TUI logging: %w", err)
	}
	defer closeLogging()

	spec, err := resolveSearchSpec(cmd, args)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Root:         spec.Root,
		InitialQuery: strings.Join(args, " "),
		Min:          spec.Min,
		Scope:        spec.Scope,
		Excludes:     spec.Excludes,
		Fuzzy:        spec.Fuzzy,
		Limit:        spec.Limit,
		Workers:      spec.Workers,
		MaxDepth:     spec.MaxDepth,
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	if viper.GetBool("cache.enabled") && !noCache {
		if c := openCache(); c != nil {
			defer func() { _ = c.Close() }()
			opts.Cache = c
		}
	}

	noDaemon, _ := cmd.Flags().GetBool("no-daemon")
	if viper.GetBool("daemon.enabled") && !noDaemon {
		opts.Source = daemonSource(context.Background())
	}

	selection, err := tui.Run(opts)
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}

	if selection != "" {
		fmt.Println(selection)
	}
	return nil
}
