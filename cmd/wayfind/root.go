package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "wayfind [flags] WORD...",
		Short: "Find directories and files by path components",
		Long: `Wayfind matches space-separated query words against the components of
paths beneath a root directory. The last word matches the final
component; earlier words match its parents, in order.

Examples:
  wayfind docs                  # Find folders named like "docs"
  wayfind api docs              # "docs" somewhere under an "api" component
  wayfind -p proj api           # Search using the "proj" profile
  wayfind -S files -f readme    # Fuzzy-match files
  wayfind profiles              # List configured profiles
  wayfind daemon start          # Start the background indexer`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearch,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/wayfind/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")

	// Search flags (root command only)
	rootCmd.Flags().StringP("root", "r", "", "search root directory")
	rootCmd.Flags().StringP("profile", "p", "", "search profile from the settings file")
	rootCmd.Flags().StringP("scope", "S", "", "entry scope: folders, files or both")
	rootCmd.Flags().StringSliceP("exclude", "e", nil, "exclude glob patterns (can be specified multiple times)")
	rootCmd.Flags().Int("min", 0, "minimum final query word length")
	rootCmd.Flags().BoolP("fuzzy", "f", false, "enable fuzzy subsequence matching")
	rootCmd.Flags().IntP("limit", "l", 0, "maximum number of results (0 = config default)")
	rootCmd.Flags().StringP("output", "o", "", "output format (paths, plain, json, jsonl, yaml, tsv, csv, markdown, template, pretty, tree)")
	rootCmd.Flags().String("template", "", "Go template for -o template")
	rootCmd.Flags().String("settings", "", "settings file with search profiles")
	rootCmd.Flags().IntP("workers", "w", 0, "walk worker count (0 = auto)")
	rootCmd.Flags().Int("max-depth", 0, "maximum depth below the root (0 = unlimited)")
	rootCmd.Flags().Bool("no-cache", false, "bypass the directory-listing cache")
	rootCmd.Flags().Bool("no-daemon", false, "bypass the index daemon, walk directly")
	rootCmd.Flags().BoolP("interactive", "i", false, "interactive picker (same as 'wayfind tui')")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("search.fuzzy", rootCmd.Flags().Lookup("fuzzy"))
	_ = viper.BindPFlag("search.workers", rootCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("search.max_depth", rootCmd.Flags().Lookup("max-depth"))
	_ = viper.BindPFlag("output.format", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("settings_path", rootCmd.Flags().Lookup("settings"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "wayfind"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "wayfind"))
		}
	}

	viper.SetEnvPrefix("WAYFIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("output.format", "")
	viper.SetDefault("output.color", true)
	viper.SetDefault("search.limit", config.DefaultLimit)
	viper.SetDefault("search.excludes", config.DefaultExcludes)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.retention_days", config.DefaultHistoryRetentionDays)
	viper.SetDefault("daemon.enabled", false)
	viper.SetDefault("daemon.auto_start", false)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr if quiet mode is not enabled.
// Stderr keeps stdout clean for piping result paths.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
