package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List configured search profiles",
	Long: `List the search profiles from the settings file.

Each profile pairs a root directory with an optional trigger keyword and
per-profile overrides for the minimum query length, scope and excludes.
Profiles are read-only: edit the settings file to change them.`,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	fmt.Printf("Defaults: min=%d scope=%s", settings.EffectiveMin(), settings.EffectiveScope().Name())
	if len(settings.Defaults.Excludes) > 0 {
		fmt.Printf(" excludes=%s", strings.Join(settings.Defaults.Excludes, ","))
	}
	fmt.Println()

	ids := settings.OrderedIDs()
	if len(ids) == 0 {
		printInfo("No profiles configured.")
		return nil
	}

	fmt.Println()
	for _, id := range ids {
		eff, err := settings.Effective(id)
		if err != nil {
			continue
		}

		keyword := eff.Keyword
		if keyword == "" {
			keyword = "(no keyword)"
		}
		fmt.Printf("%-12s %s ➣ %s\n", id, keyword, types.AbbreviateHome(eff.Dirpath))
		fmt.Printf("             min=%d scope=%s", eff.Min, eff.Scope.Name())
		if len(eff.Excludes) > 0 {
			fmt.Printf(" excludes=%s", strings.Join(eff.Excludes, ","))
		}
		fmt.Println()
	}

	return nil
}
