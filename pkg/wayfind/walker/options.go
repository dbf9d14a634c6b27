// Package walker provides parallel directory traversal for the wayfind
// path searcher. It collects candidate entries below a search root using
// fastwalk, pruning excluded directories early and skipping unreadable
// ones silently.
package walker

import (
	"github.com/wayfind-tools/wayfind/pkg/wayfind/cache"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/exclude"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/tuner"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Options configures the walker behavior.
type Options struct {
	// Root is the directory whose subtree is walked.
	Root string

	// Scope selects which entry kinds become candidates. Directories are
	// always traversed regardless of scope.
	Scope types.Scope

	// Excludes prunes matching paths from the walk. Excluded directories
	// are never descended into.
	Excludes *exclude.Set

	// Workers is the number of concurrent fastwalk workers.
	// Zero means auto-detect from system resources.
	Workers int

	// MaxDepth limits how many components below the root are visited.
	// Zero means unlimited.
	MaxDepth int

	// OnProgress is called periodically with walk progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(types.SearchProgress)

	// Cache is an optional directory-listing cache for repeat walks.
	// If nil, caching is disabled.
	Cache *cache.Cache
}

// Validate fills defaults for unset values.
func (o *Options) Validate() error {
	if !o.Scope.Valid() {
		o.Scope = types.ScopeBoth
	}
	if o.Workers < 1 {
		resources, err := tuner.Detect()
		if err != nil {
			o.Workers = 4
		} else {
			o.Workers = tuner.Calculate(resources).WalkWorkers
		}
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	return nil
}
