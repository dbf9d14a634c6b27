// Package search orchestrates one query: it gates on the minimum
// query-length rule, produces candidates from the index daemon or a direct
// walk, and applies matching and ranking to produce the final result.
package search

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/cache"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/exclude"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/match"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/walker"
)

// ReasonQueryTooShort is the Reason set on results of gated searches.
const ReasonQueryTooShort = "query too short"

// CandidateSource produces candidate entries for a root without walking,
// typically from the index daemon. Implementations return
// ErrSourceUnavailable (or wrap it) when they cannot serve, in which case
// the searcher falls back to a direct walk.
type CandidateSource interface {
	Candidates(ctx context.Context, root string, scope types.Scope) ([]types.Entry, error)
}

// ErrSourceUnavailable indicates a candidate source cannot currently
// serve; the searcher then walks directly.
var ErrSourceUnavailable = errors.New("candidate source unavailable")

// Options configures one search.
type Options struct {
	// Root is the search root directory.
	Root string

	// Words is the parsed query.
	Words match.Query

	// MinLength is the minimum length of the final query word. A shorter
	// final word means no search runs at all.
	MinLength int

	// Scope selects folders, files or both.
	Scope types.Scope

	// Excludes are glob patterns; matching paths are never returned.
	Excludes []string

	// Fuzzy enables fuzzy subsequence matching.
	Fuzzy bool

	// Limit caps the number of results after ranking. Zero means
	// unlimited.
	Limit int

	// Workers is the direct-walk worker count. Zero means auto.
	Workers int

	// MaxDepth limits the walk depth. Zero means unlimited.
	MaxDepth int

	// Cache is the optional directory-listing cache for direct walks.
	Cache *cache.Cache

	// Source optionally serves candidates without walking. When it fails
	// the searcher falls back to a direct walk.
	Source CandidateSource

	// OnProgress receives direct-walk progress updates.
	OnProgress func(types.SearchProgress)
}

// Searcher executes searches. The zero value is not usable; construct
// with New.
type Searcher struct {
	opts Options
}

// New creates a Searcher.
func New(opts Options) *Searcher {
	return &Searcher{opts: opts}
}

// Search runs the query and returns ranked matches. An undersized final
// query word yields an empty result with Reason set, not an error. A
// missing or unreadable root returns walker.ErrRootUnavailable.
func (s *Searcher) Search(ctx context.Context) (*types.SearchResult, error) {
	start := time.Now()

	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return nil, err
	}

	result := &types.SearchResult{
		Root:  root,
		Query: s.opts.Words,
		Scope: s.opts.Scope,
	}

	if !s.opts.Words.Runnable(s.opts.MinLength) {
		result.Reason = ReasonQueryTooShort
		result.Elapsed = time.Since(start)
		return result, nil
	}

	excludes := exclude.Compile(s.opts.Excludes)

	entries, fromIndex, walkStats, err := s.candidates(ctx, root, excludes)
	if err != nil {
		return nil, err
	}
	result.FromIndex = fromIndex
	if walkStats != nil {
		result.DirsWalked = walkStats.DirsWalked
		result.Errors = walkStats.Errors
		result.Candidates = walkStats.EntriesSeen
	} else {
		result.Candidates = int64(len(entries))
	}

	matcher := match.New(s.opts.Words, match.WithFuzzy(s.opts.Fuzzy), match.WithLimit(s.opts.Limit))
	result.Matches = matcher.Apply(root, entries)
	result.Elapsed = time.Since(start)

	return result, nil
}

// candidates produces the entry set to match against. Index-served
// entries are filtered through scope and excludes here, since the daemon
// index is scope-agnostic; walked entries arrive already filtered.
func (s *Searcher) candidates(ctx context.Context, root string, excludes *exclude.Set) ([]types.Entry, bool, *walker.Result, error) {
	if s.opts.Source != nil {
		entries, err := s.opts.Source.Candidates(ctx, root, s.opts.Scope)
		if err == nil {
			return filterEntries(entries, s.opts.Scope, excludes, s.opts.MaxDepth), true, nil, nil
		}
		if !errors.Is(err, ErrSourceUnavailable) {
			return nil, false, nil, err
		}
		logging.Get("search").Debug("index unavailable, walking directly", "root", root, "error", err)
	}

	w := walker.New(walker.Options{
		Root:       root,
		Scope:      s.opts.Scope,
		Excludes:   excludes,
		Workers:    s.opts.Workers,
		MaxDepth:   s.opts.MaxDepth,
		OnProgress: s.opts.OnProgress,
		Cache:      s.opts.Cache,
	})
	result, err := w.Walk(ctx)
	if err != nil {
		return nil, false, nil, err
	}
	return result.Entries, false, result, nil
}

// filterEntries applies scope, excludes and depth to index-served
// candidates.
func filterEntries(entries []types.Entry, scope types.Scope, excludes *exclude.Set, maxDepth int) []types.Entry {
	out := make([]types.Entry, 0, len(entries))
	for _, e := range entries {
		if maxDepth > 0 && e.Depth > maxDepth {
			continue
		}
		if !scope.Includes(e.IsDir) {
			continue
		}
		if excludes.Match(e.RelPath, e.IsDir) {
			continue
		}
		out = append(out, e)
	}
	return out
}
