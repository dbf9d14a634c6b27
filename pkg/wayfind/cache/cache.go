// Package cache provides a badger-backed cache of directory listings so
// repeated direct walks of an unchanged tree can skip the filesystem
// entirely. Cache failures always degrade to plain walking, never fail a
// search.
package cache

import (
	"sort"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Cache provides high-level caching operations for direct walks.
type Cache struct {
	store     *Store
	validator *Validator
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}

	return &Cache{
		store:     store,
		validator: NewValidator(store),
	}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// ValidateAndGetStale validates the cache and returns valid candidate
// entries and stale directories. If the cache is fully valid, staleDirs is
// empty and the entries can serve the search without touching the tree. If
// the cache is empty or stale, staleDirs lists directories to rewalk.
func (c *Cache) ValidateAndGetStale(root string) ([]types.Entry, []string, error) {
	result, err := c.validator.Validate(root)
	if err != nil {
		return nil, nil, err
	}

	return result.ValidEntries, result.StaleDirs, nil
}

// Update replaces the cached listings for a root with entries collected
// during a walk.
func (c *Cache) Update(root string, entries map[string]*CachedEntry) error {
	return c.store.PutBatch(root, entries)
}

// Clear removes all cached entries for a root.
func (c *Cache) Clear(root string) error {
	return c.store.DeletePrefix(root)
}

// ClearAll removes all cached entries.
func (c *Cache) ClearAll() error {
	// Delete with empty prefix to clear everything.
	return c.store.DeletePrefix("")
}

// RootStats describes the cached entry count for one root.
type RootStats struct {
	Root    string `json:"root"`
	Entries int64  `json:"entries"`
}

// Stats returns per-root entry counts, sorted by root path.
func (c *Cache) Stats() ([]RootStats, error) {
	counts, err := c.store.CountRoots()
	if err != nil {
		return nil, err
	}

	stats := make([]RootStats, 0, len(counts))
	for root, n := range counts {
		stats = append(stats, RootStats{Root: root, Entries: n})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Root < stats[j].Root })
	return stats, nil
}
