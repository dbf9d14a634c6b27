package cache

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// ValidationResult contains the results of cache validation.
type ValidationResult struct {
	// ValidEntries are candidate entries from cache that are still valid.
	ValidEntries []types.Entry

	// StaleDirs are directories that need to be rewalked.
	StaleDirs []string
}

// Validator validates cached directory listings against the filesystem.
type Validator struct {
	store *Store
}

// NewValidator creates a new cache validator.
func NewValidator(store *Store) *Validator {
	return &Validator{store: store}
}

// Validate checks the cache against the filesystem and returns what's stale.
// For performance, this only checks the root directory mtime. If unchanged,
// all cached entries are served as valid. If changed, the entire tree is
// marked stale for a full rewalk.
func (v *Validator) Validate(root string) (*ValidationResult, error) {
	result := &ValidationResult{}

	cachedRoot, err := v.store.Get(root, "")
	if errors.Is(err, ErrNotFound) {
		// No cache for this root - entire tree is stale.
		result.StaleDirs = []string{root}
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}

	if rootInfo.ModTime().UnixNano() != cachedRoot.Mtime {
		// Root changed - conservative full rewalk.
		result.StaleDirs = []string{root}
		return result, nil
	}

	// Root unchanged - collect all cached entries without stat calls.
	if err := v.collectCachedEntries(root, "", result); err != nil {
		return nil, err
	}

	return result, nil
}

// collectCachedEntries recursively collects candidate entries from a cached
// subtree. This is a fast O(cached entries) operation that does no stat
// calls: it trusts the cache completely since the root mtime was verified.
// The root itself (relPath "") is never a candidate.
func (v *Validator) collectCachedEntries(root, relPath string, result *ValidationResult) error {
	cached, err := v.store.Get(root, relPath)
	if err != nil {
		return err
	}

	if relPath != "" {
		name := relPath
		if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
			name = relPath[idx+1:]
		}
		result.ValidEntries = append(result.ValidEntries, types.Entry{
			RelPath: relPath,
			Name:    name,
			IsDir:   cached.IsDir,
			Depth:   strings.Count(relPath, "/") + 1,
			Size:    cached.Size,
			ModTime: time.Unix(0, cached.Mtime),
		})
	}

	if !cached.IsDir {
		return nil
	}

	for _, childName := range cached.Children {
		childRelPath := childName
		if relPath != "" {
			childRelPath = relPath + "/" + childName
		}
		if err := v.collectCachedEntries(root, childRelPath, result); err != nil {
			return err
		}
	}

	return nil
}
