// Package indexer builds the path index by walking roots with fastwalk.
package indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/store"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Progress reports indexing progress.
type Progress struct {
	Root        string
	DirsScanned int64
	EntriesSeen int64
	CurrentPath string
}

// Result contains the final indexing results.
type Result struct {
	Root          string
	DirsIndexed   int64
	FilesIndexed  int64
	Duration      time.Duration
	Covered       bool     // True if the root was already covered by an indexed root
	CoveredBy     string   // The indexed root that covers this one (if Covered is true)
	SubsumedRoots []string // Child roots absorbed by this indexing operation
}

// ProgressFunc is called with progress updates.
type ProgressFunc func(Progress)

// batchSize is the number of entries buffered before a store write.
const batchSize = 1000

// Indexer indexes search roots into the store.
type Indexer struct {
	store *store.Store
}

// New creates a new indexer.
func New(s *store.Store) *Indexer {
	return &Indexer{store: s}
}

// indexState holds the state during indexing.
type indexState struct {
	dirsScanned atomic.Int64
	entriesSeen atomic.Int64
	currentPath atomic.Value
	entriesMu   sync.Mutex
	entries     []types.Entry
}

// Index indexes a root and stores results. A root already covered by an
// existing index is not re-walked; the covering root is reported instead.
func (idx *Indexer) Index(ctx context.Context, root string, onProgress ProgressFunc) (*Result, error) {
	startTime := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if covering, ok := idx.store.CoveringRoot(absRoot); ok && covering != absRoot {
		return &Result{
			Root:      absRoot,
			Duration:  time.Since(startTime),
			Covered:   true,
			CoveredBy: covering,
		}, nil
	}

	rootInfo, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !rootInfo.IsDir() {
		return nil, errors.New("index root is not a directory")
	}

	// Replace any previous index for this root.
	if err := idx.store.DeleteTree(absRoot, ""); err != nil {
		return nil, err
	}

	state := &indexState{}
	state.currentPath.Store("")

	done := idx.startProgressReporter(ctx, absRoot, state, onProgress)
	defer func() {
		close(done)
		idx.sendProgress(absRoot, state, onProgress)
	}()

	err = idx.walkFilesystem(ctx, absRoot, state)
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	if err := idx.flushRemainingEntries(absRoot, state); err != nil {
		return nil, err
	}

	dirs := state.dirsScanned.Load()
	files := state.entriesSeen.Load() - dirs

	// Save metadata for fast status lookups and staleness checks.
	_ = idx.store.SetIndexMeta(absRoot, &store.IndexMeta{
		Files:       files,
		Dirs:        dirs,
		IndexedAt:   time.Now(),
		RootModTime: rootInfo.ModTime().Unix(),
	})

	// Ensure schema is up to date (new indexes are always current version)
	if schema := idx.store.GetSchema(); schema == nil || schema.Version < store.CurrentSchemaVersion {
		_ = idx.store.SetSchema(&store.Schema{Version: store.CurrentSchemaVersion, UpdatedAt: time.Now()})
	}

	subsumed, err := idx.subsumeChildRoots(absRoot)
	if err != nil {
		return nil, err
	}

	return &Result{
		Root:          absRoot,
		DirsIndexed:   dirs,
		FilesIndexed:  files,
		Duration:      time.Since(startTime),
		SubsumedRoots: subsumed,
	}, nil
}

// subsumeChildRoots removes indexes for roots beneath the newly indexed
// one; their entries are now served by the parent index.
func (idx *Indexer) subsumeChildRoots(absRoot string) ([]string, error) {
	roots, err := idx.store.Roots()
	if err != nil {
		return nil, err
	}

	var subsumed []string
	for _, r := range roots {
		if r == absRoot {
			continue
		}
		if store.IsPathUnderRoot(r, absRoot) {
			if err := idx.store.DeleteRoot(r); err != nil {
				return subsumed, err
			}
			subsumed = append(subsumed, r)
		}
	}
	return subsumed, nil
}

// sendProgress sends a progress update if callback is provided.
func (idx *Indexer) sendProgress(absRoot string, state *indexState, onProgress ProgressFunc) {
	if onProgress != nil {
		cp, _ := state.currentPath.Load().(string)
		onProgress(Progress{
			Root:        absRoot,
			DirsScanned: state.dirsScanned.Load(),
			EntriesSeen: state.entriesSeen.Load(),
			CurrentPath: cp,
		})
	}
}

// startProgressReporter starts the progress reporting goroutine.
func (idx *Indexer) startProgressReporter(ctx context.Context, absRoot string, state *indexState, onProgress ProgressFunc) chan struct{} {
	done := make(chan struct{})

	idx.sendProgress(absRoot, state, onProgress)

	if onProgress != nil {
		go func() {
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					idx.sendProgress(absRoot, state, onProgress)
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return done
}

// walkFilesystem performs the filesystem walk.
func (idx *Indexer) walkFilesystem(ctx context.Context, absRoot string, state *indexState) error {
	conf := fastwalk.Config{
		Follow: false,
	}

	return fastwalk.Walk(&conf, absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Skip entries with errors - intentionally continue walking
		if walkErr != nil {
			return nil //nolint:nilerr // Intentionally skip errors and continue walking
		}

		if path == absRoot {
			return nil // The root itself is never a candidate
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil //nolint:nilerr // Intentionally skip entries we can't stat
		}

		return idx.processEntry(absRoot, path, info, d.IsDir(), state)
	})
}

// processEntry processes a single filesystem entry.
func (idx *Indexer) processEntry(absRoot, path string, info fs.FileInfo, isDir bool, state *indexState) error {
	relPath := strings.TrimPrefix(path, absRoot)
	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	relPath = filepath.ToSlash(relPath)

	entry := types.Entry{
		RelPath: relPath,
		Name:    filepath.Base(path),
		IsDir:   isDir,
		Depth:   strings.Count(relPath, "/") + 1,
		ModTime: info.ModTime(),
	}
	if !isDir {
		entry.Size = info.Size()
	}

	state.entriesMu.Lock()
	state.entries = append(state.entries, entry)
	state.entriesMu.Unlock()

	state.entriesSeen.Add(1)
	if isDir {
		state.dirsScanned.Add(1)
		state.currentPath.Store(path)
	}

	return idx.flushBatchIfNeeded(absRoot, state)
}

// flushBatchIfNeeded writes entries to store if batch size is reached.
func (idx *Indexer) flushBatchIfNeeded(absRoot string, state *indexState) error {
	state.entriesMu.Lock()
	if len(state.entries) >= batchSize {
		batch := state.entries
		state.entries = nil
		state.entriesMu.Unlock()
		return idx.store.PutBatch(absRoot, batch)
	}
	state.entriesMu.Unlock()
	return nil
}

// flushRemainingEntries writes any remaining entries to the store.
func (idx *Indexer) flushRemainingEntries(absRoot string, state *indexState) error {
	state.entriesMu.Lock()
	remaining := state.entries
	state.entries = nil
	state.entriesMu.Unlock()

	if len(remaining) > 0 {
		return idx.store.PutBatch(absRoot, remaining)
	}
	return nil
}

// IsIndexed checks if a root has been indexed.
func (idx *Indexer) IsIndexed(root string) bool {
	return idx.store.HasIndex(root)
}
