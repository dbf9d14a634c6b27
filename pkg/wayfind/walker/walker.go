package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/cache"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// ErrRootUnavailable indicates the search root is missing or unreadable.
// Per the error contract this means "search unavailable", not a crash.
var ErrRootUnavailable = errors.New("search unavailable: root directory cannot be read")

// Result holds the candidate entries of one walk.
type Result struct {
	// Entries are the collected candidates in walk order. Callers that
	// need reproducible ordering sort these downstream.
	Entries []types.Entry

	// DirsWalked is the number of directories traversed.
	DirsWalked int64

	// EntriesSeen is the total number of entries considered, including
	// ones outside the scope.
	EntriesSeen int64

	// FromCache reports whether the entries were served entirely from the
	// directory-listing cache without touching the tree.
	FromCache bool

	// Elapsed is the total walk duration.
	Elapsed time.Duration

	// Errors are the non-fatal errors encountered. Inaccessible
	// directories land here and are otherwise skipped silently.
	Errors []types.WalkError
}

// Walker performs one parallel walk of a search root.
type Walker struct {
	opts Options

	// Atomic counters for thread-safe progress reporting.
	dirsWalked  atomic.Int64
	entriesSeen atomic.Int64

	// currentPath is the path currently being walked (for progress).
	currentPath atomic.Value

	// errors collects walk errors without stopping the walk.
	errors   []types.WalkError
	errorsMu sync.Mutex

	// entries collects candidate entries inside the scope.
	entries   []types.Entry
	entriesMu sync.Mutex

	// lastProgress tracks when progress was last reported, to throttle
	// callbacks.
	lastProgress atomic.Int64

	// cacheEntries collects listings for cache updates during the walk.
	cacheEntries   map[string]*cache.CachedEntry
	cacheEntriesMu sync.Mutex

	// dirChildren tracks child names per directory relative path.
	dirChildren   map[string][]string
	dirChildrenMu sync.Mutex

	// root is the resolved absolute path being walked.
	root string

	// walkComplete indicates traversal finished (cache flush may follow).
	walkComplete atomic.Bool
}

// New creates a Walker with the given options, applying defaults.
func New(opts Options) *Walker {
	_ = opts.Validate()

	w := &Walker{
		opts:    opts,
		errors:  make([]types.WalkError, 0),
		entries: make([]types.Entry, 0),
	}
	w.currentPath.Store("")
	return w
}

// Walk traverses the root and returns the collected candidates.
// It blocks until complete or the context is cancelled.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	root, err := w.validateRoot()
	if err != nil {
		return nil, err
	}
	w.root = root

	w.currentPath.Store(root)
	w.reportProgressForce()

	// Phase 1: serve from cache when the whole tree is still valid.
	if result := w.tryCache(startTime); result != nil {
		return result, nil
	}

	w.initCacheCollectors()

	// Phase 2: walk the tree.
	if err := w.executeWalk(ctx); err != nil {
		return nil, err
	}

	w.walkComplete.Store(true)
	w.currentPath.Store("(updating cache...)")
	w.reportProgressForce()

	// Phase 3: refresh the cache with collected listings.
	w.flushCacheEntries()

	return &Result{
		Entries:     w.entries,
		DirsWalked:  w.dirsWalked.Load(),
		EntriesSeen: w.entriesSeen.Load(),
		Elapsed:     time.Since(startTime),
		Errors:      w.errors,
	}, nil
}

// tryCache returns a complete result when every cached listing for the
// root is still valid. Any cache failure or staleness falls through to a
// plain walk.
func (w *Walker) tryCache(startTime time.Time) *Result {
	if w.opts.Cache == nil {
		return nil
	}

	valid, staleDirs, err := w.opts.Cache.ValidateAndGetStale(w.root)
	if err != nil {
		logging.Get("walker").Debug("cache validation failed, walking", "root", w.root, "error", err)
		return nil
	}
	if len(staleDirs) > 0 {
		return nil
	}

	for _, e := range valid {
		w.entriesSeen.Add(1)
		if w.opts.MaxDepth > 0 && e.Depth > w.opts.MaxDepth {
			continue
		}
		if w.opts.Excludes.Match(e.RelPath, e.IsDir) {
			continue
		}
		if !w.opts.Scope.Includes(e.IsDir) {
			continue
		}
		w.entries = append(w.entries, e)
	}

	w.currentPath.Store("(from cache)")
	w.walkComplete.Store(true)
	w.reportProgressForce()

	return &Result{
		Entries:     w.entries,
		DirsWalked:  0,
		EntriesSeen: w.entriesSeen.Load(),
		FromCache:   true,
		Elapsed:     time.Since(startTime),
		Errors:      w.errors,
	}
}

// initCacheCollectors initializes maps for collecting cache entries.
func (w *Walker) initCacheCollectors() {
	if w.opts.Cache != nil {
		w.cacheEntries = make(map[string]*cache.CachedEntry)
		w.dirChildren = make(map[string][]string)
	}
}

// executeWalk runs fastwalk on the root.
func (w *Walker) executeWalk(ctx context.Context) error {
	conf := fastwalk.Config{
		Follow:     false, // Don't follow symlinks.
		NumWorkers: w.opts.Workers,
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		<-walkCtx.Done()
		close(done)
	}()

	walkErr := fastwalk.Walk(&conf, w.root, w.walkCallback(done))
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return walkErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// flushCacheEntries writes collected listings to the cache.
func (w *Walker) flushCacheEntries() {
	if w.opts.Cache == nil || len(w.cacheEntries) == 0 {
		return
	}

	// Merge children into directory entries.
	w.dirChildrenMu.Lock()
	for relPath, children := range w.dirChildren {
		if entry, ok := w.cacheEntries[relPath]; ok && entry.IsDir {
			entry.Children = children
		}
	}
	w.dirChildrenMu.Unlock()

	if err := w.opts.Cache.Update(w.root, w.cacheEntries); err != nil {
		w.addError("cache update", err)
	}
}

// validateRoot resolves the root path to absolute and verifies it is a
// readable directory.
func (w *Walker) validateRoot() (string, error) {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	if !rootInfo.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrRootUnavailable, root)
	}

	return root, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (w *Walker) walkCallback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation.
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		// Handle errors gracefully - collect and continue.
		if err != nil {
			w.addError(path, err)
			return nil
		}

		// The root itself is never a candidate (depth 0), but its mtime
		// anchors cache validation.
		if path == w.root {
			w.dirsWalked.Add(1)
			w.addCacheEntryFor(path, d)
			return nil
		}

		relPath := w.relPath(path)
		isDir := d.IsDir()

		// Check exclusions; prune excluded directories entirely.
		if w.opts.Excludes.Match(relPath, isDir) {
			if isDir {
				return fastwalk.SkipDir
			}
			return nil
		}

		depth := strings.Count(relPath, "/") + 1

		if isDir {
			w.handleDirectory(path, relPath, depth, d)
			if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			w.processFile(path, relPath, depth, d)
		}
		// Symlinks and special files are ignored.

		return nil
	}
}

// handleDirectory processes a directory entry during the walk.
func (w *Walker) handleDirectory(path, relPath string, depth int, d fs.DirEntry) {
	w.dirsWalked.Add(1)
	w.entriesSeen.Add(1)
	w.currentPath.Store(path)
	w.reportProgress()

	info, err := d.Info()
	if err != nil {
		w.addError(path, err)
		return
	}

	if w.opts.Scope.Includes(true) {
		w.addEntry(types.Entry{
			RelPath: relPath,
			Name:    d.Name(),
			IsDir:   true,
			Depth:   depth,
			ModTime: info.ModTime(),
		})
	}

	if w.cacheEntries != nil {
		w.addCacheEntry(path, relPath, &cache.CachedEntry{
			IsDir: true,
			Size:  0,
			Mtime: info.ModTime().UnixNano(),
			// Children filled from dirChildren at flush time.
		})
	}
}

// processFile handles a regular file entry.
func (w *Walker) processFile(path, relPath string, depth int, d fs.DirEntry) {
	info, err := d.Info()
	if err != nil {
		w.addError(path, err)
		return
	}

	w.entriesSeen.Add(1)

	if w.cacheEntries != nil {
		w.addCacheEntry(path, relPath, &cache.CachedEntry{
			IsDir: false,
			Size:  info.Size(),
			Mtime: info.ModTime().UnixNano(),
		})
	}

	if !w.opts.Scope.Includes(false) {
		return
	}

	w.addEntry(types.Entry{
		RelPath: relPath,
		Name:    d.Name(),
		IsDir:   false,
		Depth:   depth,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// addEntry appends a candidate entry thread-safely.
func (w *Walker) addEntry(e types.Entry) {
	w.entriesMu.Lock()
	w.entries = append(w.entries, e)
	w.entriesMu.Unlock()
}

// relPath converts an absolute walk path to the slash-separated path
// relative to the root.
func (w *Walker) relPath(path string) string {
	rel := strings.TrimPrefix(path, w.root+string(filepath.Separator))
	return filepath.ToSlash(rel)
}

// addCacheEntryFor stats an entry and records it for the cache flush.
func (w *Walker) addCacheEntryFor(path string, d fs.DirEntry) {
	if w.cacheEntries == nil {
		return
	}
	info, err := d.Info()
	if err != nil {
		return
	}
	relPath := ""
	if path != w.root {
		relPath = w.relPath(path)
	}
	w.addCacheEntry(path, relPath, &cache.CachedEntry{
		IsDir: d.IsDir(),
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
	})
}

// addCacheEntry records a listing entry and registers it as a child of its
// parent directory.
func (w *Walker) addCacheEntry(fullPath, relPath string, entry *cache.CachedEntry) {
	w.cacheEntriesMu.Lock()
	w.cacheEntries[relPath] = entry
	w.cacheEntriesMu.Unlock()

	if fullPath == w.root {
		return
	}

	parentPath := filepath.Dir(fullPath)
	parentRelPath := ""
	if parentPath != w.root {
		parentRelPath = w.relPath(parentPath)
	}

	w.dirChildrenMu.Lock()
	w.dirChildren[parentRelPath] = append(w.dirChildren[parentRelPath], filepath.Base(fullPath))
	w.dirChildrenMu.Unlock()
}

// addError adds an error to the error list thread-safely.
func (w *Walker) addError(path string, err error) {
	w.errorsMu.Lock()
	w.errors = append(w.errors, types.WalkError{
		Path:  path,
		Error: err.Error(),
	})
	w.errorsMu.Unlock()
}

// reportProgress calls the progress callback if configured.
// Throttles calls to avoid excessive overhead.
func (w *Walker) reportProgress() {
	if w.opts.OnProgress == nil {
		return
	}

	// Throttle progress updates to every 10ms.
	now := time.Now().UnixMilli()
	last := w.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !w.lastProgress.CompareAndSwap(last, now) {
		return // Another goroutine updated it.
	}

	w.sendProgress()
}

// reportProgressForce calls the progress callback immediately, bypassing
// the throttle. Used for state changes like walk start and end.
func (w *Walker) reportProgressForce() {
	if w.opts.OnProgress == nil {
		return
	}
	w.lastProgress.Store(time.Now().UnixMilli())
	w.sendProgress()
}

// sendProgress sends the current progress to the callback.
func (w *Walker) sendProgress() {
	currentPath, _ := w.currentPath.Load().(string)

	w.opts.OnProgress(types.SearchProgress{
		DirsWalked:   w.dirsWalked.Load(),
		Entries:      w.entriesSeen.Load(),
		CurrentPath:  currentPath,
		WalkComplete: w.walkComplete.Load(),
	})
}
