package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/broadcaster"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/indexer"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/store"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/watcher"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// ErrNotIndexed is returned for candidates requests on roots no index
// covers.
var ErrNotIndexed = errors.New(ErrNotIndexedMessage)

// indexRun tracks the state of one index operation.
type indexRun struct {
	state   string
	files   int64
	dirs    int64
	current string
}

// Service implements the daemon request methods against the store,
// indexer, watcher and broadcaster.
type Service struct {
	store       *store.Store
	indexer     *indexer.Indexer
	broadcaster *broadcaster.Broadcaster
	watcher     *watcher.Watcher
	startTime   time.Time

	// requestShutdown asks the server to stop; set by the server.
	requestShutdown func()

	// Track indexing state per root
	indexMu   sync.RWMutex
	indexRuns map[string]*indexRun
}

// NewService creates a new daemon service.
func NewService(s *store.Store) *Service {
	return &Service{
		store:     s,
		indexer:   indexer.New(s),
		startTime: time.Now(),
		indexRuns: make(map[string]*indexRun),
	}
}

// NewServiceWithBroadcaster creates a new daemon service with a broadcaster.
func NewServiceWithBroadcaster(s *store.Store, b *broadcaster.Broadcaster) *Service {
	svc := NewService(s)
	svc.broadcaster = b
	return svc
}

// SetWatcher sets the filesystem watcher for the service.
func (s *Service) SetWatcher(w *watcher.Watcher) {
	s.watcher = w
}

// Candidates returns the indexed entries for a root. A root covered by an
// ancestor index is served from that index with entries rebased onto the
// requested root. Roots nothing covers return ErrNotIndexed.
func (s *Service) Candidates(params CandidatesParams) (*CandidatesResult, error) {
	root, err := filepath.Abs(params.Root)
	if err != nil {
		return nil, err
	}

	covering, ok := s.store.CoveringRoot(root)
	if !ok {
		return nil, ErrNotIndexed
	}

	entries, err := s.store.Candidates(covering)
	if err != nil {
		return nil, err
	}

	result := &CandidatesResult{Root: covering}
	if meta := s.store.GetIndexMeta(covering); meta != nil {
		result.IndexedAt = meta.IndexedAt
	}

	if covering == root {
		result.Entries = entries
		return result, nil
	}

	result.Entries = rebaseEntries(entries, covering, root)
	return result, nil
}

// rebaseEntries narrows entries from a covering index down to a requested
// subdirectory, rewriting relative paths and depths.
func rebaseEntries(entries []types.Entry, covering, root string) []types.Entry {
	prefix := strings.TrimPrefix(root, covering)
	prefix = strings.TrimPrefix(prefix, string(filepath.Separator))
	prefix = filepath.ToSlash(prefix)
	prefixDepth := strings.Count(prefix, "/") + 1

	out := make([]types.Entry, 0, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e.RelPath, prefix+"/") {
			continue
		}
		e.RelPath = e.RelPath[len(prefix)+1:]
		e.Depth -= prefixDepth
		out = append(out, e)
	}
	return out
}

// TriggerIndex starts indexing a root in the background.
func (s *Service) TriggerIndex(params IndexParams) (*IndexResult, error) {
	root, err := filepath.Abs(params.Root)
	if err != nil {
		return nil, err
	}
	log := logging.Get("daemon")

	s.indexMu.Lock()
	if run, exists := s.indexRuns[root]; exists && run.state == IndexStateIndexing {
		s.indexMu.Unlock()
		log.Debug("index already in progress", "root", root)
		return &IndexResult{
			Started: false,
			Message: "already indexing",
		}, nil
	}

	// Clear existing if force
	if params.Force {
		log.Info("force re-index requested, clearing existing data", "root", root)
		_ = s.store.DeleteRoot(root)
	}

	s.indexRuns[root] = &indexRun{state: IndexStateIndexing}
	s.indexMu.Unlock()

	log.Info("starting index", "root", root)

	// Start indexing in background
	// We intentionally use a fresh context because indexing should continue
	// even if the client disconnects
	go s.runIndexing(context.Background(), root)

	return &IndexResult{
		Started: true,
		Message: "indexing started",
	}, nil
}

// runIndexing performs the indexing operation in the background.
func (s *Service) runIndexing(ctx context.Context, root string) {
	log := logging.Get("indexer")

	progress := func(p indexer.Progress) {
		s.indexMu.Lock()
		if run, exists := s.indexRuns[root]; exists {
			run.files = p.EntriesSeen - p.DirsScanned
			run.dirs = p.DirsScanned
			run.current = p.CurrentPath
		}
		s.indexMu.Unlock()
	}

	result, err := s.indexer.Index(ctx, root, progress)

	s.indexMu.Lock()
	switch {
	case err != nil:
		log.Error("indexing failed", "root", root, "error", err)
		s.indexRuns[root] = &indexRun{state: IndexStateStale}
	case result.Covered:
		log.Info("root already covered by index", "root", root, "covered_by", result.CoveredBy)
		s.indexRuns[root] = &indexRun{state: IndexStateReady}
	default:
		log.Info("indexing complete", "root", root,
			"files", result.FilesIndexed, "dirs", result.DirsIndexed, "subsumed", len(result.SubsumedRoots))
		s.indexRuns[root] = &indexRun{
			state: IndexStateReady,
			files: result.FilesIndexed,
			dirs:  result.DirsIndexed,
		}
		// Start watching the indexed root for changes
		if s.watcher != nil {
			for _, subsumed := range result.SubsumedRoots {
				s.watcher.Unwatch(subsumed)
			}
			if watchErr := s.watcher.Watch(root); watchErr != nil {
				log.Warn("failed to start watching indexed root", "root", root, "error", watchErr)
			}
		}
	}
	s.indexMu.Unlock()
}

// IndexStatus returns the index state for a root.
func (s *Service) IndexStatus(params IndexStatusParams) (*IndexStatusResult, error) {
	root, err := filepath.Abs(params.Root)
	if err != nil {
		return nil, err
	}

	s.indexMu.RLock()
	run, exists := s.indexRuns[root]
	s.indexMu.RUnlock()

	result := &IndexStatusResult{Root: root}

	switch {
	case exists && run.state == IndexStateIndexing:
		result.State = run.state
		result.Files = run.files
		result.Dirs = run.dirs
		result.Current = run.current
	case s.store.HasIndex(root):
		result.State = IndexStateReady
		if meta := s.store.GetIndexMeta(root); meta != nil {
			result.Files = meta.Files
			result.Dirs = meta.Dirs
			result.IndexedAt = meta.IndexedAt
		}
	case exists:
		result.State = run.state
	default:
		if covering, ok := s.store.CoveringRoot(root); ok {
			result.State = IndexStateReady
			if meta := s.store.GetIndexMeta(covering); meta != nil {
				result.IndexedAt = meta.IndexedAt
			}
		} else {
			result.State = IndexStateNotIndexed
		}
	}

	return result, nil
}

// Status returns daemon health information.
func (s *Service) Status() (*StatusResult, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	roots, err := s.store.Roots()
	if err != nil {
		return nil, err
	}

	var totalEntries int64
	for _, root := range roots {
		if meta := s.store.GetIndexMeta(root); meta != nil {
			totalEntries += meta.Files + meta.Dirs
		}
	}

	result := &StatusResult{
		Running:       true,
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		MemoryBytes:   int64(mem.Alloc),
		IndexedRoots:  roots,
		TotalEntries:  totalEntries,
		SchemaVersion: store.CurrentSchemaVersion,
	}
	if s.watcher != nil {
		result.WatchedRoots = s.watcher.WatchedRoots()
	}
	if s.broadcaster != nil {
		result.Subscribers = s.broadcaster.SubscriberCount()
	}
	return result, nil
}

// Clear removes the index for a root, or all indexes when root is empty.
func (s *Service) Clear(params ClearParams) (*ClearResult, error) {
	log := logging.Get("daemon")
	var count int64

	roots, err := s.store.Roots()
	if err != nil {
		return nil, err
	}

	if params.Root == "" {
		for _, root := range roots {
			files, dirs, _ := s.store.CountEntries(root)
			count += files + dirs
			_ = s.store.DeleteRoot(root)
			if s.watcher != nil {
				s.watcher.Unwatch(root)
			}
		}
		s.indexMu.Lock()
		s.indexRuns = make(map[string]*indexRun)
		s.indexMu.Unlock()
		log.Info("cleared all indexes", "entries", count)
		return &ClearResult{EntriesCleared: count}, nil
	}

	root, err := filepath.Abs(params.Root)
	if err != nil {
		return nil, err
	}

	files, dirs, _ := s.store.CountEntries(root)
	count = files + dirs
	if err := s.store.DeleteRoot(root); err != nil {
		return nil, err
	}
	log.Info("cleared index", "root", root, "entries", count)

	if s.watcher != nil {
		s.watcher.Unwatch(root)
	}

	s.indexMu.Lock()
	delete(s.indexRuns, root)
	s.indexMu.Unlock()

	return &ClearResult{EntriesCleared: count}, nil
}

// Shutdown asks the server to stop.
func (s *Service) Shutdown() (*ShutdownResult, error) {
	if s.requestShutdown != nil {
		s.requestShutdown()
	}
	return &ShutdownResult{Stopping: true}, nil
}

// progressSnapshot returns the current progress event for a root, and
// whether the stream should end.
func (s *Service) progressSnapshot(root string) (IndexProgressEvent, bool) {
	s.indexMu.RLock()
	run, exists := s.indexRuns[root]
	s.indexMu.RUnlock()

	event := IndexProgressEvent{Root: root}
	if !exists {
		if s.store.HasIndex(root) {
			event.State = IndexStateReady
		} else {
			event.State = IndexStateNotIndexed
		}
		return event, true
	}

	event.State = run.state
	event.DirsScanned = run.dirs
	event.EntriesSeen = run.files + run.dirs
	event.CurrentPath = run.current

	done := run.state == IndexStateReady || run.state == IndexStateStale
	return event, done
}
