// Package daemon implements the wayfindd index daemon: a Badger-backed
// path index served over a unix socket, kept fresh by filesystem watches.
//
// The wire protocol is line-delimited JSON. A client connects, writes one
// request object on a single line, and reads one response line. Streaming
// methods (watch, watch_progress) keep the connection open and deliver one
// event object per line after the initial response.
package daemon

import (
	"encoding/json"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Request methods.
const (
	MethodCandidates    = "candidates"
	MethodIndex         = "index"
	MethodIndexStatus   = "index_status"
	MethodStatus        = "status"
	MethodClear         = "clear"
	MethodShutdown      = "shutdown"
	MethodWatch         = "watch"
	MethodWatchProgress = "watch_progress"
)

// Index states reported by index_status and watch_progress.
const (
	IndexStateNotIndexed = "not_indexed"
	IndexStateIndexing   = "indexing"
	IndexStateReady      = "ready"
	IndexStateStale      = "stale"
)

// ErrNotIndexedMessage is the error string returned for candidates
// requests on roots without an index. Clients match on it to fall back to
// a direct walk.
const ErrNotIndexedMessage = "root not indexed"

// Request is one client request.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the first line the server writes back for any request.
type Response struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// CandidatesParams requests the indexed entries for a root.
type CandidatesParams struct {
	Root string `json:"root"`
}

// CandidatesResult carries the indexed entries covering a root.
type CandidatesResult struct {
	// Root is the indexed root that served the request. It may be an
	// ancestor of the requested root.
	Root string `json:"root"`

	// Entries are relative to the REQUESTED root, not the serving one.
	Entries []types.Entry `json:"entries"`

	// IndexedAt is when the serving index was built.
	IndexedAt time.Time `json:"indexed_at"`
}

// IndexParams triggers indexing of a root.
type IndexParams struct {
	Root  string `json:"root"`
	Force bool   `json:"force,omitempty"`
}

// IndexResult reports whether indexing started.
type IndexResult struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// IndexStatusParams queries the index state of a root.
type IndexStatusParams struct {
	Root string `json:"root"`
}

// IndexStatusResult describes the index state of a root.
type IndexStatusResult struct {
	Root      string    `json:"root"`
	State     string    `json:"state"`
	Files     int64     `json:"files"`
	Dirs      int64     `json:"dirs"`
	Current   string    `json:"current,omitempty"`
	IndexedAt time.Time `json:"indexed_at,omitempty"`
}

// StatusResult describes daemon health.
type StatusResult struct {
	Running       bool     `json:"running"`
	PID           int      `json:"pid"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	MemoryBytes   int64    `json:"memory_bytes"`
	IndexedRoots  []string `json:"indexed_roots,omitempty"`
	WatchedRoots  []string `json:"watched_roots,omitempty"`
	TotalEntries  int64    `json:"total_entries"`
	Subscribers   int      `json:"subscribers"`
	SchemaVersion int      `json:"schema_version"`
}

// ClearParams clears the index for a root, or everything when Root is
// empty.
type ClearParams struct {
	Root string `json:"root,omitempty"`
}

// ClearResult reports how many entries were removed.
type ClearResult struct {
	EntriesCleared int64 `json:"entries_cleared"`
}

// ShutdownResult acknowledges a shutdown request.
type ShutdownResult struct {
	Stopping bool `json:"stopping"`
}

// WatchParams subscribes to path events under a root.
type WatchParams struct {
	Root    string   `json:"root"`
	Exclude []string `json:"exclude,omitempty"`
}

// WatchEvent is one streamed filesystem event.
type WatchEvent struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// WatchProgressParams subscribes to indexing progress for a root.
type WatchProgressParams struct {
	Root string `json:"root"`
}

// IndexProgressEvent is one streamed indexing progress update. The stream
// ends when State reaches ready or stale.
type IndexProgressEvent struct {
	Root        string `json:"root"`
	State       string `json:"state"`
	DirsScanned int64  `json:"dirs_scanned"`
	EntriesSeen int64  `json:"entries_seen"`
	CurrentPath string `json:"current_path,omitempty"`
}
