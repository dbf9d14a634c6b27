// Package types provides core data types for the wayfind path searcher.
// It includes the search scope enumeration, candidate entries collected by
// walks or the index daemon, ranked matches, and helpers for formatting
// paths and sizes for display.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Scope selects which kinds of filesystem entries a search considers.
// The integer values are the legacy settings codes 1/2/3, which remain
// accepted in JSON.
type Scope int

const (
	// ScopeFolders considers directories only.
	ScopeFolders Scope = 1

	// ScopeFiles considers regular files only.
	ScopeFiles Scope = 2

	// ScopeBoth considers both directories and files.
	ScopeBoth Scope = 3
)

// ErrInvalidScope indicates that a scope string or code was not recognized.
var ErrInvalidScope = errors.New("invalid scope")

// String returns the canonical short form: "folders", "files" or "both".
func (s Scope) String() string {
	switch s {
	case ScopeFolders:
		return "folders"
	case ScopeFiles:
		return "files"
	case ScopeBoth:
		return "both"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Name returns the human-readable description shown in listings.
func (s Scope) Name() string {
	switch s {
	case ScopeFolders:
		return "folders only"
	case ScopeFiles:
		return "files only"
	case ScopeBoth:
		return "folders and files"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the defined scopes.
func (s Scope) Valid() bool {
	return s == ScopeFolders || s == ScopeFiles || s == ScopeBoth
}

// Includes reports whether an entry of the given kind falls inside the scope.
func (s Scope) Includes(isDir bool) bool {
	switch s {
	case ScopeFolders:
		return isDir
	case ScopeFiles:
		return !isDir
	case ScopeBoth:
		return true
	default:
		return false
	}
}

// ParseScope parses a scope from its short form. "all" is accepted as an
// alias for "both" to match the original naming.
//
// Returns ErrInvalidScope if the string is not recognized.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "folders", "folder", "dirs", "1":
		return ScopeFolders, nil
	case "files", "file", "2":
		return ScopeFiles, nil
	case "both", "all", "3":
		return ScopeBoth, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// MarshalJSON encodes the scope as its short string form.
func (s Scope) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScope, int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the string form ("folders", "files", "both")
// or the legacy integer codes (1, 2, 3).
func (s *Scope) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		sc := Scope(code)
		if !sc.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidScope, code)
		}
		*s = sc
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidScope, string(data))
	}
	sc, err := ParseScope(name)
	if err != nil {
		return err
	}
	*s = sc
	return nil
}

// Entry describes one candidate filesystem entry below a search root.
type Entry struct {
	// RelPath is the slash-separated path relative to the search root.
	RelPath string `json:"rel_path"`

	// Name is the final path component.
	Name string `json:"name"`

	// IsDir reports whether the entry is a directory.
	IsDir bool `json:"is_dir"`

	// Depth is the number of components below the root (a/b/c has depth 3).
	Depth int `json:"depth"`

	// Size is the file size in bytes. Zero for directories.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the entry.
	ModTime time.Time `json:"mod_time"`
}

// HumanSize returns the entry size formatted with binary (IEC) units.
func (e *Entry) HumanSize() string {
	return FormatSize(e.Size)
}

// Match is a candidate entry that satisfied the query, with its rank score.
type Match struct {
	Entry

	// Path is the absolute path of the matched entry.
	Path string `json:"path"`

	// Score is the match quality. Higher is better.
	Score float64 `json:"score"`
}

// WalkError pairs a path with the error encountered there. Walk errors are
// collected, never fatal: inaccessible directories are skipped silently.
type WalkError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// SearchResult contains the ranked matches of one search together with
// statistics about how the candidates were produced.
type SearchResult struct {
	// Root is the absolute search root.
	Root string `json:"root"`

	// Query holds the words of the executed query, in order.
	Query []string `json:"query"`

	// Scope is the entry scope the search ran with.
	Scope Scope `json:"scope"`

	// Matches are the results, best first.
	Matches []Match `json:"matches"`

	// Candidates is the number of entries considered.
	Candidates int64 `json:"candidates"`

	// DirsWalked is the number of directories traversed. Zero when the
	// candidates came from the index daemon.
	DirsWalked int64 `json:"dirs_walked"`

	// FromIndex reports whether candidates were served by the index daemon
	// rather than a direct walk.
	FromIndex bool `json:"from_index,omitempty"`

	// Reason explains why no search ran, e.g. "query too short". Empty
	// when the search executed.
	Reason string `json:"reason,omitempty"`

	// Elapsed is the total search duration.
	Elapsed time.Duration `json:"elapsed"`

	// Errors contains non-fatal errors encountered while walking.
	Errors []WalkError `json:"errors,omitempty"`
}

// SearchProgress reports real-time progress of a direct walk.
type SearchProgress struct {
	// DirsWalked is the number of directories processed so far.
	DirsWalked int64 `json:"dirs_walked"`

	// Entries is the number of candidate entries collected so far.
	Entries int64 `json:"entries"`

	// CurrentPath is the path currently being walked.
	CurrentPath string `json:"current_path"`

	// WalkComplete indicates that traversal is finished and only matching
	// and ranking remain.
	WalkComplete bool `json:"walk_complete,omitempty"`
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// AbbreviateHome replaces the current user's home directory prefix with "~"
// for display. Paths outside the home directory are returned unchanged.
func AbbreviateHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	sep := string(filepath.Separator)
	if strings.HasPrefix(path, home+sep) {
		return "~" + path[len(home):]
	}
	return path
}
