// Package history records executed searches as one JSON file per entry,
// so recent queries can be listed and re-run.
package history

import (
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Entry records one executed search. Searches stopped by the minimum
// query-length gate are never recorded.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Root      string        `json:"root"`
	Query     []string      `json:"query"`
	Scope     types.Scope   `json:"scope"`
	ProfileID string        `json:"profile_id,omitempty"`
	Matches   int           `json:"matches"`
	Elapsed   time.Duration `json:"elapsed"`
	FromIndex bool          `json:"from_index,omitempty"`
}
