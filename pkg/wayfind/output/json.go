package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Matches []jsonMatch `json:"matches"`
	Stats   jsonStats   `json:"stats"`
	Meta    jsonMeta    `json:"meta"`
}

// jsonMatch represents a match in JSON output.
type jsonMatch struct {
	Path    string    `json:"path"`
	RelPath string    `json:"rel_path"`
	Name    string    `json:"name,omitempty"`
	IsDir   bool      `json:"is_dir"`
	Depth   int       `json:"depth,omitempty"`
	Score   float64   `json:"score"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// jsonStats represents search statistics in JSON output.
type jsonStats struct {
	Candidates int64  `json:"candidates"`
	DirsWalked int64  `json:"dirs_walked"`
	Elapsed    string `json:"elapsed"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Root         string   `json:"root"`
	Query        []string `json:"query"`
	Scope        string   `json:"scope"`
	FromIndex    bool     `json:"from_index"`
	IndexAge     string   `json:"index_age,omitempty"`
	DaemonUp     bool     `json:"daemon_up"`
	WatchActive  bool     `json:"watch_active"`
	TotalMatches int      `json:"total_matches"`
	Reason       string   `json:"reason,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Interrupted  bool     `json:"interrupted"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with matches, stats, and meta
// sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Result to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *Result) jsonOutput {
	matches := make([]jsonMatch, len(r.Matches()))
	for i, m := range r.Matches() {
		matches[i] = buildJSONMatch(m)
	}

	var stats jsonStats
	meta := jsonMeta{
		DaemonUp:     r.DaemonUp,
		WatchActive:  r.WatchActive,
		IndexAge:     formatDurationString(r.IndexAge),
		TotalMatches: len(matches),
		Warnings:     r.Warnings,
		Interrupted:  r.Interrupted,
	}
	if s := r.Search; s != nil {
		stats = jsonStats{
			Candidates: s.Candidates,
			DirsWalked: s.DirsWalked,
			Elapsed:    formatDurationString(s.Elapsed),
		}
		meta.Root = s.Root
		meta.Query = s.Query
		meta.Scope = s.Scope.String()
		meta.FromIndex = s.FromIndex
		meta.Reason = s.Reason
	}

	return jsonOutput{
		Matches: matches,
		Stats:   stats,
		Meta:    meta,
	}
}

// buildJSONMatch converts a match to its JSON representation.
func buildJSONMatch(m types.Match) jsonMatch {
	return jsonMatch{
		Path:    m.Path,
		RelPath: m.RelPath,
		Name:    m.Name,
		IsDir:   m.IsDir,
		Depth:   m.Depth,
		Score:   m.Score,
		Size:    m.Size,
		ModTime: m.ModTime,
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per line).
// Each match is written as a compact JSON object on its own line.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, m := range r.Matches() {
		data, err := json.Marshal(buildJSONMatch(m))
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
