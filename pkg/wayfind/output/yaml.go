package output

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Matches []yamlMatch `yaml:"matches"`
	Stats   yamlStats   `yaml:"stats"`
	Meta    yamlMeta    `yaml:"meta"`
}

// yamlMatch represents a match in YAML output.
type yamlMatch struct {
	Path    string    `yaml:"path"`
	RelPath string    `yaml:"rel_path"`
	Name    string    `yaml:"name,omitempty"`
	IsDir   bool      `yaml:"is_dir"`
	Depth   int       `yaml:"depth,omitempty"`
	Score   float64   `yaml:"score"`
	Size    int64     `yaml:"size,omitempty"`
	ModTime time.Time `yaml:"mod_time,omitempty"`
}

// yamlStats represents search statistics in YAML output.
type yamlStats struct {
	Candidates int64  `yaml:"candidates"`
	DirsWalked int64  `yaml:"dirs_walked"`
	Elapsed    string `yaml:"elapsed"`
}

// yamlMeta represents metadata in YAML output.
type yamlMeta struct {
	Root         string   `yaml:"root"`
	Query        []string `yaml:"query"`
	Scope        string   `yaml:"scope"`
	FromIndex    bool     `yaml:"from_index"`
	IndexAge     string   `yaml:"index_age,omitempty"`
	DaemonUp     bool     `yaml:"daemon_up"`
	WatchActive  bool     `yaml:"watch_active"`
	TotalMatches int      `yaml:"total_matches"`
	Reason       string   `yaml:"reason,omitempty"`
	Warnings     []string `yaml:"warnings,omitempty"`
	Interrupted  bool     `yaml:"interrupted"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Result to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *Result) yamlOutput {
	matches := make([]yamlMatch, len(r.Matches()))
	for i, m := range r.Matches() {
		matches[i] = yamlMatch{
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

	var stats yamlStats
	meta := yamlMeta{
		DaemonUp:     r.DaemonUp,
		WatchActive:  r.WatchActive,
		IndexAge:     formatDurationString(r.IndexAge),
		TotalMatches: len(matches),
		Warnings:     r.Warnings,
		Interrupted:  r.Interrupted,
	}
	if s := r.Search; s != nil {
		stats = yamlStats{
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

	return yamlOutput{
		Matches: matches,
		Stats:   stats,
		Meta:    meta,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
