// Package profile reads the wayfind settings file: named search profiles
// (root directory, keyword, minimum query length, scope, excludes) plus
// global defaults. Profiles are resolved at search time only and never
// written back.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/adrg/xdg"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// ErrProfileNotFound indicates an unknown profile id.
var ErrProfileNotFound = errors.New("profile not found")

// Built-in fallbacks used when the settings file carries no defaults.
const (
	// BuiltinMin is the minimum final-word length when nothing else is
	// configured.
	BuiltinMin = 1
)

// BuiltinScope is the scope used when nothing else is configured.
const BuiltinScope = types.ScopeFolders

// Defaults are the global settings applied to every profile. A profile's
// own min and scope override these when present; its excludes are unioned
// with them.
type Defaults struct {
	// Min is the minimum length of the final query word. Zero means unset.
	Min int `json:"min,omitempty"`

	// Scope is the default entry scope. Zero means unset.
	Scope types.Scope `json:"scope,omitempty"`

	// Excludes are glob patterns applied to every profile.
	Excludes []string `json:"excludes,omitempty"`
}

// Profile is one saved root-directory + keyword + settings combination.
type Profile struct {
	// Dirpath is the search root. Required.
	Dirpath string `json:"dirpath"`

	// Keyword is the optional trigger keyword shown in listings.
	Keyword string `json:"keyword,omitempty"`

	// Min overrides the default minimum query length when non-zero.
	Min int `json:"min,omitempty"`

	// Scope overrides the default scope when set.
	Scope types.Scope `json:"scope,omitempty"`

	// Excludes are profile-specific glob patterns, unioned with the
	// default excludes. A nil slice means "no folder-specific excludes",
	// which is distinct from an explicitly empty list.
	Excludes []string `json:"excludes"`
}

// Settings is the parsed settings file.
type Settings struct {
	Defaults Defaults           `json:"defaults"`
	Profiles map[string]Profile `json:"profiles"`
}

// Effective is a profile with all defaults merged in, ready to search.
type Effective struct {
	ID       string
	Dirpath  string
	Keyword  string
	Min      int
	Scope    types.Scope
	Excludes []string
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "wayfind", "settings.json")
}

// Load reads a settings file. A missing file is not an error: it yields
// built-in defaults and no profiles. Malformed JSON and profiles without a
// dirpath are errors.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	for id, p := range s.Profiles {
		if p.Dirpath == "" {
			return nil, fmt.Errorf("profile %q: dirpath is required", id)
		}
	}

	return &s, nil
}

// EffectiveMin returns the configured default minimum query length,
// falling back to the built-in value.
func (s *Settings) EffectiveMin() int {
	if s.Defaults.Min >= 1 {
		return s.Defaults.Min
	}
	return BuiltinMin
}

// EffectiveScope returns the configured default scope, falling back to the
// built-in value.
func (s *Settings) EffectiveScope() types.Scope {
	if s.Defaults.Scope.Valid() {
		return s.Defaults.Scope
	}
	return BuiltinScope
}

// Effective resolves a profile against the defaults: min and scope are
// overridden by the profile when present, excludes are the union of the
// default excludes followed by the profile's own.
func (s *Settings) Effective(id string) (*Effective, error) {
	p, ok := s.Profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, id)
	}

	e := &Effective{
		ID:      id,
		Dirpath: p.Dirpath,
		Keyword: p.Keyword,
		Min:     s.EffectiveMin(),
		Scope:   s.EffectiveScope(),
	}
	if p.Min >= 1 {
		e.Min = p.Min
	}
	if p.Scope.Valid() {
		e.Scope = p.Scope
	}

	e.Excludes = append(e.Excludes, s.Defaults.Excludes...)
	e.Excludes = append(e.Excludes, p.Excludes...)

	return e, nil
}

// OrderedIDs returns profile ids with numeric ids first in numeric order,
// then the rest lexicographically.
func (s *Settings) OrderedIDs() []string {
	ids := make([]string, 0, len(s.Profiles))
	for id := range s.Profiles {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		ni, errI := strconv.Atoi(ids[i])
		nj, errJ := strconv.Atoi(ids[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})

	return ids
}
