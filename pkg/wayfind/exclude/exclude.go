// Package exclude implements gitignore-style glob filtering of paths
// relative to a search root. Compiled sets answer whether a candidate
// entry, or any directory above it, is excluded from search results.
package exclude

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
)

// rule is one compiled exclude pattern.
type rule struct {
	pattern  string
	matcher  glob.Glob
	anchored bool // pattern contains a separator: match the root-relative path
	dirOnly  bool // trailing "/": directories only
}

// Set is a compiled collection of exclude patterns. A nil or empty Set
// matches nothing.
type Set struct {
	rules []rule
}

// Compile builds a Set from gitignore-style patterns:
//
//   - A pattern with a leading "/" (or any interior "/") is anchored and
//     matches against the whole path relative to the root.
//   - A pattern without a separator matches any single path segment, at any
//     depth ("*.pyc" excludes a.pyc wherever it appears).
//   - A trailing "/" restricts the pattern to directories.
//   - "**" crosses directory separators in anchored patterns.
//
// A malformed pattern never matches: it is skipped with a debug log, not
// reported as an error.
func Compile(patterns []string) *Set {
	set := &Set{}
	logger := logging.Get("exclude")

	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}

		r := rule{pattern: raw}

		if strings.HasSuffix(p, "/") {
			r.dirOnly = true
			p = strings.TrimSuffix(p, "/")
			if p == "" {
				continue
			}
		}

		if strings.HasPrefix(p, "/") {
			r.anchored = true
			p = strings.TrimPrefix(p, "/")
		} else if strings.Contains(p, "/") {
			r.anchored = true
		}

		var (
			g   glob.Glob
			err error
		)
		if r.anchored {
			g, err = glob.Compile(p, '/')
		} else {
			// Segment patterns never see a separator, so "*" may span
			// the whole segment.
			g, err = glob.Compile(p)
		}
		if err != nil {
			logger.Debug("skipping malformed exclude pattern", "pattern", raw, "error", err)
			continue
		}

		r.matcher = g
		set.rules = append(set.rules, r)
	}

	return set
}

// Len returns the number of usable compiled rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Empty reports whether the set has no usable rules.
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Match reports whether the entry at relPath (slash-separated, relative to
// the search root) is excluded. An entry is excluded when the path itself
// matches a rule, or when any directory on the way down to it does, so
// index-served candidates are filtered identically to pruned walks.
func (s *Set) Match(relPath string, isDir bool) bool {
	if s.Empty() || relPath == "" {
		return false
	}

	segments := strings.Split(relPath, "/")

	for _, r := range s.rules {
		if r.anchored {
			if s.matchAnchored(r, relPath, segments, isDir) {
				return true
			}
			continue
		}
		if s.matchSegments(r, segments, isDir) {
			return true
		}
	}

	return false
}

// matchAnchored tests an anchored rule against the full relative path and
// every ancestor directory of it.
func (s *Set) matchAnchored(r rule, relPath string, segments []string, isDir bool) bool {
	if r.matcher.Match(relPath) {
		if r.dirOnly && !isDir {
			return false
		}
		return true
	}

	// Ancestors are directories, so dirOnly always applies to them.
	prefix := ""
	for _, seg := range segments[:len(segments)-1] {
		if prefix == "" {
			prefix = seg
		} else {
			prefix += "/" + seg
		}
		if r.matcher.Match(prefix) {
			return true
		}
	}
	return false
}

// matchSegments tests a segment rule against each path component. Every
// component above the last names a directory.
func (s *Set) matchSegments(r rule, segments []string, isDir bool) bool {
	last := len(segments) - 1
	for i, seg := range segments {
		if !r.matcher.Match(seg) {
			continue
		}
		if i == last && r.dirOnly && !isDir {
			continue
		}
		return true
	}
	return false
}

// Patterns returns the original pattern strings of the usable rules.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.pattern)
	}
	return out
}

// Union returns a set containing the rules of s followed by the rules of
// other. Either argument may be nil.
func Union(s, other *Set) *Set {
	merged := &Set{}
	if s != nil {
		merged.rules = append(merged.rules, s.rules...)
	}
	if other != nil {
		merged.rules = append(merged.rules, other.rules...)
	}
	return merged
}
