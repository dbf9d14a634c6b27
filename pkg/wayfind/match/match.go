// Package match implements the word-to-component alignment at the heart of
// wayfind: deciding whether an ordered list of query words matches a path
// below the search root, scoring how well it matches, and ranking the
// results deterministically.
//
// The rule: the last query word must match the entry's own name, and every
// earlier word must match a distinct path component strictly above it, in
// query order. Gaps between matched components are allowed, so "b c"
// matches a/b/c but "c b" does not, and an n-word query can only match
// entries at least n components below the root.
package match

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/unicode/norm"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Query is an ordered sequence of search words.
type Query []string

// ParseQuery splits user input on whitespace into a Query.
func ParseQuery(input string) Query {
	return Query(strings.Fields(input))
}

// Runnable reports whether the query clears the minimum-length gate: the
// final word must be at least min runes long. An undersized final word
// means no search runs at all; it is not an error. Values of min below 1
// are treated as 1.
func (q Query) Runnable(min int) bool {
	if len(q) == 0 {
		return false
	}
	if min < 1 {
		min = 1
	}
	return utf8.RuneCountInString(q[len(q)-1]) >= min
}

// String joins the words back with single spaces.
func (q Query) String() string {
	return strings.Join(q, " ")
}

// Fold normalizes text for comparison: Unicode NFC normalization followed
// by lowercasing. Filenames on macOS arrive NFD-decomposed, so both sides
// of every comparison go through this.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Per-word score constants. Exact beats prefix beats substring beats fuzzy
// regardless of the tightness bonus, so the tiers never interleave.
const (
	scoreExact     = 100.0
	scorePrefix    = 80.0
	scoreSubstring = 60.0
	scoreFuzzy     = 25.0

	// offsetPenaltyCap bounds how much a late substring position costs.
	offsetPenaltyCap = 20.0

	// tightnessWeight scales the word-length/component-length ratio bonus.
	tightnessWeight = 10.0
)

// Matcher evaluates entries against a fixed query.
type Matcher struct {
	words []string // folded query words
	fuzzy bool
	limit int
}

// Option is a functional option for configuring a Matcher.
type Option func(*Matcher)

// WithFuzzy enables fuzzy subsequence matching as a fallback when a word is
// not a substring of a component.
func WithFuzzy(enabled bool) Option {
	return func(m *Matcher) {
		m.fuzzy = enabled
	}
}

// WithLimit caps how many matches Apply returns. Zero or negative means
// unlimited.
func WithLimit(limit int) Option {
	return func(m *Matcher) {
		if limit < 0 {
			limit = 0
		}
		m.limit = limit
	}
}

// New creates a Matcher for the given query.
func New(q Query, opts ...Option) *Matcher {
	m := &Matcher{
		words: make([]string, len(q)),
	}
	for i, w := range q {
		m.words[i] = Fold(w)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Words returns the number of query words.
func (m *Matcher) Words() int {
	return len(m.words)
}

// Match reports whether the entry satisfies the query and returns its
// score. Entries shallower than the word count can never match.
func (m *Matcher) Match(e types.Entry) (float64, bool) {
	n := len(m.words)
	if n == 0 || e.RelPath == "" {
		return 0, false
	}

	components := strings.Split(e.RelPath, "/")
	if len(components) < n {
		return 0, false
	}

	// The final word is matched against the entry's own name.
	nameScore, ok := m.wordScore(m.words[n-1], Fold(components[len(components)-1]))
	if !ok {
		return 0, false
	}

	// Remaining words align against distinct ascending components above the
	// name. Taking the earliest matching component for each word is
	// complete: it leaves the most room for the words that follow.
	total := nameScore
	parents := components[:len(components)-1]
	next := 0
	for _, word := range m.words[:n-1] {
		found := false
		for j := next; j < len(parents); j++ {
			if s, ok := m.wordScore(word, Fold(parents[j])); ok {
				total += s
				next = j + 1
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}

	return total, true
}

// wordScore scores one folded word against one folded component.
func (m *Matcher) wordScore(word, component string) (float64, bool) {
	if word == "" || component == "" {
		return 0, false
	}

	tightness := tightnessWeight * float64(len(word)) / float64(len(component))

	if word == component {
		return scoreExact + tightness, true
	}
	if strings.HasPrefix(component, word) {
		return scorePrefix + tightness, true
	}
	if idx := strings.Index(component, word); idx >= 0 {
		penalty := float64(idx)
		if penalty > offsetPenaltyCap {
			penalty = offsetPenaltyCap
		}
		return scoreSubstring - penalty + tightness, true
	}

	if m.fuzzy {
		if hits := fuzzy.Find(word, []string{component}); len(hits) > 0 {
			bonus := float64(hits[0].Score)
			if bonus < 0 {
				bonus = 0
			}
			if bonus > tightnessWeight {
				bonus = tightnessWeight
			}
			return scoreFuzzy + bonus, true
		}
	}

	return 0, false
}

// Apply filters, scores, ranks and limits entries, producing final matches
// with absolute paths joined onto root. The order is deterministic for
// identical inputs: descending score, then ascending depth, then the
// relative path.
func (m *Matcher) Apply(root string, entries []types.Entry) []types.Match {
	var matches []types.Match
	for _, e := range entries {
		score, ok := m.Match(e)
		if !ok {
			continue
		}
		matches = append(matches, types.Match{
			Entry: e,
			Path:  filepath.Join(root, filepath.FromSlash(e.RelPath)),
			Score: score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.RelPath < b.RelPath
	})

	if m.limit > 0 && len(matches) > m.limit {
		matches = matches[:m.limit]
	}

	return matches
}

// HighlightRange locates word inside component under folding, for result
// highlighting. Returns the byte range in the folded component and whether
// the word occurs at all.
func HighlightRange(word, component string) (start, end int, ok bool) {
	fw, fc := Fold(word), Fold(component)
	idx := strings.Index(fc, fw)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(fw), true
}
