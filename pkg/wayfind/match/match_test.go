package match

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

func entry(relPath string, isDir bool) types.Entry {
	e := types.Entry{RelPath: relPath, IsDir: isDir}
	if relPath != "" {
		e.Name = filepath.Base(relPath)
		e.Depth = strings.Count(relPath, "/") + 1
	}
	return e
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"docs", []string{"docs"}},
		{"  proj   api ", []string{"proj", "api"}},
		{"a\tb\nc", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		got := ParseQuery(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseQuery(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("ParseQuery(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestQueryRunnable(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		min  int
		want bool
	}{
		{"empty query", Query{}, 1, false},
		{"single rune at min 1", Query{"a"}, 1, true},
		{"single rune below min 2", Query{"ab", "c"}, 2, false},
		{"final word meets min", Query{"a", "bcd"}, 3, true},
		{"only final word gated", Query{"x", "long"}, 2, true},
		{"min below one treated as one", Query{"a"}, 0, true},
		{"multibyte runes counted as runes", Query{"héllo"}, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Runnable(tt.min); got != tt.want {
				t.Errorf("Runnable(%d) = %v, want %v", tt.min, got, tt.want)
			}
		})
	}
}

// TestMatchOrdering verifies the core alignment rule: for a path a/b/c the
// query "b c" matches and "c b" does not.
func TestMatchOrdering(t *testing.T) {
	e := entry("a/b/c", true)

	if _, ok := New(Query{"b", "c"}).Match(e); !ok {
		t.Error(`query "b c" should match a/b/c`)
	}
	if _, ok := New(Query{"c", "b"}).Match(e); ok {
		t.Error(`query "c b" should not match a/b/c`)
	}
}

// TestMatchDepthFloor verifies an n-word query never matches a path fewer
// than n components deep.
func TestMatchDepthFloor(t *testing.T) {
	m := New(Query{"a", "b", "c"})

	if _, ok := m.Match(entry("ab/bc", false)); ok {
		t.Error("3-word query matched a 2-component path")
	}
	if _, ok := m.Match(entry("a/b/c", false)); !ok {
		t.Error("3-word query should match a 3-component path")
	}
}

func TestMatchRules(t *testing.T) {
	tests := []struct {
		name    string
		words   Query
		relPath string
		fuzzy   bool
		want    bool
	}{
		{"last word must hit final component", Query{"guide"}, "docs/guide.md", false, true},
		{"last word not in final component", Query{"docs"}, "docs/guide.md", false, false},
		{"gap between matched components", Query{"proj", "main"}, "projects/api/main.go", false, true},
		{"substring is case-insensitive", Query{"API"}, "projects/api", false, true},
		{"distinct components required", Query{"api", "api"}, "projects/api", false, false},
		{"same word across two components", Query{"api", "api"}, "api-v1/api-client", false, true},
		{"fuzzy subsequence disabled by default", Query{"mgo"}, "projects/main.go", false, false},
		{"fuzzy subsequence enabled", Query{"mgo"}, "projects/main.go", true, true},
		{"empty relpath never matches", Query{"a"}, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.words, WithFuzzy(tt.fuzzy))
			_, ok := m.Match(entry(tt.relPath, false))
			if ok != tt.want {
				t.Errorf("Match(%q, %v) = %v, want %v", tt.relPath, tt.words, ok, tt.want)
			}
		})
	}
}

func TestMatchUnicodeFolding(t *testing.T) {
	// NFD-decomposed "é" (e + combining acute), as macOS filenames arrive.
	decomposed := "café"

	m := New(Query{"café"})
	if _, ok := m.Match(entry(decomposed, true)); !ok {
		t.Error("NFC query should match NFD-decomposed component")
	}

	upper := New(Query{"CAFÉ"})
	if _, ok := upper.Match(entry(decomposed, true)); !ok {
		t.Error("uppercase query should match after folding")
	}
}

func TestScoreTiers(t *testing.T) {
	exact, ok := New(Query{"docs"}).Match(entry("docs", true))
	if !ok {
		t.Fatal("exact match failed")
	}
	prefix, ok := New(Query{"doc"}).Match(entry("docs", true))
	if !ok {
		t.Fatal("prefix match failed")
	}
	substr, ok := New(Query{"ocs"}).Match(entry("docs", true))
	if !ok {
		t.Fatal("substring match failed")
	}
	fz, ok := New(Query{"dcs"}, WithFuzzy(true)).Match(entry("docs", true))
	if !ok {
		t.Fatal("fuzzy match failed")
	}

	if !(exact > prefix && prefix > substr && substr > fz) {
		t.Errorf("score tiers out of order: exact=%v prefix=%v substring=%v fuzzy=%v",
			exact, prefix, substr, fz)
	}
}

func TestApplyRanking(t *testing.T) {
	entries := []types.Entry{
		entry("deep/nest/docs", true),
		entry("docs", true),
		entry("mydocs", true),
	}

	matches := New(Query{"docs"}).Apply("/root", entries)
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	// Exact name beats substring; among equal scores the shallower path wins.
	if matches[0].RelPath != "docs" {
		t.Errorf("first match = %q, want docs", matches[0].RelPath)
	}
	if matches[1].RelPath != "deep/nest/docs" {
		t.Errorf("second match = %q, want deep/nest/docs", matches[1].RelPath)
	}
	if matches[2].RelPath != "mydocs" {
		t.Errorf("third match = %q, want mydocs", matches[2].RelPath)
	}

	wantPath := filepath.Join("/root", "docs")
	if matches[0].Path != wantPath {
		t.Errorf("match path = %q, want %q", matches[0].Path, wantPath)
	}
}

func TestApplyDeterministic(t *testing.T) {
	entries := []types.Entry{
		entry("b/target", true),
		entry("a/target", true),
		entry("c/target", true),
	}

	m := New(Query{"target"})
	first := m.Apply("/r", entries)

	// Same input in a different order must produce the same ranking.
	shuffled := []types.Entry{entries[2], entries[0], entries[1]}
	second := m.Apply("/r", shuffled)

	if len(first) != len(second) {
		t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].RelPath != second[i].RelPath {
			t.Errorf("rank %d differs: %q vs %q", i, first[i].RelPath, second[i].RelPath)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].RelPath > first[i].RelPath {
			t.Errorf("equal-score ties not ordered by relpath: %q before %q",
				first[i-1].RelPath, first[i].RelPath)
		}
	}
}

func TestApplyLimit(t *testing.T) {
	entries := []types.Entry{
		entry("a/target", true),
		entry("b/target", true),
		entry("c/target", true),
	}

	matches := New(Query{"target"}, WithLimit(2)).Apply("/r", entries)
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestHighlightRange(t *testing.T) {
	start, end, ok := HighlightRange("API", "projects-api")
	if !ok {
		t.Fatal("expected highlight range")
	}
	if start != 9 || end != 12 {
		t.Errorf("range = [%d, %d), want [9, 12)", start, end)
	}

	if _, _, ok := HighlightRange("zzz", "projects"); ok {
		t.Error("expected no range for absent word")
	}
}
