package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/match"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/walker"
)

// buildTree creates the scenario tree from the settings-merge contract:
//
//	root/
//	  a.pyc
//	  b.log
//	  c/
//	    d/
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, f := range []string{"a.pyc", "b.log"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "c", "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestSearchGatedQuery(t *testing.T) {
	root := buildTree(t)

	s := New(Options{
		Root:      root,
		Words:     match.ParseQuery("c d"),
		MinLength: 3,
		Scope:     types.ScopeBoth,
	})
	result, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("gated search must not error: %v", err)
	}
	if result.Reason != ReasonQueryTooShort {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonQueryTooShort)
	}
	if len(result.Matches) != 0 {
		t.Errorf("gated search returned %d matches", len(result.Matches))
	}
}

// TestSearchExcludeScenario is the documented end-to-end scenario: with
// profile excludes ["*.pyc"] unioned with default excludes ["*.log"], only
// c/d survives for the query "c d".
func TestSearchExcludeScenario(t *testing.T) {
	root := buildTree(t)

	s := New(Options{
		Root:      root,
		Words:     match.ParseQuery("c d"),
		MinLength: 1,
		Scope:     types.ScopeBoth,
		Excludes:  []string{"*.log", "*.pyc"},
		Workers:   2,
	})
	result, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(result.Matches), result.Matches)
	}
	want := filepath.Join(root, "c", "d")
	if result.Matches[0].Path != want {
		t.Errorf("match = %q, want %q", result.Matches[0].Path, want)
	}
}

func TestSearchOrderPreserved(t *testing.T) {
	root := buildTree(t)

	forward := New(Options{
		Root: root, Words: match.ParseQuery("c d"), MinLength: 1,
		Scope: types.ScopeFolders, Workers: 2,
	})
	result, err := forward.Search(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf(`query "c d" got %d matches, want 1`, len(result.Matches))
	}

	backward := New(Options{
		Root: root, Words: match.ParseQuery("d c"), MinLength: 1,
		Scope: types.ScopeFolders, Workers: 2,
	})
	result, err = backward.Search(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 0 {
		t.Errorf(`query "d c" got %d matches, want 0`, len(result.Matches))
	}
}

func TestSearchMissingRoot(t *testing.T) {
	s := New(Options{
		Root:      filepath.Join(t.TempDir(), "missing"),
		Words:     match.ParseQuery("x"),
		MinLength: 1,
		Scope:     types.ScopeBoth,
	})
	_, err := s.Search(context.Background())
	if !errors.Is(err, walker.ErrRootUnavailable) {
		t.Fatalf("err = %v, want ErrRootUnavailable", err)
	}
}

// fakeSource serves a fixed candidate list, or fails.
type fakeSource struct {
	entries []types.Entry
	err     error
}

func (f *fakeSource) Candidates(ctx context.Context, root string, scope types.Scope) ([]types.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func TestSearchFromIndexSource(t *testing.T) {
	source := &fakeSource{entries: []types.Entry{
		{RelPath: "c", Name: "c", IsDir: true, Depth: 1},
		{RelPath: "c/d", Name: "d", IsDir: true, Depth: 2},
		{RelPath: "b.log", Name: "b.log", IsDir: false, Depth: 1},
	}}

	s := New(Options{
		Root:      "/indexed",
		Words:     match.ParseQuery("c d"),
		MinLength: 1,
		Scope:     types.ScopeBoth,
		Excludes:  []string{"*.log"},
		Source:    source,
	})
	result, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if !result.FromIndex {
		t.Error("FromIndex = false, want true")
	}
	if len(result.Matches) != 1 || result.Matches[0].RelPath != "c/d" {
		t.Errorf("matches = %+v, want only c/d", result.Matches)
	}
}

func TestSearchIndexScopeFiltered(t *testing.T) {
	source := &fakeSource{entries: []types.Entry{
		{RelPath: "c", Name: "c", IsDir: true, Depth: 1},
		{RelPath: "c.txt", Name: "c.txt", IsDir: false, Depth: 1},
	}}

	s := New(Options{
		Root:      "/indexed",
		Words:     match.ParseQuery("c"),
		MinLength: 1,
		Scope:     types.ScopeFolders,
		Source:    source,
	})
	result, err := s.Search(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 || result.Matches[0].RelPath != "c" {
		t.Errorf("matches = %+v, want only the folder c", result.Matches)
	}
}

func TestSearchFallbackToWalk(t *testing.T) {
	root := buildTree(t)

	s := New(Options{
		Root:      root,
		Words:     match.ParseQuery("c d"),
		MinLength: 1,
		Scope:     types.ScopeFolders,
		Workers:   2,
		Source:    &fakeSource{err: ErrSourceUnavailable},
	})
	result, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.FromIndex {
		t.Error("FromIndex = true after fallback, want false")
	}
	if len(result.Matches) != 1 {
		t.Errorf("got %d matches after fallback, want 1", len(result.Matches))
	}
}

func TestSearchSourceHardError(t *testing.T) {
	boom := errors.New("boom")
	s := New(Options{
		Root:      t.TempDir(),
		Words:     match.ParseQuery("x"),
		MinLength: 1,
		Scope:     types.ScopeBoth,
		Source:    &fakeSource{err: boom},
	})
	_, err := s.Search(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestSearchLimit(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"target-a", "target-b", "target-c"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	s := New(Options{
		Root:      root,
		Words:     match.ParseQuery("target"),
		MinLength: 1,
		Scope:     types.ScopeFolders,
		Limit:     2,
		Workers:   2,
	})
	result, err := s.Search(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 2 {
		t.Errorf("got %d matches, want limit 2", len(result.Matches))
	}
}
