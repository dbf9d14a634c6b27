package tree

import (
	"strings"
	"testing"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

func mkMatch(relPath string, isDir bool, score float64) types.Match {
	name := relPath
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		name = relPath[idx+1:]
	}
	return types.Match{
		Entry: types.Entry{
			RelPath: relPath,
			Name:    name,
			IsDir:   isDir,
			Depth:   strings.Count(relPath, "/") + 1,
		},
		Path:  "/root/" + relPath,
		Score: score,
	}
}

func TestBuildCreatesAncestors(t *testing.T) {
	root := Build("/root", []types.Match{
		mkMatch("projects/api/docs", true, 100),
	})

	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}
	projects := root.Children[0]
	if projects.Name != "projects" || projects.IsMatch {
		t.Errorf("projects node = %+v, want connecting directory", projects)
	}
	if len(projects.Children) != 1 || projects.Children[0].Name != "api" {
		t.Fatalf("projects children = %+v", projects.Children)
	}
	docs := projects.Children[0].Children[0]
	if !docs.IsMatch || docs.Score != 100 {
		t.Errorf("docs node = %+v, want match with score 100", docs)
	}
}

func TestBuildMarksExistingAncestorAsMatch(t *testing.T) {
	// A directory already created as an ancestor can itself be a match.
	root := Build("/root", []types.Match{
		mkMatch("a/b", true, 90),
		mkMatch("a", true, 60),
	})

	a := root.Children[0]
	if a.Name != "a" || !a.IsMatch || a.Score != 60 {
		t.Errorf("a = %+v, want match with score 60", a)
	}
	if a.MatchCount != 2 {
		t.Errorf("a.MatchCount = %d, want 2", a.MatchCount)
	}
}

func TestBuildAggregatesAndSorts(t *testing.T) {
	root := Build("/root", []types.Match{
		mkMatch("low/hit", true, 40),
		mkMatch("high/hit", true, 95),
	})

	if root.MatchCount != 2 {
		t.Errorf("root.MatchCount = %d, want 2", root.MatchCount)
	}
	if root.BestScore != 95 {
		t.Errorf("root.BestScore = %v, want 95", root.BestScore)
	}
	if root.Children[0].Name != "high" {
		t.Errorf("first child = %q, want high (best score first)", root.Children[0].Name)
	}
}

func TestFlattenRespectsCollapse(t *testing.T) {
	root := Build("/root", []types.Match{
		mkMatch("a/b", true, 80),
		mkMatch("c", false, 70),
	})

	all := root.Flatten()
	if len(all) != 4 { // root, a, b, c
		t.Fatalf("Flatten() returned %d nodes, want 4", len(all))
	}

	// Collapse "a" and its subtree disappears from view.
	for _, n := range root.Children {
		if n.Name == "a" {
			n.Toggle()
		}
	}
	visible := root.Flatten()
	if len(visible) != 3 {
		t.Errorf("Flatten() after collapse returned %d nodes, want 3", len(visible))
	}
}

func TestRender(t *testing.T) {
	root := Build("/root", []types.Match{
		mkMatch("projects/api", true, 100),
		mkMatch("notes.txt", false, 50),
	})

	var sb strings.Builder
	Render(root, &sb)
	out := sb.String()

	for _, want := range []string{"projects/", "└── ", "├── ", "notes.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestNodeDepth(t *testing.T) {
	root := Build("/root", []types.Match{mkMatch("a/b/c", true, 50)})

	node := root
	for len(node.Children) > 0 {
		node = node.Children[0]
	}
	if node.Name != "c" || node.Depth() != 3 {
		t.Errorf("deepest node = %q depth %d, want c at depth 3", node.Name, node.Depth())
	}
}
