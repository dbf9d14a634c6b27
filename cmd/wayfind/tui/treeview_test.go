package tui

import (
	"strings"
	"testing"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

func treeMatches() []types.Match {
	return []types.Match{
		{Entry: types.Entry{RelPath: "api/docs", Name: "docs", IsDir: true, Depth: 2}, Path: "/root/api/docs", Score: 100},
		{Entry: types.Entry{RelPath: "api/docs/readme.md", Name: "readme.md", Depth: 3}, Path: "/root/api/docs/readme.md", Score: 60},
		{Entry: types.Entry{RelPath: "web/docs", Name: "docs", IsDir: true, Depth: 2}, Path: "/root/web/docs", Score: 80},
	}
}

func TestTreeModelBuildsRows(t *testing.T) {
	m := NewTreeModel()
	m.SetMatches("/root", treeMatches())

	// api, api/docs, api/docs/readme.md, web, web/docs
	if m.Len() != 5 {
		t.Fatalf("expected 5 visible rows, got %d", m.Len())
	}

	node, ok := m.Current()
	if !ok {
		t.Fatal("expected a current node")
	}
	if node.Depth() != 1 {
		t.Errorf("first row must be a top-level directory, depth %d", node.Depth())
	}
}

func TestTreeModelCollapse(t *testing.T) {
	m := NewTreeModel()
	m.SetMatches("/root", treeMatches())

	// Find a collapsible directory under the cursor.
	node, ok := m.Current()
	if !ok || !node.IsDir {
		t.Fatal("expected a directory row first")
	}

	before := m.Len()
	m.HandleKey(" ")
	if m.Len() >= before {
		t.Errorf("collapsing must hide children: %d -> %d rows", before, m.Len())
	}

	m.HandleKey(" ")
	if m.Len() != before {
		t.Errorf("expanding must restore children: got %d, want %d", m.Len(), before)
	}
}

func TestTreeModelCollapseClampsCursor(t *testing.T) {
	m := NewTreeModel()
	m.SetMatches("/root", treeMatches())

	m.HandleKey("end")
	last := m.cursor

	m.HandleKey("home")
	m.HandleKey(" ") // collapse the first branch
	if m.cursor >= m.Len() {
		t.Errorf("cursor %d out of range after collapse (rows %d, was %d)", m.cursor, m.Len(), last)
	}
}

func TestTreeModelEmpty(t *testing.T) {
	m := NewTreeModel()
	m.SetMatches("/root", nil)

	if m.Len() != 0 {
		t.Errorf("empty result must have no rows, got %d", m.Len())
	}
	if _, ok := m.Current(); ok {
		t.Error("empty tree must have no current node")
	}
	if !strings.Contains(m.View(), "no results") {
		t.Error("empty view must say no results")
	}
}

func TestTreeModelView(t *testing.T) {
	m := NewTreeModel()
	m.SetMatches("/root", treeMatches())

	view := m.View()
	if !strings.Contains(view, "docs/") {
		t.Errorf("view must mark directories with a trailing slash:\n%s", view)
	}
	if !strings.Contains(view, "readme.md") {
		t.Errorf("view must include file rows:\n%s", view)
	}
}

func TestTruncatePath(t *testing.T) {
	if got := truncatePath("/short", 20); got != "/short" {
		t.Errorf("short paths must pass through, got %q", got)
	}
	got := truncatePath("/very/long/path/to/somewhere/deep", 15)
	if len(got) != 15 {
		t.Errorf("truncated length = %d, want 15", len(got))
	}
	if !strings.HasPrefix(got, "...") {
		t.Errorf("truncation must keep the tail, got %q", got)
	}
	if !strings.HasSuffix(got, "deep") {
		t.Errorf("truncation must keep the final component, got %q", got)
	}
}
