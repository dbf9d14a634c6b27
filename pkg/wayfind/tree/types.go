// Package tree provides a hierarchical view of search matches, grouped by
// their parent directories, for the tree output format and the TUI tree
// view.
package tree

// Node represents a directory or file in the match tree.
type Node struct {
	// Identity
	Path string `json:"path"`
	Name string `json:"name"`

	// Type
	IsDir bool `json:"is_dir"`

	// IsMatch marks nodes that are actual search matches; other nodes are
	// connecting directories on the way down to one.
	IsMatch bool    `json:"is_match,omitempty"`
	Score   float64 `json:"score,omitempty"`

	// Aggregates over matches underneath a directory.
	MatchCount int     `json:"match_count,omitempty"`
	BestScore  float64 `json:"best_score,omitempty"`

	// Tree structure
	Children []*Node `json:"children,omitempty"`
	Parent   *Node   `json:"-"` // Exclude from JSON to avoid cycles

	// UI state
	Expanded bool `json:"expanded,omitempty"`
	Selected bool `json:"selected,omitempty"`
}

// AddChild adds a child node and sets this node as the child's parent.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// IsLeaf returns true if the node is a file or an empty directory.
func (n *Node) IsLeaf() bool {
	return !n.IsDir || len(n.Children) == 0
}

// Depth returns the depth of this node from the root (root = 0).
func (n *Node) Depth() int {
	depth := 0
	current := n.Parent
	for current != nil {
		depth++
		current = current.Parent
	}
	return depth
}

// Flatten returns a slice of all visible nodes in display order.
// Collapsed directories hide their children.
func (n *Node) Flatten() []*Node {
	result := []*Node{n}

	// Only recurse into children if this is an expanded directory.
	if n.IsDir && n.Expanded {
		for _, child := range n.Children {
			result = append(result, child.Flatten()...)
		}
	}

	return result
}

// Toggle expands or collapses a directory node.
// Has no effect on file nodes.
func (n *Node) Toggle() {
	if !n.IsDir {
		return
	}
	n.Expanded = !n.Expanded
}

// ExpandAll expands this node and all descendants.
// Only affects directory nodes.
func (n *Node) ExpandAll() {
	if n.IsDir {
		n.Expanded = true
		for _, child := range n.Children {
			child.ExpandAll()
		}
	}
}

// CollapseAll collapses this node and all descendants.
// Only affects directory nodes.
func (n *Node) CollapseAll() {
	if n.IsDir {
		n.Expanded = false
		for _, child := range n.Children {
			child.CollapseAll()
		}
	}
}
