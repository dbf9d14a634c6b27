package tree

import (
	"path"
	"sort"
	"strings"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Build constructs a tree from ranked matches, rooted at the search root.
// Directories between the root and a match are created as connecting nodes
// so every match hangs off a complete ancestor chain.
func Build(root string, matches []types.Match) *Node {
	rootNode := &Node{
		Path:     root,
		Name:     displayRoot(root),
		IsDir:    true,
		Expanded: true,
	}

	// Index of created nodes by relative path for ancestor lookup.
	nodes := map[string]*Node{"": rootNode}

	for i := range matches {
		m := &matches[i]
		parent := ensureAncestors(rootNode, nodes, m.RelPath)

		node, exists := nodes[m.RelPath]
		if !exists {
			node = &Node{
				Path:  m.Path,
				Name:  m.Name,
				IsDir: m.IsDir,
			}
			parent.AddChild(node)
			nodes[m.RelPath] = node
		}
		node.IsMatch = true
		node.Score = m.Score
		node.Expanded = true
	}

	aggregate(rootNode)
	sortChildren(rootNode)
	return rootNode
}

// ensureAncestors creates any missing directory nodes between the root and
// relPath, returning the immediate parent node.
func ensureAncestors(root *Node, nodes map[string]*Node, relPath string) *Node {
	dir := path.Dir(relPath)
	if dir == "." || dir == "/" {
		return root
	}

	if node, exists := nodes[dir]; exists {
		return node
	}

	parent := ensureAncestors(root, nodes, dir)
	node := &Node{
		Path:     path.Join(root.Path, dir),
		Name:     path.Base(dir),
		IsDir:    true,
		Expanded: true,
	}
	parent.AddChild(node)
	nodes[dir] = node
	return node
}

// aggregate fills MatchCount and BestScore on every directory from the
// matches underneath it.
func aggregate(node *Node) (count int, best float64) {
	if node.IsMatch {
		count = 1
		best = node.Score
	}
	for _, child := range node.Children {
		c, b := aggregate(child)
		count += c
		if b > best {
			best = b
		}
	}
	node.MatchCount = count
	node.BestScore = best
	return count, best
}

// sortChildren orders children by best score descending so the strongest
// branches list first, with name as the tiebreak.
func sortChildren(node *Node) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.BestScore != b.BestScore {
			return a.BestScore > b.BestScore
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		sortChildren(child)
	}
}

// displayRoot abbreviates the root path for the tree header.
func displayRoot(root string) string {
	abbr := types.AbbreviateHome(root)
	if abbr == "" {
		return "/"
	}
	return abbr
}

// Render writes the tree in the familiar box-drawing layout used by the
// tree output format.
func Render(root *Node, sb *strings.Builder) {
	sb.WriteString(root.Name)
	sb.WriteByte('\n')
	renderChildren(root, "", sb)
}

func renderChildren(node *Node, prefix string, sb *strings.Builder) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(child.Name)
		if child.IsDir {
			sb.WriteByte('/')
		}
		sb.WriteByte('\n')

		renderChildren(child, childPrefix, sb)
	}
}
