package output

import (
	"bytes"
	"strings"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/tree"
)

// TreeFormatter formats output as a directory tree rooted at the search
// root. Matches hang off their ancestor chain, with connecting directories
// created as needed, so related results group visually.
type TreeFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TreeFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Search == nil || len(r.Search.Matches) == 0 {
		return nil
	}

	root := tree.Build(r.Search.Root, r.Search.Matches)

	var sb strings.Builder
	tree.Render(root, &sb)
	w.WriteString(sb.String())
	return nil
}

func init() {
	Register("tree", func() Formatter {
		return &TreeFormatter{}
	})
}

// Ensure TreeFormatter implements Formatter.
var _ Formatter = (*TreeFormatter)(nil)
