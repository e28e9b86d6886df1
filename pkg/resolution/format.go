package resolution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/goliatone/go-formtree/internal/coerce"
)

// Format renders a resolved tree as an indented outline, one line per level
// and field, for CLI output and debugging.
func Format(tree []Resolved) string {
	root := treeprint.NewWithRoot("form")
	for _, node := range tree {
		addResolved(root, node)
	}
	return root.String()
}

func addResolved(parent treeprint.Tree, node Resolved) {
	switch n := node.(type) {
	case *ResolvedLevel:
		label := "level " + n.Level
		if len(n.ClassList) > 0 {
			label += " ." + strings.Join(n.ClassList, ".")
		}
		branch := parent.AddBranch(label)
		for _, child := range n.Children {
			addResolved(branch, child)
		}
	case *ResolvedField:
		parent.AddNode(describeField(n))
	}
}

func describeField(f *ResolvedField) string {
	var b strings.Builder
	b.WriteString("field")
	if f.ModelPath != "" {
		b.WriteString(" " + f.ModelPath)
	}
	if f.Widget != nil && f.Widget.Type != "" {
		fmt.Fprintf(&b, " <%s>", f.Widget.Type)
		if len(f.Widget.Params) > 0 {
			keys := make([]string, 0, len(f.Widget.Params))
			for key := range f.Widget.Params {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for idx, key := range keys {
				parts[idx] = key + "=" + coerce.String(f.Widget.Params[key])
			}
			b.WriteString(" {" + strings.Join(parts, ", ") + "}")
		}
	}
	if n := len(f.Validation); n > 0 {
		fmt.Fprintf(&b, " (%d validators)", n)
	}
	return b.String()
}

// FormatPrepared renders the prepared tree with per-node cache counters.
func FormatPrepared(root Prepared) string {
	tree := treeprint.NewWithRoot("prepared")
	addPrepared(tree, root, "")
	return tree.String()
}

func addPrepared(parent treeprint.Tree, node Prepared, prefix string) {
	if node == nil {
		return
	}
	stats := node.Stats()
	label := fmt.Sprintf("%s%s hits=%d misses=%d", prefix, describePrepared(node), stats.Hits, stats.Misses)
	switch n := node.(type) {
	case *Branch:
		branch := parent.AddBranch(label)
		for idx, c := range n.cases {
			addPrepared(branch, c.then, fmt.Sprintf("case %d: ", idx))
		}
		keys := make([]string, 0, len(n.keyed))
		for key := range n.keyed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			addPrepared(branch, n.keyed[key], fmt.Sprintf("case %q: ", key))
		}
		addPrepared(branch, n.fallback, "else: ")
	case *BranchArray:
		addPrepared(parent.AddBranch(label), n.template, "each: ")
	case *PreparedLevel:
		branch := parent.AddBranch(label)
		for _, child := range n.children {
			addPrepared(branch, child, "")
		}
	default:
		parent.AddNode(label)
	}
}

func describePrepared(node Prepared) string {
	switch n := node.(type) {
	case *Branch:
		return string(n.kind)
	case *BranchArray:
		return "for " + n.SplitPoint
	case *PreparedLevel:
		return "level " + n.schema.Level
	case *PreparedField:
		return "field " + n.schema.ModelPath
	default:
		return string(node.Tag())
	}
}
