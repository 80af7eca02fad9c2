package markdown

import (
	"io"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// OutlineNode is a section with its nested subsections.
type OutlineNode struct {
	Section
	Children []*OutlineNode `json:"children"`
}

// BuildOutline nests sections under the closest preceding section of a
// shallower level. Input order is kept; a deeper first section becomes a root.
func BuildOutline(sections []Section) []*OutlineNode {
	roots := []*OutlineNode{}
	var stack []*OutlineNode

	for _, s := range sections {
		node := &OutlineNode{Section: s, Children: []*OutlineNode{}}

		for len(stack) > 0 && stack[len(stack)-1].Level >= s.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}

	return roots
}

// CompactOutline keeps only level-1 roots, for narrow navigation panes.
func CompactOutline(roots []*OutlineNode) []*OutlineNode {
	compact := []*OutlineNode{}
	for _, n := range roots {
		if n.Level == 1 {
			compact = append(compact, n)
		}
	}
	return compact
}

// TreeLabel implements utils.TreeNode.
func (n *OutlineNode) TreeLabel() string {
	return n.Title + " (#" + n.Anchor + ")"
}

// TreeChildren implements utils.TreeNode.
func (n *OutlineNode) TreeChildren() []utils.TreeNode {
	children := make([]utils.TreeNode, len(n.Children))
	for i, c := range n.Children {
		children[i] = c
	}
	return children
}

// OutlineTreeNodes adapts roots for utils.WriteTree.
func OutlineTreeNodes(roots []*OutlineNode) []utils.TreeNode {
	nodes := make([]utils.TreeNode, len(roots))
	for i, r := range roots {
		nodes[i] = r
	}
	return nodes
}

// WriteOutline prints roots as a text tree under title.
func WriteOutline(w io.Writer, title string, roots []*OutlineNode) error {
	return utils.WriteTree(w, title, OutlineTreeNodes(roots))
}
