package utils

import (
	"fmt"
	"io"
)

const (
	indentPrefix    = "    "
	entryPrefix     = "├── "
	lastEntryPrefix = "└── "
	verticalLine    = "│   "
)

// TreeNode is anything that can be printed as a line in a text tree.
type TreeNode interface {
	TreeLabel() string
	TreeChildren() []TreeNode
}

// WriteTree writes a text tree of nodes below a title line.
// An empty title skips the header line.
func WriteTree(w io.Writer, title string, nodes []TreeNode) error {
	if title != "" {
		if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
			return err
		}
	}
	return writeTreeLevel(w, nodes, "")
}

// writeTreeLevel writes one level of entries and recurses into children
func writeTreeLevel(w io.Writer, nodes []TreeNode, currentIndent string) error {
	for i, node := range nodes {
		isLast := i == len(nodes)-1

		connector := entryPrefix
		if isLast {
			connector = lastEntryPrefix
		}

		if _, err := fmt.Fprintf(w, "%s%s%s\n", currentIndent, connector, node.TreeLabel()); err != nil {
			return err // Stop on first write error
		}

		children := node.TreeChildren()
		if len(children) == 0 {
			continue
		}

		nextIndent := currentIndent
		if isLast {
			nextIndent += indentPrefix // No vertical line needed after last entry
		} else {
			nextIndent += verticalLine
		}
		if err := writeTreeLevel(w, children, nextIndent); err != nil {
			return err
		}
	}
	return nil
}
