package btree

import (
	"fmt"
	"io"
	"strings"
)

// EmptyTreeDump is what Fprint writes for a tree with no keys.
const EmptyTreeDump = "Árvore vazia"

// Fprint writes the level-order dump: the root's contents on a "root: "
// line, then one line per level below it with the level's nodes
// comma-separated. Each node prints as "[ key: value, ... ]".
func (t *Tree) Fprint(w io.Writer) error {
	levels, err := t.Levels()
	if err != nil {
		return err
	}
	if levels == nil {
		_, err := fmt.Fprintln(w, EmptyTreeDump)
		return err
	}

	if _, err := fmt.Fprintf(w, "root: %s\n", formatNode(levels[0][0])); err != nil {
		return err
	}
	for _, level := range levels[1:] {
		parts := make([]string, len(level))
		for i, n := range level {
			parts[i] = formatNode(n)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// String renders the whole dump as one string, mostly for diagnostics.
func (t *Tree) String() string {
	var b strings.Builder
	if err := t.Fprint(&b); err != nil {
		return fmt.Sprintf("btree: %v", err)
	}
	return b.String()
}

func formatNode(n *Node) string {
	var b strings.Builder
	b.WriteString("[ ")
	for i := 0; i < n.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: %d", n.Keys[i], n.Values[i])
	}
	b.WriteString(" ]")
	return b.String()
}
