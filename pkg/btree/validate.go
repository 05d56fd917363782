package btree

import "fmt"

// Check walks the whole tree and verifies the structural invariants: key
// order inside every node, the fill bounds, the child counts, uniform leaf
// depth, the separator ranges, and that every live node in the store is
// reachable from the root. It returns the first violation found.
func (t *Tree) Check() error {
	if t.closed {
		return ErrClosed
	}
	if t.root == NilNode {
		if c := t.store.Count(); c != 0 {
			return fmt.Errorf("btree: empty tree but store holds %d nodes", c)
		}
		return nil
	}

	st := &checkState{leafDepth: -1}
	if err := t.checkNode(t.root, 0, nil, nil, true, st); err != nil {
		return err
	}
	if c := t.store.Count(); st.nodes != c {
		return fmt.Errorf("btree: %d nodes reachable but store holds %d", st.nodes, c)
	}
	return nil
}

type checkState struct {
	leafDepth int
	nodes     int
}

func (t *Tree) checkNode(id NodeID, depth int, lo, hi *int32, isRoot bool, st *checkState) error {
	n, err := t.store.Read(id)
	if err != nil {
		return fmt.Errorf("btree: node %d unreadable: %w", id, err)
	}
	st.nodes++

	if n.Len() > t.order-1 {
		return fmt.Errorf("btree: node %d holds %d keys, max %d", id, n.Len(), t.order-1)
	}
	if !isRoot && n.Len() < t.minKeys() {
		return fmt.Errorf("btree: node %d holds %d keys, min %d", id, n.Len(), t.minKeys())
	}
	if isRoot && n.Leaf && n.Len() == 0 {
		return fmt.Errorf("btree: empty leaf root %d should have been freed", id)
	}

	for i := 0; i < n.Len(); i++ {
		k := n.Keys[i]
		if i > 0 && n.Keys[i-1] >= k {
			return fmt.Errorf("btree: node %d keys not strictly ascending at %d", id, i)
		}
		if lo != nil && k <= *lo {
			return fmt.Errorf("btree: node %d key %d at or below bound %d", id, k, *lo)
		}
		if hi != nil && k >= *hi {
			return fmt.Errorf("btree: node %d key %d at or above bound %d", id, k, *hi)
		}
	}

	if n.Leaf {
		if st.leafDepth == -1 {
			st.leafDepth = depth
		} else if st.leafDepth != depth {
			return fmt.Errorf("btree: leaf %d at depth %d, expected %d", id, depth, st.leafDepth)
		}
		return nil
	}

	if len(n.Children) != n.Len()+1 {
		return fmt.Errorf("btree: node %d has %d children for %d keys", id, len(n.Children), n.Len())
	}
	for i, child := range n.Children {
		if child == NilNode {
			return fmt.Errorf("btree: node %d child %d is nil", id, i)
		}
		var clo, chi *int32
		if i > 0 {
			clo = &n.Keys[i-1]
		} else {
			clo = lo
		}
		if i < n.Len() {
			chi = &n.Keys[i]
		} else {
			chi = hi
		}
		if err := t.checkNode(child, depth+1, clo, chi, false, st); err != nil {
			return err
		}
	}
	return nil
}
