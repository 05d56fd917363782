package btree

// Delete removes key from the tree. Removing an absent key returns
// ErrNotFound and mutates nothing.
//
// The removal recurses to the node holding the key; a leaf hit shifts the
// pair out, an internal hit replaces the key with its in-order predecessor
// (or successor, whichever flank can spare a key) and deletes that from
// the child subtree. On the way back up, a child that fell below the
// minimum fill is repaired: borrow from the left sibling when it is above
// minimum, else from the right, else merge with a neighbour, pulling the
// separator down and freeing the right-hand node's slot. A root left with
// zero keys collapses: an empty leaf root frees to the empty tree, an
// empty internal root promotes its single child.
func (t *Tree) Delete(key int32) error {
	if t.closed {
		return ErrClosed
	}
	if t.root == NilNode {
		return ErrNotFound
	}

	if err := t.deleteFrom(t.root, key); err != nil {
		return err
	}

	root, err := t.store.Read(t.root)
	if err != nil {
		return err
	}
	if root.Len() > 0 {
		return nil
	}
	if root.Leaf {
		if err := t.store.Free(root.ID); err != nil {
			return err
		}
		return t.setRoot(NilNode)
	}
	child := root.Children[0]
	if err := t.store.Free(root.ID); err != nil {
		return err
	}
	return t.setRoot(child)
}

func (t *Tree) deleteFrom(id NodeID, key int32) error {
	n, err := t.store.Read(id)
	if err != nil {
		return err
	}

	idx, found := n.search(key)
	if found {
		if n.Leaf {
			n.removeAt(idx)
			return t.store.Write(n)
		}
		return t.deleteInternal(n, idx)
	}

	if n.Leaf {
		return ErrNotFound
	}
	if err := t.deleteFrom(n.Children[idx], key); err != nil {
		return err
	}
	return t.rebalance(id, idx)
}

// deleteInternal removes Keys[idx] from an internal node by substituting a
// neighbouring key from a child subtree and deleting that key down there.
func (t *Tree) deleteInternal(n *Node, idx int) error {
	min := t.minKeys()

	left, err := t.store.Read(n.Children[idx])
	if err != nil {
		return err
	}
	if left.Len() > min {
		pk, pv, err := t.maxOf(left.ID)
		if err != nil {
			return err
		}
		n.Keys[idx], n.Values[idx] = pk, pv
		if err := t.store.Write(n); err != nil {
			return err
		}
		if err := t.deleteFrom(n.Children[idx], pk); err != nil {
			return err
		}
		return t.rebalance(n.ID, idx)
	}

	right, err := t.store.Read(n.Children[idx+1])
	if err != nil {
		return err
	}
	if right.Len() > min {
		sk, sv, err := t.minOf(right.ID)
		if err != nil {
			return err
		}
		n.Keys[idx], n.Values[idx] = sk, sv
		if err := t.store.Write(n); err != nil {
			return err
		}
		if err := t.deleteFrom(n.Children[idx+1], sk); err != nil {
			return err
		}
		return t.rebalance(n.ID, idx+1)
	}

	// Both flanking children sit at the minimum. Take the predecessor
	// anyway; the rebalance below repairs the child it came from.
	pk, pv, err := t.maxOf(left.ID)
	if err != nil {
		return err
	}
	n.Keys[idx], n.Values[idx] = pk, pv
	if err := t.store.Write(n); err != nil {
		return err
	}
	if err := t.deleteFrom(n.Children[idx], pk); err != nil {
		return err
	}
	return t.rebalance(n.ID, idx)
}

// maxOf returns the rightmost pair of the subtree rooted at id.
func (t *Tree) maxOf(id NodeID) (int32, int32, error) {
	for {
		n, err := t.store.Read(id)
		if err != nil {
			return 0, 0, err
		}
		if n.Leaf {
			last := n.Len() - 1
			return n.Keys[last], n.Values[last], nil
		}
		id = n.Children[n.Len()]
	}
}

// minOf returns the leftmost pair of the subtree rooted at id.
func (t *Tree) minOf(id NodeID) (int32, int32, error) {
	for {
		n, err := t.store.Read(id)
		if err != nil {
			return 0, 0, err
		}
		if n.Leaf {
			return n.Keys[0], n.Values[0], nil
		}
		id = n.Children[0]
	}
}

// rebalance restores the minimum fill of parent's childIdx-th child after a
// deletion below it. The parent is re-read so the check always runs against
// the committed state.
func (t *Tree) rebalance(parentID NodeID, childIdx int) error {
	parent, err := t.store.Read(parentID)
	if err != nil {
		return err
	}
	child, err := t.store.Read(parent.Children[childIdx])
	if err != nil {
		return err
	}
	if child.Len() >= t.minKeys() {
		return nil
	}

	if childIdx > 0 {
		left, err := t.store.Read(parent.Children[childIdx-1])
		if err != nil {
			return err
		}
		if left.Len() > t.minKeys() {
			return t.rotateFromLeft(parent, childIdx, left, child)
		}
	}
	if childIdx < len(parent.Children)-1 {
		right, err := t.store.Read(parent.Children[childIdx+1])
		if err != nil {
			return err
		}
		if right.Len() > t.minKeys() {
			return t.rotateFromRight(parent, childIdx, child, right)
		}
	}

	// Neither sibling can spare a key: merge with the right neighbour,
	// or with the left one when the child is rightmost.
	if childIdx == len(parent.Children)-1 {
		childIdx--
	}
	return t.mergeChildren(parent, childIdx)
}

// rotateFromLeft moves the left sibling's outermost key through the parent
// separator into the deficient child.
func (t *Tree) rotateFromLeft(parent *Node, childIdx int, left, child *Node) error {
	sep := childIdx - 1

	child.insertAt(0, parent.Keys[sep], parent.Values[sep])
	if !child.Leaf {
		child.insertChildAt(0, left.Children[left.Len()])
		left.Children = left.Children[:left.Len()]
	}

	last := left.Len() - 1
	parent.Keys[sep], parent.Values[sep] = left.Keys[last], left.Values[last]
	left.Keys = left.Keys[:last]
	left.Values = left.Values[:last]

	if err := t.store.Write(left); err != nil {
		return err
	}
	if err := t.store.Write(child); err != nil {
		return err
	}
	return t.store.Write(parent)
}

// rotateFromRight is the mirror image: the right sibling's first key moves
// through the parent separator into the deficient child.
func (t *Tree) rotateFromRight(parent *Node, childIdx int, child, right *Node) error {
	sep := childIdx

	child.Keys = append(child.Keys, parent.Keys[sep])
	child.Values = append(child.Values, parent.Values[sep])
	if !child.Leaf {
		child.Children = append(child.Children, right.Children[0])
		right.removeChildAt(0)
	}

	parent.Keys[sep], parent.Values[sep] = right.Keys[0], right.Values[0]
	right.removeAt(0)

	if err := t.store.Write(right); err != nil {
		return err
	}
	if err := t.store.Write(child); err != nil {
		return err
	}
	return t.store.Write(parent)
}

// mergeChildren folds parent's children i and i+1 into one node around
// their separator, closes the gap in the parent, and frees the right
// node's slot.
func (t *Tree) mergeChildren(parent *Node, i int) error {
	left, err := t.store.Read(parent.Children[i])
	if err != nil {
		return err
	}
	right, err := t.store.Read(parent.Children[i+1])
	if err != nil {
		return err
	}

	left.Keys = append(left.Keys, parent.Keys[i])
	left.Values = append(left.Values, parent.Values[i])
	left.Keys = append(left.Keys, right.Keys...)
	left.Values = append(left.Values, right.Values...)
	if !left.Leaf {
		left.Children = append(left.Children, right.Children...)
	}

	parent.removeAt(i)
	parent.removeChildAt(i + 1)

	if err := t.store.Write(left); err != nil {
		return err
	}
	if err := t.store.Write(parent); err != nil {
		return err
	}
	return t.store.Free(right.ID)
}
