package btree

// NodeID identifies a node inside a NodeStore. IDs are stable for the life
// of the node and, for the file-backed store, across process restarts.
type NodeID int32

// NilNode is the absent-node sentinel. It doubles as the padding value for
// unused child slots in the on-disk record format.
const NilNode NodeID = -1

// Node is a single B-tree node: an ascending run of keys, the payloads
// parallel to them, and (for internal nodes) one child ID per key interval.
//
// A node holds at most order-1 keys once an operation commits. During an
// insertion a node may briefly hold order keys; the split that follows
// brings it back under the bound before anything is written.
type Node struct {
	ID       NodeID
	Leaf     bool
	Keys     []int32
	Values   []int32
	Children []NodeID
}

// newNode returns an empty node with capacity for one transient overflow key.
func newNode(id NodeID, leaf bool, order int) *Node {
	n := &Node{
		ID:     id,
		Leaf:   leaf,
		Keys:   make([]int32, 0, order),
		Values: make([]int32, 0, order),
	}
	if !leaf {
		n.Children = make([]NodeID, 0, order+1)
	}
	return n
}

// Len returns the number of live keys.
func (n *Node) Len() int {
	return len(n.Keys)
}

// Clone returns an independent copy of the node. Stores hand out clones so
// that a borrowed node never aliases the stored one.
func (n *Node) Clone() *Node {
	c := &Node{ID: n.ID, Leaf: n.Leaf}
	c.Keys = append(make([]int32, 0, cap(n.Keys)), n.Keys...)
	c.Values = append(make([]int32, 0, cap(n.Values)), n.Values...)
	if n.Children != nil {
		c.Children = append(make([]NodeID, 0, cap(n.Children)), n.Children...)
	}
	return c
}

// search scans left to right for the smallest index i with key <= Keys[i].
// The second result reports an exact hit. A miss index is the child to
// descend through (index == Len() means the rightmost child).
func (n *Node) search(key int32) (int, bool) {
	for i, k := range n.Keys {
		if key == k {
			return i, true
		}
		if key < k {
			return i, false
		}
	}
	return len(n.Keys), false
}

// insertAt shifts the key and value runs right and places the pair at idx.
func (n *Node) insertAt(idx int, key, value int32) {
	n.Keys = append(n.Keys, 0)
	copy(n.Keys[idx+1:], n.Keys[idx:])
	n.Keys[idx] = key

	n.Values = append(n.Values, 0)
	copy(n.Values[idx+1:], n.Values[idx:])
	n.Values[idx] = value
}

// removeAt shifts the key and value runs left over the vacated slot.
func (n *Node) removeAt(idx int) (int32, int32) {
	key, value := n.Keys[idx], n.Values[idx]
	n.Keys = append(n.Keys[:idx], n.Keys[idx+1:]...)
	n.Values = append(n.Values[:idx], n.Values[idx+1:]...)
	return key, value
}

// insertChildAt places a child ID at idx, shifting the run right.
func (n *Node) insertChildAt(idx int, id NodeID) {
	n.Children = append(n.Children, NilNode)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = id
}

// removeChildAt shifts the child run left over the vacated slot.
func (n *Node) removeChildAt(idx int) NodeID {
	id := n.Children[idx]
	n.Children = append(n.Children[:idx], n.Children[idx+1:]...)
	return id
}
