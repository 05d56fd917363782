// Package btree implements an ordered key/value index as a B-tree of fixed
// branching factor (the order), persisted node by node through a NodeStore.
//
// Keys and payloads are signed 32-bit integers. The tree supports point
// search, insertion (re-inserting a key updates its payload), and full
// deletion with borrow-from-sibling and merge-with-sibling fix-ups. Two interchangeable store back-ends exist: MemoryStore for
// scratch trees and FileStore, which pages fixed-size node records in and
// out of a single binary file.
//
// The tree maintains the following invariants across every operation:
//   - Keys inside every node are strictly ascending
//   - Every non-root node holds between ceil(t/2)-1 and t-1 keys
//   - Every internal node has exactly one more child than keys
//   - All leaves sit at the same depth
//   - A child subtree's keys lie strictly between its flanking separators
//
// The tree is not safe for concurrent use; every public operation runs to
// completion before the next begins.
package btree

import "fmt"

// Tree is the public facade: the order, the bound store, and the current
// root ID. All state hangs off this value.
type Tree struct {
	order  int
	root   NodeID
	store  NodeStore
	closed bool
}

// New creates an empty tree over a fresh in-memory store.
// Orders below 3 are rejected.
func New(order int) (*Tree, error) {
	if order < 3 {
		return nil, ErrInvalidOrder
	}
	return &Tree{order: order, root: NilNode, store: NewMemoryStore(order)}, nil
}

// Open creates or rehydrates a file-backed tree at path. The root recorded
// in the file header becomes the tree's root, so a closed tree reopens
// exactly where it left off.
func Open(path string, order int) (*Tree, error) {
	if order < 3 {
		return nil, ErrInvalidOrder
	}
	store, err := OpenFileStore(path, order)
	if err != nil {
		return nil, err
	}
	return &Tree{order: order, root: store.Root(), store: store}, nil
}

// NewWithStore binds a tree to a caller-supplied store, adopting the root
// the store reports. The store must have been built for the same order.
func NewWithStore(order int, store NodeStore) (*Tree, error) {
	if order < 3 {
		return nil, ErrInvalidOrder
	}
	return &Tree{order: order, root: store.Root(), store: store}, nil
}

// Order returns the tree's branching factor.
func (t *Tree) Order() int {
	return t.order
}

// Root returns the current root ID, NilNode for the empty tree.
func (t *Tree) Root() NodeID {
	return t.root
}

// Nodes returns the number of live nodes in the store.
func (t *Tree) Nodes() int {
	return t.store.Count()
}

// minKeys is the fill bound every non-root node must satisfy: ceil(t/2)-1.
func (t *Tree) minKeys() int {
	return (t.order+1)/2 - 1
}

// Search locates key and returns the node and index that hold it.
// The tree is not touched; a miss returns ErrNotFound.
func (t *Tree) Search(key int32) (*SearchResult, error) {
	if t.closed {
		return nil, ErrClosed
	}
	id := t.root
	for id != NilNode {
		n, err := t.store.Read(id)
		if err != nil {
			return nil, err
		}
		idx, found := n.search(key)
		if found {
			return &SearchResult{Node: n.ID, Index: idx}, nil
		}
		if n.Leaf {
			break
		}
		id = n.Children[idx]
	}
	return nil, ErrNotFound
}

// Get returns the payload stored under key.
func (t *Tree) Get(key int32) (int32, error) {
	res, err := t.Search(key)
	if err != nil {
		return 0, err
	}
	n, err := t.store.Read(res.Node)
	if err != nil {
		return 0, err
	}
	return n.Values[res.Index], nil
}

// Len walks the tree and returns the number of stored keys.
func (t *Tree) Len() (int, error) {
	if t.closed {
		return 0, ErrClosed
	}
	count := 0
	err := t.walk(t.root, func(n *Node) error {
		count += n.Len()
		return nil
	})
	return count, err
}

// Pairs returns every key/value pair in ascending key order.
func (t *Tree) Pairs() ([]Pair, error) {
	if t.closed {
		return nil, ErrClosed
	}
	var out []Pair
	if err := t.inorder(t.root, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) inorder(id NodeID, out *[]Pair) error {
	if id == NilNode {
		return nil
	}
	n, err := t.store.Read(id)
	if err != nil {
		return err
	}
	for i := 0; i < n.Len(); i++ {
		if !n.Leaf {
			if err := t.inorder(n.Children[i], out); err != nil {
				return err
			}
		}
		*out = append(*out, Pair{Key: n.Keys[i], Value: n.Values[i]})
	}
	if !n.Leaf {
		return t.inorder(n.Children[n.Len()], out)
	}
	return nil
}

// walk visits every reachable node, parents before children.
func (t *Tree) walk(id NodeID, fn func(*Node) error) error {
	if id == NilNode {
		return nil
	}
	n, err := t.store.Read(id)
	if err != nil {
		return err
	}
	if err := fn(n); err != nil {
		return err
	}
	if !n.Leaf {
		for _, child := range n.Children {
			if err := t.walk(child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Levels returns the tree's nodes one level at a time, left to right.
// The empty tree yields nil. Used by the level-order printer and the
// diagnostics surface.
func (t *Tree) Levels() ([][]*Node, error) {
	if t.closed {
		return nil, ErrClosed
	}
	if t.root == NilNode {
		return nil, nil
	}
	var out [][]*Node
	level := []NodeID{t.root}
	for len(level) > 0 {
		nodes := make([]*Node, 0, len(level))
		var next []NodeID
		for _, id := range level {
			n, err := t.store.Read(id)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			if !n.Leaf {
				next = append(next, n.Children...)
			}
		}
		out = append(out, nodes)
		level = next
	}
	return out, nil
}

// Height returns the number of levels, 0 for the empty tree.
func (t *Tree) Height() (int, error) {
	levels, err := t.Levels()
	if err != nil {
		return 0, err
	}
	return len(levels), nil
}

// Close releases the store without touching the tree's contents. A
// file-backed tree can be reopened later with Open.
func (t *Tree) Close() error {
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	return t.store.Close()
}

// Destroy frees every reachable node in post-order and then closes the
// store. The tree ends empty; the file handle, when there is one, is
// closed last.
func (t *Tree) Destroy() error {
	if t.closed {
		return ErrClosed
	}
	if t.root != NilNode {
		if err := t.freeSubtree(t.root); err != nil {
			return err
		}
		t.root = NilNode
		if err := t.store.SetRoot(NilNode); err != nil {
			return err
		}
	}
	t.closed = true
	return t.store.Close()
}

func (t *Tree) freeSubtree(id NodeID) error {
	n, err := t.store.Read(id)
	if err != nil {
		return err
	}
	if !n.Leaf {
		for _, child := range n.Children {
			if err := t.freeSubtree(child); err != nil {
				return err
			}
		}
	}
	return t.store.Free(id)
}

// setRoot updates the in-memory root and records it in the store.
func (t *Tree) setRoot(id NodeID) error {
	t.root = id
	if err := t.store.SetRoot(id); err != nil {
		return fmt.Errorf("failed to record root: %w", err)
	}
	return nil
}
