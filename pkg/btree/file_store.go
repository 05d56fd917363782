package btree

import (
	"fmt"
	"os"
	"sync"

	"github.com/ssargent/yggdrasil/pkg/codec"
)

// FileStore maps node IDs to fixed-size slots in a single index file. The
// slot format is owned by pkg/codec; this type owns the file handle, the
// header, and the free list of tombstoned slots.
//
// All I/O goes through ReadAt/WriteAt on one descriptor, so a read issued
// after a write inside the same process always observes the new bytes.
type FileStore struct {
	f     *os.File
	codec *codec.NodeCodec
	path  string
	order int
	slots uint32
	root  NodeID
	free  []NodeID
	mutex sync.Mutex
}

// OpenFileStore opens or creates the index file at path. An existing file
// must carry the Yggdrasil magic and the same order it was created with;
// its free list is rebuilt by scanning the slots for tombstones.
func OpenFileStore(path string, order int) (*FileStore, error) {
	if order < 3 {
		return nil, ErrInvalidOrder
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}

	fs := &FileStore{
		f:     f,
		codec: codec.NewNodeCodec(order),
		path:  path,
		order: order,
		root:  NilNode,
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}

	if stat.Size() == 0 {
		if err := fs.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
		return fs, nil
	}

	hdr := make([]byte, codec.HeaderSize)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}
	h, err := codec.DecodeHeader(hdr)
	if err != nil {
		f.Close()
		return nil, err
	}
	if h.Order != uint32(order) {
		f.Close()
		return nil, fmt.Errorf("index file %s has order %d, tree opened with order %d", path, h.Order, order)
	}
	fs.slots = h.Slots
	fs.root = NodeID(h.Root)

	if err := fs.scanFreeList(); err != nil {
		f.Close()
		return nil, err
	}
	return fs, nil
}

// scanFreeList walks every slot once and collects the tombstones.
func (s *FileStore) scanFreeList() error {
	buf := make([]byte, s.codec.SlotSize())
	for id := NodeID(0); uint32(id) < s.slots; id++ {
		if _, err := s.f.ReadAt(buf, s.codec.Offset(int32(id))); err != nil {
			return fmt.Errorf("failed to scan slot %d: %w", id, err)
		}
		rec, err := s.codec.Decode(buf)
		if err != nil {
			return err
		}
		if rec.Freed {
			s.free = append(s.free, id)
		}
	}
	return nil
}

func (s *FileStore) writeHeader() error {
	buf := codec.EncodeHeader(codec.Header{
		Order: uint32(s.order),
		Slots: s.slots,
		Root:  int32(s.root),
	})
	if _, err := s.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}
	return nil
}

// Allocate claims a slot, preferring a tombstoned one, and persists a
// zero-key node there.
func (s *FileStore) Allocate(leaf bool) (*Node, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var id NodeID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		id = NodeID(s.slots)
		s.slots++
		if err := s.writeHeader(); err != nil {
			return nil, err
		}
	}

	n := newNode(id, leaf, s.order)
	if err := s.writeNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Read pages the slot in and returns an owned copy of the node.
func (s *FileStore) Read(id NodeID) (*Node, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if id < 0 || uint32(id) >= s.slots {
		return nil, ErrInvalidNode
	}
	buf := make([]byte, s.codec.SlotSize())
	if _, err := s.f.ReadAt(buf, s.codec.Offset(int32(id))); err != nil {
		return nil, fmt.Errorf("failed to read node %d: %w", id, err)
	}
	rec, err := s.codec.Decode(buf)
	if err != nil {
		return nil, err
	}
	if rec.Freed {
		return nil, ErrInvalidNode
	}
	return nodeFromRecord(rec, s.order), nil
}

// Write persists the node at its own slot.
func (s *FileStore) Write(n *Node) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if n.ID < 0 || uint32(n.ID) >= s.slots {
		return ErrInvalidNode
	}
	return s.writeNode(n)
}

func (s *FileStore) writeNode(n *Node) error {
	buf, err := s.codec.Encode(recordFromNode(n))
	if err != nil {
		return err
	}
	if _, err := s.f.WriteAt(buf, s.codec.Offset(int32(n.ID))); err != nil {
		return fmt.Errorf("failed to write node %d: %w", n.ID, err)
	}
	return nil
}

// Free tombstones the slot so a later allocation can reuse it.
func (s *FileStore) Free(id NodeID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if id < 0 || uint32(id) >= s.slots {
		return ErrInvalidNode
	}
	buf, err := s.codec.Encode(codec.FreedRecord(int32(id)))
	if err != nil {
		return err
	}
	if _, err := s.f.WriteAt(buf, s.codec.Offset(int32(id))); err != nil {
		return fmt.Errorf("failed to free node %d: %w", id, err)
	}
	s.free = append(s.free, id)
	return nil
}

// Root returns the root ID recorded in the header.
func (s *FileStore) Root() NodeID {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.root
}

// SetRoot records the root ID in the header so a reopened file rehydrates
// to the same tree.
func (s *FileStore) SetRoot(id NodeID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.root = id
	return s.writeHeader()
}

// Count returns the number of live (non-tombstoned) slots.
func (s *FileStore) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return int(s.slots) - len(s.free)
}

// Close flushes and closes the index file.
func (s *FileStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return fmt.Errorf("failed to sync index file: %w", err)
	}
	return s.f.Close()
}

func recordFromNode(n *Node) *codec.NodeRecord {
	rec := &codec.NodeRecord{
		ID:     int32(n.ID),
		Leaf:   n.Leaf,
		Keys:   n.Keys,
		Values: n.Values,
	}
	if !n.Leaf {
		rec.Children = make([]int32, len(n.Children))
		for i, c := range n.Children {
			rec.Children[i] = int32(c)
		}
	}
	return rec
}

func nodeFromRecord(rec *codec.NodeRecord, order int) *Node {
	n := newNode(NodeID(rec.ID), rec.Leaf, order)
	n.Keys = append(n.Keys, rec.Keys...)
	n.Values = append(n.Values, rec.Values...)
	if !rec.Leaf {
		for _, c := range rec.Children {
			n.Children = append(n.Children, NodeID(c))
		}
	}
	return n
}
