package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic marks a Yggdrasil index file ("YGG1" when read little-endian).
	Magic uint32 = 0x31474759

	// HeaderSize is the byte length of the file header.
	HeaderSize = 16

	// slotHdrSize covers NKeys, Flags plus padding, and the node's own ID.
	slotHdrSize = 12

	flagLeaf  = 1 << 0
	flagFreed = 1 << 1

	// sentinel pads unused key, value and child entries.
	sentinel = int32(-1)
)

var (
	ErrBadMagic = errors.New("codec: bad magic")
	ErrTooShort = errors.New("codec: buffer too short")
	ErrCorrupt  = errors.New("codec: corrupt node record")
)

// Header is the decoded file header.
type Header struct {
	Order uint32 // branching factor the file was created with
	Slots uint32 // allocated slot count, including tombstones
	Root  int32  // root node ID, -1 when the tree is empty
}

// EncodeHeader serializes the header into a fresh HeaderSize buffer.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Order)
	binary.LittleEndian.PutUint32(buf[8:12], h.Slots)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.Root))
	return buf
}

// DecodeHeader parses and validates a file header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTooShort
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Order: binary.LittleEndian.Uint32(buf[4:8]),
		Slots: binary.LittleEndian.Uint32(buf[8:12]),
		Root:  int32(binary.LittleEndian.Uint32(buf[12:16])),
	}
	if h.Order < 3 {
		return Header{}, fmt.Errorf("codec: header order %d out of range: %w", h.Order, ErrCorrupt)
	}
	return h, nil
}

// NodeRecord is the slot-level view of a tree node. The store converts
// between this and its in-memory node type.
type NodeRecord struct {
	ID       int32
	Leaf     bool
	Freed    bool
	Keys     []int32
	Values   []int32
	Children []int32
}

// NodeCodec encodes and decodes fixed-size node slots for one tree order.
type NodeCodec struct {
	order    int
	slotSize int
}

// NewNodeCodec creates a codec for the given order.
func NewNodeCodec(order int) *NodeCodec {
	return &NodeCodec{
		order:    order,
		slotSize: slotHdrSize + (order-1)*8 + order*4,
	}
}

// Order returns the branching factor the codec was built for.
func (c *NodeCodec) Order() int {
	return c.order
}

// SlotSize returns the byte length of one encoded slot.
func (c *NodeCodec) SlotSize() int {
	return c.slotSize
}

// Offset returns the byte offset of slot id inside the file.
func (c *NodeCodec) Offset(id int32) int64 {
	return HeaderSize + int64(id)*int64(c.slotSize)
}

// Encode serializes a node record into a fresh slot-size buffer, padding
// unused entries with the sentinel.
func (c *NodeCodec) Encode(rec *NodeRecord) ([]byte, error) {
	if len(rec.Keys) > c.order-1 {
		return nil, fmt.Errorf("codec: node %d holds %d keys, max %d: %w",
			rec.ID, len(rec.Keys), c.order-1, ErrCorrupt)
	}
	if len(rec.Values) != len(rec.Keys) {
		return nil, fmt.Errorf("codec: node %d has %d values for %d keys: %w",
			rec.ID, len(rec.Values), len(rec.Keys), ErrCorrupt)
	}
	if len(rec.Children) > c.order {
		return nil, fmt.Errorf("codec: node %d holds %d children, max %d: %w",
			rec.ID, len(rec.Children), c.order, ErrCorrupt)
	}

	buf := make([]byte, c.slotSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(rec.Keys)))
	var flags byte
	if rec.Leaf {
		flags |= flagLeaf
	}
	if rec.Freed {
		flags |= flagFreed
	}
	buf[4] = flags
	binary.LittleEndian.PutUint32(buf[8:12], uint32(rec.ID))

	keyOff := slotHdrSize
	valOff := keyOff + (c.order-1)*4
	childOff := valOff + (c.order-1)*4

	for i := 0; i < c.order-1; i++ {
		k, v := sentinel, sentinel
		if i < len(rec.Keys) {
			k, v = rec.Keys[i], rec.Values[i]
		}
		binary.LittleEndian.PutUint32(buf[keyOff+i*4:], uint32(k))
		binary.LittleEndian.PutUint32(buf[valOff+i*4:], uint32(v))
	}
	for i := 0; i < c.order; i++ {
		child := sentinel
		if i < len(rec.Children) {
			child = rec.Children[i]
		}
		binary.LittleEndian.PutUint32(buf[childOff+i*4:], uint32(child))
	}
	return buf, nil
}

// Decode parses one slot. Tombstoned slots come back with Freed set and no
// key, value or child data.
func (c *NodeCodec) Decode(buf []byte) (*NodeRecord, error) {
	if len(buf) < c.slotSize {
		return nil, ErrTooShort
	}

	rec := &NodeRecord{
		ID:    int32(binary.LittleEndian.Uint32(buf[8:12])),
		Leaf:  buf[4]&flagLeaf != 0,
		Freed: buf[4]&flagFreed != 0,
	}
	if rec.Freed {
		return rec, nil
	}

	nKeys := int(binary.LittleEndian.Uint32(buf[0:4]))
	if nKeys > c.order-1 {
		return nil, fmt.Errorf("codec: node %d declares %d keys, max %d: %w",
			rec.ID, nKeys, c.order-1, ErrCorrupt)
	}

	keyOff := slotHdrSize
	valOff := keyOff + (c.order-1)*4
	childOff := valOff + (c.order-1)*4

	rec.Keys = make([]int32, nKeys)
	rec.Values = make([]int32, nKeys)
	for i := 0; i < nKeys; i++ {
		rec.Keys[i] = int32(binary.LittleEndian.Uint32(buf[keyOff+i*4:]))
		rec.Values[i] = int32(binary.LittleEndian.Uint32(buf[valOff+i*4:]))
	}
	if !rec.Leaf {
		rec.Children = make([]int32, 0, nKeys+1)
		for i := 0; i <= nKeys && i < c.order; i++ {
			child := int32(binary.LittleEndian.Uint32(buf[childOff+i*4:]))
			if child == sentinel {
				return nil, fmt.Errorf("codec: node %d missing child %d: %w", rec.ID, i, ErrCorrupt)
			}
			rec.Children = append(rec.Children, child)
		}
	}
	return rec, nil
}

// FreedRecord returns the tombstone record written when a slot is released.
func FreedRecord(id int32) *NodeRecord {
	return &NodeRecord{ID: id, Freed: true}
}
