package bptree

import (
	"encoding/binary"
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
)

// InternalNode routes searches between child subtrees. For k keys there
// are k+1 children: children[i] holds keys strictly less than keys[i];
// children[i+1] holds keys in [keys[i], keys[i+1]), or unbounded above
// for the last child.
type InternalNode struct {
	PageID   uint64
	KeyKind  field.Kind
	Keys     []field.Value
	Children []uint64
}

// Leaf holds the authoritative data pointers: pointers[i] is the PageId
// of the Record page for keys[i]. NextLeafID is 0 when this is the last
// leaf in ascending key order.
type Leaf struct {
	PageID     uint64
	KeyKind    field.Kind
	Keys       []field.Value
	Pointers   []uint64
	NextLeafID uint64
}

// EncodeInternal renders n as a full, zero-padded page.
func EncodeInternal(n InternalNode) ([]byte, error) {
	if len(n.Children) != len(n.Keys)+1 {
		return nil, fmt.Errorf("bptree: internal node has %d keys but %d children (want %d)", len(n.Keys), len(n.Children), len(n.Keys)+1)
	}
	if len(n.Keys) > 255 {
		return nil, fmt.Errorf("bptree: internal node has %d keys, exceeds max 255", len(n.Keys))
	}
	body := make([]byte, 0, prefixSize+2+len(n.Keys)*16)
	body = appendPrefix(body, n.PageID, TagInternal)
	body = append(body, byte(len(n.Keys)), byte(n.KeyKind))
	for _, k := range n.Keys {
		kb, err := encodeKey(k)
		if err != nil {
			return nil, err
		}
		body = append(body, kb...)
	}
	for _, c := range n.Children {
		body = binary.LittleEndian.AppendUint64(body, c)
	}
	return padToPage(body)
}

// DecodeInternal parses a full page into an InternalNode.
func DecodeInternal(buf []byte) (InternalNode, error) {
	id, tag, rest, err := splitPrefix(buf)
	if err != nil {
		return InternalNode{}, err
	}
	if tag != TagInternal {
		return InternalNode{}, fmt.Errorf("bptree: expected internal node tag 0x%02x, found 0x%02x", TagInternal, tag)
	}
	if len(rest) < 2 {
		return InternalNode{}, fmt.Errorf("bptree: truncated internal node header")
	}
	keysLen := int(rest[0])
	kind, err := field.ParseKind(rest[1])
	if err != nil {
		return InternalNode{}, fmt.Errorf("bptree: internal node: %w", err)
	}
	rest = rest[2:]

	keys := make([]field.Value, keysLen)
	for i := 0; i < keysLen; i++ {
		k, n, err := decodeKey(rest, kind)
		if err != nil {
			return InternalNode{}, fmt.Errorf("bptree: internal node key %d: %w", i, err)
		}
		keys[i] = k
		rest = rest[n:]
	}

	childCount := keysLen + 1
	if len(rest) < childCount*8 {
		return InternalNode{}, fmt.Errorf("bptree: truncated internal node children")
	}
	children := make([]uint64, childCount)
	for i := 0; i < childCount; i++ {
		children[i] = binary.LittleEndian.Uint64(rest[i*8:])
	}

	return InternalNode{PageID: id, KeyKind: kind, Keys: keys, Children: children}, nil
}

// EncodeLeaf renders n as a full, zero-padded page.
func EncodeLeaf(n Leaf) ([]byte, error) {
	if len(n.Pointers) != len(n.Keys) {
		return nil, fmt.Errorf("bptree: leaf has %d keys but %d pointers", len(n.Keys), len(n.Pointers))
	}
	if len(n.Keys) > 255 {
		return nil, fmt.Errorf("bptree: leaf has %d keys, exceeds max 255", len(n.Keys))
	}
	body := make([]byte, 0, prefixSize+2+len(n.Keys)*16+8)
	body = appendPrefix(body, n.PageID, TagLeaf)
	body = append(body, byte(n.KeyKind), byte(len(n.Keys)))
	for _, k := range n.Keys {
		kb, err := encodeKey(k)
		if err != nil {
			return nil, err
		}
		body = append(body, kb...)
	}
	for _, p := range n.Pointers {
		body = binary.LittleEndian.AppendUint64(body, p)
	}
	body = binary.LittleEndian.AppendUint64(body, n.NextLeafID)
	return padToPage(body)
}

// DecodeLeaf parses a full page into a Leaf.
func DecodeLeaf(buf []byte) (Leaf, error) {
	id, tag, rest, err := splitPrefix(buf)
	if err != nil {
		return Leaf{}, err
	}
	if tag != TagLeaf {
		return Leaf{}, fmt.Errorf("bptree: expected leaf tag 0x%02x, found 0x%02x", TagLeaf, tag)
	}
	if len(rest) < 2 {
		return Leaf{}, fmt.Errorf("bptree: truncated leaf header")
	}
	kind, err := field.ParseKind(rest[0])
	if err != nil {
		return Leaf{}, fmt.Errorf("bptree: leaf: %w", err)
	}
	keysLen := int(rest[1])
	rest = rest[2:]

	keys := make([]field.Value, keysLen)
	for i := 0; i < keysLen; i++ {
		k, n, err := decodeKey(rest, kind)
		if err != nil {
			return Leaf{}, fmt.Errorf("bptree: leaf key %d: %w", i, err)
		}
		keys[i] = k
		rest = rest[n:]
	}

	if len(rest) < keysLen*8+8 {
		return Leaf{}, fmt.Errorf("bptree: truncated leaf pointers")
	}
	pointers := make([]uint64, keysLen)
	for i := 0; i < keysLen; i++ {
		pointers[i] = binary.LittleEndian.Uint64(rest[i*8:])
	}
	rest = rest[keysLen*8:]
	nextLeaf := binary.LittleEndian.Uint64(rest)

	return Leaf{PageID: id, KeyKind: kind, Keys: keys, Pointers: pointers, NextLeafID: nextLeaf}, nil
}

func appendPrefix(buf []byte, id uint64, tag uint8) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, id)
	buf = append(buf, tag)
	return buf
}

func splitPrefix(buf []byte) (id uint64, tag uint8, rest []byte, err error) {
	if len(buf) < prefixSize {
		return 0, 0, nil, fmt.Errorf("bptree: page shorter than prefix (%d bytes)", len(buf))
	}
	id = binary.LittleEndian.Uint64(buf[:8])
	tag = buf[8]
	return id, tag, buf[prefixSize:], nil
}

// PeekTag reads just the tag byte of a full page, for dispatch without a
// full decode.
func PeekTag(buf []byte) (uint8, error) {
	if len(buf) < prefixSize {
		return 0, fmt.Errorf("bptree: page shorter than prefix (%d bytes)", len(buf))
	}
	return buf[8], nil
}
