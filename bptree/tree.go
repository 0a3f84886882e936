package bptree

import (
	"fmt"
	"sort"

	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/header"
	"github.com/jonasvbiegel/bgldb/pager"
)

// Tree is the B+ tree algorithm layered on a Pager and a Header. The
// header's RootPageID and ElementCount are the only tree state kept
// outside of pages themselves; every mutation re-encodes and re-writes
// the header page before returning, per the header-keeper contract.
type Tree struct {
	p   *pager.Pager
	hdr header.Header
}

// Open wraps an existing pager and header as a Tree.
func Open(p *pager.Pager, hdr header.Header) *Tree {
	return &Tree{p: p, hdr: hdr}
}

// Header returns the tree's current header snapshot.
func (t *Tree) Header() header.Header { return t.hdr }

func (t *Tree) maxKeys() int { return int(t.hdr.Order) - 1 }

func (t *Tree) minKeys() int {
	// ceil((order-1)/2)
	n := t.maxKeys()
	return (n + 1) / 2
}

func (t *Tree) saveHeader() error {
	buf, err := header.Encode(t.hdr)
	if err != nil {
		return fmt.Errorf("bptree: encode header: %w", err)
	}
	if err := t.p.WriteHeader(buf); err != nil {
		return fmt.Errorf("bptree: write header: %w", err)
	}
	return nil
}

// readNode loads the page at id and returns either an InternalNode or a
// Leaf depending on its tag.
func (t *Tree) readNode(id uint64) (internal *InternalNode, leaf *Leaf, err error) {
	pg, err := t.p.ReadPage(id)
	if err != nil {
		return nil, nil, fmt.Errorf("bptree: read node %d: %w", id, err)
	}
	tag, err := PeekTag(pg.Data[:])
	if err != nil {
		return nil, nil, err
	}
	switch tag {
	case TagInternal:
		n, err := DecodeInternal(pg.Data[:])
		if err != nil {
			return nil, nil, fmt.Errorf("bptree: decode internal node %d: %w", id, err)
		}
		return &n, nil, nil
	case TagLeaf:
		n, err := DecodeLeaf(pg.Data[:])
		if err != nil {
			return nil, nil, fmt.Errorf("bptree: decode leaf %d: %w", id, err)
		}
		return nil, &n, nil
	default:
		return nil, nil, fmt.Errorf("bptree: node %d: %w: unexpected tag 0x%02x", id, ErrInvariantViolated, tag)
	}
}

func (t *Tree) readLeaf(id uint64) (Leaf, error) {
	internal, leaf, err := t.readNode(id)
	if err != nil {
		return Leaf{}, err
	}
	if internal != nil {
		return Leaf{}, fmt.Errorf("bptree: node %d: %w: expected leaf, found internal", id, ErrInvariantViolated)
	}
	return *leaf, nil
}

func (t *Tree) readInternal(id uint64) (InternalNode, error) {
	internal, leaf, err := t.readNode(id)
	if err != nil {
		return InternalNode{}, err
	}
	if leaf != nil {
		return InternalNode{}, fmt.Errorf("bptree: node %d: %w: expected internal, found leaf", id, ErrInvariantViolated)
	}
	return *internal, nil
}

func (t *Tree) writeLeaf(l Leaf) error {
	buf, err := EncodeLeaf(l)
	if err != nil {
		return fmt.Errorf("bptree: encode leaf %d: %w", l.PageID, err)
	}
	if err := t.p.WritePage(l.PageID, buf); err != nil {
		return fmt.Errorf("bptree: write leaf %d: %w", l.PageID, err)
	}
	return nil
}

func (t *Tree) writeInternal(n InternalNode) error {
	buf, err := EncodeInternal(n)
	if err != nil {
		return fmt.Errorf("bptree: encode internal node %d: %w", n.PageID, err)
	}
	if err := t.p.WritePage(n.PageID, buf); err != nil {
		return fmt.Errorf("bptree: write internal node %d: %w", n.PageID, err)
	}
	return nil
}

// childFor returns the child subtree that would contain key: the
// smallest index i with Keys[i] > key, or the last child if none.
func childFor(n InternalNode, key field.Value) uint64 {
	idx := sort.Search(len(n.Keys), func(i int) bool {
		return field.Compare(n.Keys[i], key) > 0
	})
	return n.Children[idx]
}

// descendToLeaf walks from the root to the leaf that would contain key,
// returning the path of internal node ids visited (root first) and the
// leaf itself.
func (t *Tree) descendToLeaf(key field.Value) (path []uint64, leaf Leaf, err error) {
	id := t.hdr.RootPageID
	for {
		internal, lf, err := t.readNode(id)
		if err != nil {
			return nil, Leaf{}, err
		}
		if lf != nil {
			return path, *lf, nil
		}
		path = append(path, id)
		id = childFor(*internal, key)
	}
}

// Search descends to the leaf for key and reports the record page id, if
// the key is present.
func (t *Tree) Search(key field.Value) (recordPageID uint64, found bool, err error) {
	_, leaf, err := t.descendToLeaf(key)
	if err != nil {
		return 0, false, err
	}
	idx, ok := findKey(leaf.Keys, key)
	if !ok {
		return 0, false, nil
	}
	return leaf.Pointers[idx], true, nil
}

// findKey binary-searches sorted keys for key, returning its index and
// whether it was found.
func findKey(keys []field.Value, key field.Value) (int, bool) {
	idx := sort.Search(len(keys), func(i int) bool {
		return field.Compare(keys[i], key) >= 0
	})
	if idx < len(keys) && field.Compare(keys[idx], key) == 0 {
		return idx, true
	}
	return idx, false
}

// Depth returns the number of levels from the root to a leaf (a root
// that is itself a leaf has depth 1), by descending leftmost children.
func (t *Tree) Depth() (int, error) {
	id := t.hdr.RootPageID
	depth := 0
	for {
		internal, leaf, err := t.readNode(id)
		if err != nil {
			return 0, err
		}
		depth++
		if leaf != nil {
			return depth, nil
		}
		id = internal.Children[0]
	}
}

// FirstLeaf descends the leftmost children to the first leaf in ascending
// key order.
func (t *Tree) FirstLeaf() (Leaf, error) {
	id := t.hdr.RootPageID
	for {
		internal, leaf, err := t.readNode(id)
		if err != nil {
			return Leaf{}, err
		}
		if leaf != nil {
			return *leaf, nil
		}
		id = internal.Children[0]
	}
}

func insertValue(s []field.Value, i int, v field.Value) []field.Value {
	s = append(s, field.Value{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertUint64(s []uint64, i int, v uint64) []uint64 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeValue(s []field.Value, i int) []field.Value {
	return append(s[:i], s[i+1:]...)
}

func removeUint64(s []uint64, i int) []uint64 {
	return append(s[:i], s[i+1:]...)
}

// Insert links recordPageID into the tree under key, splitting leaves
// and internal nodes along the path as needed, and updates ElementCount
// and RootPageID in the header. The caller is responsible for having
// already written the record itself (child pages before parent, per the
// ordering rule in the design notes).
func (t *Tree) Insert(key field.Value, recordPageID uint64) error {
	path, leaf, err := t.descendToLeaf(key)
	if err != nil {
		return err
	}
	idx, found := findKey(leaf.Keys, key)
	if found {
		return &DuplicateKeyError{Key: key}
	}
	leaf.Keys = insertValue(leaf.Keys, idx, key)
	leaf.Pointers = insertUint64(leaf.Pointers, idx, recordPageID)

	if len(leaf.Keys) <= t.maxKeys() {
		if err := t.writeLeaf(leaf); err != nil {
			return err
		}
	} else {
		newLeaf, sepKey, err := t.splitLeaf(&leaf)
		if err != nil {
			return err
		}
		if err := t.writeLeaf(leaf); err != nil {
			return err
		}
		if err := t.writeLeaf(newLeaf); err != nil {
			return err
		}
		if err := t.propagateSplit(path, sepKey, leaf.PageID, newLeaf.PageID); err != nil {
			return err
		}
	}

	t.hdr.ElementCount++
	return t.saveHeader()
}

// splitLeaf splits an overflowing leaf in place: leaf keeps the lower
// ceil(k/2) keys, a fresh sibling gets the upper floor(k/2) keys. The
// sibling's first key is promoted to the parent BY COPY — leaves hold
// the only authoritative reference to it.
func (t *Tree) splitLeaf(leaf *Leaf) (Leaf, field.Value, error) {
	k := len(leaf.Keys)
	mid := (k + 1) / 2

	newID, err := t.p.Allocate()
	if err != nil {
		return Leaf{}, field.Value{}, fmt.Errorf("bptree: allocate sibling leaf: %w", err)
	}

	newLeaf := Leaf{
		PageID:     newID,
		KeyKind:    leaf.KeyKind,
		Keys:       append([]field.Value(nil), leaf.Keys[mid:]...),
		Pointers:   append([]uint64(nil), leaf.Pointers[mid:]...),
		NextLeafID: leaf.NextLeafID,
	}
	leaf.Keys = leaf.Keys[:mid]
	leaf.Pointers = leaf.Pointers[:mid]
	leaf.NextLeafID = newID

	return newLeaf, newLeaf.Keys[0], nil
}

// splitInternal splits an overflowing internal node in place: node keeps
// the lower half of keys/children, a fresh sibling gets the upper half.
// The median key is promoted to the parent BY REMOVE — it does not stay
// in either child, per the classic B+ separator rule.
func (t *Tree) splitInternal(node *InternalNode) (InternalNode, field.Value, error) {
	k := len(node.Keys)
	mid := k / 2
	median := node.Keys[mid]

	newID, err := t.p.Allocate()
	if err != nil {
		return InternalNode{}, field.Value{}, fmt.Errorf("bptree: allocate sibling internal node: %w", err)
	}

	newNode := InternalNode{
		PageID:   newID,
		KeyKind:  node.KeyKind,
		Keys:     append([]field.Value(nil), node.Keys[mid+1:]...),
		Children: append([]uint64(nil), node.Children[mid+1:]...),
	}
	node.Keys = node.Keys[:mid]
	node.Children = node.Children[:mid+1]

	return newNode, median, nil
}

// propagateSplit inserts the separator sepKey (routing to rightID) into
// the last node on path, splitting further up as needed. An empty path
// means the split reached the root, so a brand-new internal root is
// created above leftID and rightID.
func (t *Tree) propagateSplit(path []uint64, sepKey field.Value, leftID, rightID uint64) error {
	if len(path) == 0 {
		return t.createNewRoot(sepKey, leftID, rightID)
	}

	parentID := path[len(path)-1]
	parent, err := t.readInternal(parentID)
	if err != nil {
		return err
	}

	idx := sort.Search(len(parent.Keys), func(i int) bool {
		return field.Compare(parent.Keys[i], sepKey) > 0
	})
	parent.Keys = insertValue(parent.Keys, idx, sepKey)
	parent.Children = insertUint64(parent.Children, idx+1, rightID)

	if len(parent.Keys) <= t.maxKeys() {
		return t.writeInternal(parent)
	}

	newNode, median, err := t.splitInternal(&parent)
	if err != nil {
		return err
	}
	if err := t.writeInternal(parent); err != nil {
		return err
	}
	if err := t.writeInternal(newNode); err != nil {
		return err
	}
	return t.propagateSplit(path[:len(path)-1], median, parent.PageID, newNode.PageID)
}

func (t *Tree) createNewRoot(sepKey field.Value, leftID, rightID uint64) error {
	newRootID, err := t.p.Allocate()
	if err != nil {
		return fmt.Errorf("bptree: allocate new root: %w", err)
	}
	newRoot := InternalNode{
		PageID:   newRootID,
		KeyKind:  t.hdr.KeyKind,
		Keys:     []field.Value{sepKey},
		Children: []uint64{leftID, rightID},
	}
	if err := t.writeInternal(newRoot); err != nil {
		return err
	}
	t.hdr.RootPageID = newRootID
	return nil
}
