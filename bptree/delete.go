package bptree

import (
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
)

// pathEntry records one internal node visited while descending toward a
// leaf: id is the node's page id, childIdx is which of its children was
// followed. Keeping childIdx (rather than re-deriving it from keys)
// lets delete locate the exact left/right sibling without a parent
// pointer field on the node itself.
type pathEntry struct {
	id       uint64
	childIdx int
}

// descendToLeafWithPath is descendToLeaf plus the child index taken at
// each level, needed to find siblings during delete rebalancing.
func (t *Tree) descendToLeafWithPath(key field.Value) (path []pathEntry, leaf Leaf, err error) {
	id := t.hdr.RootPageID
	for {
		internal, lf, err := t.readNode(id)
		if err != nil {
			return nil, Leaf{}, err
		}
		if lf != nil {
			return path, *lf, nil
		}
		idx := childIndexFor(*internal, key)
		path = append(path, pathEntry{id: id, childIdx: idx})
		id = internal.Children[idx]
	}
}

func childIndexFor(n InternalNode, key field.Value) int {
	for i, k := range n.Keys {
		if field.Compare(k, key) > 0 {
			return i
		}
	}
	return len(n.Keys)
}

// Delete removes key from the tree, rebalancing via borrow-from-sibling
// (left sibling preferred) or merge (left sibling preferred) as needed,
// and collapses the root if a merge leaves it with a single child. It
// does not free or reclaim the record page the leaf pointed to; callers
// that want the record page itself removed handle that separately.
func (t *Tree) Delete(key field.Value) error {
	path, leaf, err := t.descendToLeafWithPath(key)
	if err != nil {
		return err
	}
	idx, found := findKey(leaf.Keys, key)
	if !found {
		return &KeyNotFoundError{Key: key}
	}
	leaf.Keys = removeValue(leaf.Keys, idx)
	leaf.Pointers = removeUint64(leaf.Pointers, idx)

	switch {
	case len(path) == 0:
		// Leaf is also the root: no minimum occupancy applies.
		if err := t.writeLeaf(leaf); err != nil {
			return err
		}
	case len(leaf.Keys) >= t.minKeys():
		if err := t.writeLeaf(leaf); err != nil {
			return err
		}
	default:
		if err := t.rebalanceLeaf(path, leaf); err != nil {
			return err
		}
	}

	if err := t.collapseRootIfNeeded(); err != nil {
		return err
	}

	t.hdr.ElementCount--
	return t.saveHeader()
}

// rebalanceLeaf fixes an underflowing leaf (path is non-empty) by
// borrowing a key from a sibling, or, failing that, merging with a
// sibling and propagating the resulting underflow up through path.
func (t *Tree) rebalanceLeaf(path []pathEntry, leaf Leaf) error {
	parentEntry := path[len(path)-1]
	parent, err := t.readInternal(parentEntry.id)
	if err != nil {
		return err
	}
	idx := parentEntry.childIdx

	if idx > 0 {
		left, err := t.readLeaf(parent.Children[idx-1])
		if err != nil {
			return err
		}
		if len(left.Keys) > t.minKeys() {
			n := len(left.Keys)
			leaf.Keys = insertValue(leaf.Keys, 0, left.Keys[n-1])
			leaf.Pointers = insertUint64(leaf.Pointers, 0, left.Pointers[n-1])
			left.Keys = left.Keys[:n-1]
			left.Pointers = left.Pointers[:n-1]
			parent.Keys[idx-1] = leaf.Keys[0]
			return t.writeAll(left, leaf, parent)
		}
	}
	if idx < len(parent.Children)-1 {
		right, err := t.readLeaf(parent.Children[idx+1])
		if err != nil {
			return err
		}
		if len(right.Keys) > t.minKeys() {
			leaf.Keys = append(leaf.Keys, right.Keys[0])
			leaf.Pointers = append(leaf.Pointers, right.Pointers[0])
			right.Keys = right.Keys[1:]
			right.Pointers = right.Pointers[1:]
			parent.Keys[idx] = right.Keys[0]
			return t.writeAll(right, leaf, parent)
		}
	}

	if idx > 0 {
		left, err := t.readLeaf(parent.Children[idx-1])
		if err != nil {
			return err
		}
		left.Keys = append(left.Keys, leaf.Keys...)
		left.Pointers = append(left.Pointers, leaf.Pointers...)
		left.NextLeafID = leaf.NextLeafID
		parent.Keys = removeValue(parent.Keys, idx-1)
		parent.Children = removeUint64(parent.Children, idx)
		if err := t.writeLeaf(left); err != nil {
			return err
		}
		if err := t.writeInternal(parent); err != nil {
			return err
		}
		return t.fixInternalUnderflow(path[:len(path)-1], parentEntry.id)
	}

	right, err := t.readLeaf(parent.Children[idx+1])
	if err != nil {
		return err
	}
	leaf.Keys = append(leaf.Keys, right.Keys...)
	leaf.Pointers = append(leaf.Pointers, right.Pointers...)
	leaf.NextLeafID = right.NextLeafID
	parent.Keys = removeValue(parent.Keys, idx)
	parent.Children = removeUint64(parent.Children, idx+1)
	if err := t.writeLeaf(leaf); err != nil {
		return err
	}
	if err := t.writeInternal(parent); err != nil {
		return err
	}
	return t.fixInternalUnderflow(path[:len(path)-1], parentEntry.id)
}

func (t *Tree) writeAll(left, leaf Leaf, parent InternalNode) error {
	if err := t.writeLeaf(left); err != nil {
		return err
	}
	if err := t.writeLeaf(leaf); err != nil {
		return err
	}
	return t.writeInternal(parent)
}

// fixInternalUnderflow checks whether the internal node nodeID still
// meets minimum occupancy after a child merge, borrowing from or merging
// with a sibling (found via path, the ancestor chain above nodeID) as
// needed, and recursing upward on a further merge. An empty path means
// nodeID is the root, which has no minimum occupancy of its own; the
// caller collapses it separately if it ends up with a single child.
func (t *Tree) fixInternalUnderflow(path []pathEntry, nodeID uint64) error {
	node, err := t.readInternal(nodeID)
	if err != nil {
		return err
	}
	if len(path) == 0 || len(node.Keys) >= t.minKeys() {
		return nil
	}

	parentEntry := path[len(path)-1]
	parent, err := t.readInternal(parentEntry.id)
	if err != nil {
		return err
	}
	idx := parentEntry.childIdx

	if idx > 0 {
		left, err := t.readInternal(parent.Children[idx-1])
		if err != nil {
			return err
		}
		if len(left.Keys) > t.minKeys() {
			n := len(left.Keys)
			borrowedKey := left.Keys[n-1]
			borrowedChild := left.Children[len(left.Children)-1]
			left.Keys = left.Keys[:n-1]
			left.Children = left.Children[:len(left.Children)-1]
			node.Keys = insertValue(node.Keys, 0, parent.Keys[idx-1])
			node.Children = insertUint64(node.Children, 0, borrowedChild)
			parent.Keys[idx-1] = borrowedKey
			if err := t.writeInternal(left); err != nil {
				return err
			}
			if err := t.writeInternal(node); err != nil {
				return err
			}
			return t.writeInternal(parent)
		}
	}
	if idx < len(parent.Children)-1 {
		right, err := t.readInternal(parent.Children[idx+1])
		if err != nil {
			return err
		}
		if len(right.Keys) > t.minKeys() {
			borrowedKey := right.Keys[0]
			borrowedChild := right.Children[0]
			right.Keys = right.Keys[1:]
			right.Children = right.Children[1:]
			node.Keys = append(node.Keys, parent.Keys[idx])
			node.Children = append(node.Children, borrowedChild)
			parent.Keys[idx] = borrowedKey
			if err := t.writeInternal(right); err != nil {
				return err
			}
			if err := t.writeInternal(node); err != nil {
				return err
			}
			return t.writeInternal(parent)
		}
	}

	if idx > 0 {
		left, err := t.readInternal(parent.Children[idx-1])
		if err != nil {
			return err
		}
		left.Keys = append(left.Keys, parent.Keys[idx-1])
		left.Keys = append(left.Keys, node.Keys...)
		left.Children = append(left.Children, node.Children...)
		parent.Keys = removeValue(parent.Keys, idx-1)
		parent.Children = removeUint64(parent.Children, idx)
		if err := t.writeInternal(left); err != nil {
			return err
		}
		if err := t.writeInternal(parent); err != nil {
			return err
		}
		return t.fixInternalUnderflow(path[:len(path)-1], parentEntry.id)
	}

	right, err := t.readInternal(parent.Children[idx+1])
	if err != nil {
		return err
	}
	node.Keys = append(node.Keys, parent.Keys[idx])
	node.Keys = append(node.Keys, right.Keys...)
	node.Children = append(node.Children, right.Children...)
	parent.Keys = removeValue(parent.Keys, idx)
	parent.Children = removeUint64(parent.Children, idx+1)
	if err := t.writeInternal(node); err != nil {
		return err
	}
	if err := t.writeInternal(parent); err != nil {
		return err
	}
	return t.fixInternalUnderflow(path[:len(path)-1], parentEntry.id)
}

// collapseRootIfNeeded replaces the root with its sole child whenever a
// merge has left it as an internal node with zero keys.
func (t *Tree) collapseRootIfNeeded() error {
	for {
		internal, leaf, err := t.readNode(t.hdr.RootPageID)
		if err != nil {
			return fmt.Errorf("bptree: collapse root: %w", err)
		}
		if leaf != nil || len(internal.Keys) > 0 {
			return nil
		}
		t.hdr.RootPageID = internal.Children[0]
	}
}
