package bptree

import (
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
)

// Cursor walks records in ascending key order via the leaf chain. It is
// single-pass and not restartable: once Next reports no more rows, a
// fresh Cursor must be obtained to scan again.
type Cursor struct {
	t        *Tree
	leaf     Leaf
	idx      int
	started  bool
	finished bool
}

// NewCursor positions a Cursor at the first leaf in ascending key order.
func NewCursor(t *Tree) (*Cursor, error) {
	leaf, err := t.FirstLeaf()
	if err != nil {
		return nil, fmt.Errorf("bptree: new cursor: %w", err)
	}
	return &Cursor{t: t, leaf: leaf}, nil
}

// Next advances the cursor and reports whether a row is available. Call
// Key/RecordPageID only after Next returns true.
func (c *Cursor) Next() (bool, error) {
	if c.finished {
		return false, nil
	}
	if c.started {
		c.idx++
	}
	c.started = true

	for c.idx >= len(c.leaf.Keys) {
		if c.leaf.NextLeafID == 0 {
			c.finished = true
			return false, nil
		}
		next, err := c.t.readLeaf(c.leaf.NextLeafID)
		if err != nil {
			return false, fmt.Errorf("bptree: cursor: %w", err)
		}
		c.leaf = next
		c.idx = 0
	}
	return true, nil
}

// Key returns the key at the cursor's current position.
func (c *Cursor) Key() field.Value { return c.leaf.Keys[c.idx] }

// RecordPageID returns the record page id at the cursor's current
// position.
func (c *Cursor) RecordPageID() uint64 { return c.leaf.Pointers[c.idx] }
