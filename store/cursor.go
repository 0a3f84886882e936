package store

import (
	"fmt"

	"github.com/jonasvbiegel/bgldb/bptree"
	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/pager"
	"github.com/jonasvbiegel/bgldb/record"
)

// Cursor walks Store records in ascending key order. It is single-pass:
// once Next returns false, obtain a fresh Cursor via Store.Scan to walk
// again.
type Cursor struct {
	p     *pager.Pager
	inner *bptree.Cursor
}

// Next advances the cursor and reports whether a record is available.
func (c *Cursor) Next() (bool, error) {
	ok, err := c.inner.Next()
	if err != nil {
		return false, fmt.Errorf("store: cursor: %w", err)
	}
	return ok, nil
}

// Key returns the key at the cursor's current position.
func (c *Cursor) Key() field.Value { return c.inner.Key() }

// Record reads and decodes the record at the cursor's current position.
func (c *Cursor) Record() (record.Record, error) {
	rec, err := bptree.ReadRecord(c.p, c.inner.RecordPageID())
	if err != nil {
		return nil, fmt.Errorf("store: cursor: %w", err)
	}
	return rec, nil
}
