// Package bptree implements the B+ tree algorithm on top of the pager:
// interior and leaf node encoding, search, insert with split, delete with
// borrow/merge, and ordered scan via the leaf chain.
package bptree

import (
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/pager"
)

// Page tags, shared across all non-header page variants. The tag is the
// first byte after the 8-byte PageId prefix.
const (
	TagInternal uint8 = 0x01
	TagLeaf     uint8 = 0x02
	TagRecord   uint8 = 0x03
	TagOverflow uint8 = 0x04
)

// prefixSize is the shared non-header page prefix: page_id(8) + tag(1).
const prefixSize = 9

func encodeKey(v field.Value) ([]byte, error) {
	switch v.Kind {
	case field.KindString:
		if len(v.Raw) > field.MaxStringLen {
			return nil, fmt.Errorf("bptree: key of %d bytes exceeds max %d", len(v.Raw), field.MaxStringLen)
		}
		out := make([]byte, 0, 1+len(v.Raw))
		out = append(out, byte(len(v.Raw)))
		out = append(out, v.Raw...)
		return out, nil
	case field.KindUInt64:
		if len(v.Raw) != 8 {
			return nil, fmt.Errorf("bptree: UInt64 key must be 8 bytes, got %d", len(v.Raw))
		}
		return append([]byte(nil), v.Raw...), nil
	default:
		return nil, fmt.Errorf("bptree: unknown key kind %s", v.Kind)
	}
}

func decodeKey(buf []byte, kind field.Kind) (field.Value, int, error) {
	switch kind {
	case field.KindString:
		if len(buf) < 1 {
			return field.Value{}, 0, fmt.Errorf("bptree: truncated string key length")
		}
		n := int(buf[0])
		if len(buf) < 1+n {
			return field.Value{}, 0, fmt.Errorf("bptree: truncated string key (need %d, have %d)", n, len(buf)-1)
		}
		return field.Value{Kind: field.KindString, Raw: append([]byte(nil), buf[1:1+n]...)}, 1 + n, nil
	case field.KindUInt64:
		if len(buf) < 8 {
			return field.Value{}, 0, fmt.Errorf("bptree: truncated uint64 key")
		}
		return field.Value{Kind: field.KindUInt64, Raw: append([]byte(nil), buf[:8]...)}, 8, nil
	default:
		return field.Value{}, 0, fmt.Errorf("bptree: unknown key kind %s", kind)
	}
}

// padToPage zero-pads body to exactly pager.PageSize bytes, failing if it
// is already longer than that — per the invariant that shorter encodings
// are zero-padded and longer encodings are rejected.
func padToPage(body []byte) ([]byte, error) {
	if len(body) > pager.PageSize {
		return nil, fmt.Errorf("bptree: encoded page of %d bytes exceeds page size %d", len(body), pager.PageSize)
	}
	out := make([]byte, pager.PageSize)
	copy(out, body)
	return out, nil
}
