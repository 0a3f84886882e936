// Package header encodes and decodes the header page (page 0): element
// count, key kind, primary key name, root page id, and tree order.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/pager"
)

// Header is the decoded form of page 0.
type Header struct {
	ElementCount    uint64
	KeyKind         field.Kind
	KeySize         uint8 // String max length, or 8 for UInt64
	PrimaryKeyName  string
	RootPageID      uint64
	Order           uint8
}

// ErrCorrupt is returned when the header page fails to decode into a
// consistent Header (wrong page length, unknown key kind, primary key
// name overrunning the page).
var ErrCorrupt = fmt.Errorf("header: corrupt header page")

const (
	offElementCount   = 0
	offKeyKind        = 8
	offKeySize        = 9
	offPrimaryKeyLen  = 10
	offPrimaryKeyName = 11
)

// Encode renders h as an exact PageSize-byte, zero-padded page.
func Encode(h Header) ([]byte, error) {
	if len(h.PrimaryKeyName) > field.MaxNameLen {
		return nil, fmt.Errorf("header: primary key name of %d bytes exceeds max %d", len(h.PrimaryKeyName), field.MaxNameLen)
	}
	buf := make([]byte, pager.PageSize)
	binary.LittleEndian.PutUint64(buf[offElementCount:], h.ElementCount)
	buf[offKeyKind] = byte(h.KeyKind)
	buf[offKeySize] = h.KeySize
	buf[offPrimaryKeyLen] = byte(len(h.PrimaryKeyName))
	n := copy(buf[offPrimaryKeyName:], h.PrimaryKeyName)
	off := offPrimaryKeyName + n
	binary.LittleEndian.PutUint64(buf[off:], h.RootPageID)
	off += 8
	buf[off] = h.Order
	return buf, nil
}

// Decode parses a PageSize-byte page into a Header.
func Decode(buf []byte) (Header, error) {
	if len(buf) != pager.PageSize {
		return Header{}, fmt.Errorf("header: %w: expected %d bytes, found %d", ErrCorrupt, pager.PageSize, len(buf))
	}
	kind, err := field.ParseKind(buf[offKeyKind])
	if err != nil {
		return Header{}, fmt.Errorf("header: %w: %v", ErrCorrupt, err)
	}
	nameLen := int(buf[offPrimaryKeyLen])
	if offPrimaryKeyName+nameLen+8+1 > pager.PageSize {
		return Header{}, fmt.Errorf("header: %w: primary key length %d overruns page", ErrCorrupt, nameLen)
	}
	name := string(buf[offPrimaryKeyName : offPrimaryKeyName+nameLen])
	off := offPrimaryKeyName + nameLen
	root := binary.LittleEndian.Uint64(buf[off:])
	off += 8
	order := buf[off]

	return Header{
		ElementCount:   binary.LittleEndian.Uint64(buf[offElementCount:]),
		KeyKind:        kind,
		KeySize:        buf[offKeySize],
		PrimaryKeyName: name,
		RootPageID:     root,
		Order:          order,
	}, nil
}
