// Package field defines the typed value kinds shared by keys and record
// fields: String (length-prefixed, max 255 bytes) and UInt64 (exactly 8
// bytes, little-endian).
package field

import (
	"encoding/binary"
	"fmt"
)

// Kind tags the wire type of a key or a record field's value.
type Kind uint8

const (
	// KindString is a length-prefixed byte string, at most 255 bytes.
	KindString Kind = 0x01
	// KindUInt64 is an 8-byte little-endian unsigned integer.
	KindUInt64 Kind = 0x02
)

// MaxNameLen and MaxStringLen are the shared length ceilings: names (and
// String keys/values) are length-prefixed with a single byte.
const (
	MaxNameLen   = 255
	MaxStringLen = 255
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindUInt64:
		return "UInt64"
	default:
		return fmt.Sprintf("Kind(0x%02x)", uint8(k))
	}
}

// ParseKind maps a wire byte to a Kind, failing with UnknownKeyKind-style
// detail for anything else.
func ParseKind(b byte) (Kind, error) {
	switch Kind(b) {
	case KindString, KindUInt64:
		return Kind(b), nil
	default:
		return 0, fmt.Errorf("field: unknown key kind 0x%02x", b)
	}
}

// FixedSize returns the on-disk size of a value of this kind, or 0 for
// String, whose size is not fixed (callers use len(value) instead).
func (k Kind) FixedSize() int {
	if k == KindUInt64 {
		return 8
	}
	return 0
}

// EncodeUInt64 renders v as the 8-byte little-endian wire form.
func EncodeUInt64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// DecodeUInt64 reads the 8-byte little-endian wire form.
func DecodeUInt64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("field: UInt64 value must be 8 bytes, got %d", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Value is the opaque typed payload carried by a key or a record field:
// the raw bytes plus the kind that says how to interpret them.
type Value struct {
	Kind Kind
	Raw  []byte
}

// String builds a KindString value, failing if it exceeds MaxStringLen.
func String(s string) (Value, error) {
	if len(s) > MaxStringLen {
		return Value{}, fmt.Errorf("field: string value of %d bytes exceeds max %d", len(s), MaxStringLen)
	}
	return Value{Kind: KindString, Raw: []byte(s)}, nil
}

// UInt64 builds a KindUInt64 value.
func UInt64(v uint64) Value {
	return Value{Kind: KindUInt64, Raw: EncodeUInt64(v)}
}

// AsString returns the value as a Go string; the caller must already
// know the value is KindString.
func (v Value) AsString() string { return string(v.Raw) }

// AsUInt64 decodes the value as a uint64; the caller must already know
// the value is KindUInt64.
func (v Value) AsUInt64() (uint64, error) { return DecodeUInt64(v.Raw) }

// Compare orders two values of the same kind. String values compare
// lexicographically by byte; UInt64 values compare numerically. Comparing
// values of different kinds is a programmer error and panics, since the
// B+ tree never mixes key kinds within one store.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		panic(fmt.Sprintf("field: cannot compare %s with %s", a.Kind, b.Kind))
	}
	switch a.Kind {
	case KindUInt64:
		av, _ := a.AsUInt64()
		bv, _ := b.AsUInt64()
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default: // KindString
		as, bs := a.Raw, b.Raw
		n := len(as)
		if len(bs) < n {
			n = len(bs)
		}
		for i := 0; i < n; i++ {
			if as[i] != bs[i] {
				if as[i] < bs[i] {
					return -1
				}
				return 1
			}
		}
		switch {
		case len(as) < len(bs):
			return -1
		case len(as) > len(bs):
			return 1
		default:
			return 0
		}
	}
}
