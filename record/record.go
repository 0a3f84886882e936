// Package record encodes and decodes the Record page body: an ordered
// list of named, typed fields. It is a pure, stateless codec — it knows
// nothing about pages, page ids, or overflow chaining; that lives in the
// bptree package, which owns the pager.
package record

import (
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
)

// Field is one named value inside a Record.
type Field struct {
	Name  string
	Value field.Value
}

// Record is an ordered sequence of fields.
type Record []Field

// Get returns the value of the field named name, if present.
func (r Record) Get(name string) (field.Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return field.Value{}, false
}

// Validate checks every field against the rules original_source's
// Data::is_valid enforces: UInt64 fields must be exactly 8 bytes, String
// fields must be within the shared length ceiling.
func (r Record) Validate() error {
	for _, f := range r {
		if len(f.Name) > field.MaxNameLen {
			return fmt.Errorf("record: field name %q of %d bytes exceeds max %d", f.Name, len(f.Name), field.MaxNameLen)
		}
		switch f.Value.Kind {
		case field.KindUInt64:
			if len(f.Value.Raw) != 8 {
				return fmt.Errorf("record: field %q: %w", f.Name, fmt.Errorf("UInt64 value must be 8 bytes, got %d", len(f.Value.Raw)))
			}
		case field.KindString:
			if len(f.Value.Raw) > field.MaxStringLen {
				return fmt.Errorf("record: field %q: value of %d bytes exceeds max %d", f.Name, len(f.Value.Raw), field.MaxStringLen)
			}
		default:
			return fmt.Errorf("record: field %q has unknown kind %s", f.Name, f.Value.Kind)
		}
	}
	return nil
}

// encodeField renders one field as [total_len:u8][name_len:u8][name][type:u8][value].
func encodeField(f Field) ([]byte, error) {
	if len(f.Name) > field.MaxNameLen {
		return nil, fmt.Errorf("record: field name %q of %d bytes exceeds max %d", f.Name, len(f.Name), field.MaxNameLen)
	}
	body := make([]byte, 0, 2+len(f.Name)+1+len(f.Value.Raw)+1)
	body = append(body, byte(len(f.Name)))
	body = append(body, f.Name...)
	body = append(body, byte(f.Value.Kind))
	switch f.Value.Kind {
	case field.KindString:
		if len(f.Value.Raw) > field.MaxStringLen {
			return nil, fmt.Errorf("record: field %q value of %d bytes exceeds max %d", f.Name, len(f.Value.Raw), field.MaxStringLen)
		}
		body = append(body, byte(len(f.Value.Raw)))
		body = append(body, f.Value.Raw...)
	case field.KindUInt64:
		if len(f.Value.Raw) != 8 {
			return nil, fmt.Errorf("record: field %q UInt64 value must be 8 bytes, got %d", f.Name, len(f.Value.Raw))
		}
		body = append(body, f.Value.Raw...)
	default:
		return nil, fmt.Errorf("record: field %q has unknown kind %s", f.Name, f.Value.Kind)
	}
	if len(body) > 255 {
		return nil, fmt.Errorf("record: field %q encodes to %d bytes, exceeds max 255", f.Name, len(body))
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(len(body)))
	out = append(out, body...)
	return out, nil
}

// decodeField reads one field starting at buf[0], returning it plus the
// number of bytes consumed.
func decodeField(buf []byte) (Field, int, error) {
	if len(buf) < 1 {
		return Field{}, 0, fmt.Errorf("record: truncated field (no total_len byte)")
	}
	total := int(buf[0])
	if len(buf) < 1+total {
		return Field{}, 0, fmt.Errorf("record: truncated field (need %d body bytes, have %d)", total, len(buf)-1)
	}
	entry := buf[1 : 1+total]
	if len(entry) < 1 {
		return Field{}, 0, fmt.Errorf("record: truncated field name length")
	}
	nameLen := int(entry[0])
	if len(entry) < 1+nameLen+1 {
		return Field{}, 0, fmt.Errorf("record: truncated field name or type")
	}
	name := string(entry[1 : 1+nameLen])
	kindByte := entry[1+nameLen]
	kind, err := field.ParseKind(kindByte)
	if err != nil {
		return Field{}, 0, fmt.Errorf("record: field %q: %w", name, err)
	}
	rest := entry[1+nameLen+1:]
	var val []byte
	switch kind {
	case field.KindString:
		if len(rest) < 1 {
			return Field{}, 0, fmt.Errorf("record: field %q: truncated string length", name)
		}
		valLen := int(rest[0])
		if len(rest) < 1+valLen {
			return Field{}, 0, fmt.Errorf("record: field %q: truncated string value", name)
		}
		val = append([]byte(nil), rest[1:1+valLen]...)
	case field.KindUInt64:
		if len(rest) < 8 {
			return Field{}, 0, fmt.Errorf("record: field %q: truncated uint64 value", name)
		}
		val = append([]byte(nil), rest[:8]...)
	}
	return Field{Name: name, Value: field.Value{Kind: kind, Raw: val}}, 1 + total, nil
}

// Encode renders the record as [field_count:u8][field]...[field].
func Encode(r Record) ([]byte, error) {
	if len(r) > 255 {
		return nil, fmt.Errorf("record: %d fields exceeds max 255", len(r))
	}
	buf := []byte{byte(len(r))}
	for _, f := range r {
		fb, err := encodeField(f)
		if err != nil {
			return nil, err
		}
		buf = append(buf, fb...)
	}
	return buf, nil
}

// Decode parses a continuous byte stream (already reassembled from any
// overflow chain) into a Record.
func Decode(buf []byte) (Record, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("record: truncated record (no field_count byte)")
	}
	count := int(buf[0])
	off := 1
	rec := make(Record, 0, count)
	for i := 0; i < count; i++ {
		f, n, err := decodeField(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("record: field %d: %w", i, err)
		}
		rec = append(rec, f)
		off += n
	}
	return rec, nil
}
