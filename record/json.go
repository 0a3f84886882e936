package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
)

// MarshalJSON renders the record as a JSON object of field name to value,
// mirroring the original draft's Data::json() rendering. This is a
// read-only convenience for demo shells and tests; it is never the wire
// format — Encode/Decode in record.go are.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		switch f.Value.Kind {
		case field.KindString:
			v, err := json.Marshal(f.Value.AsString())
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		case field.KindUInt64:
			n, err := f.Value.AsUInt64()
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, "%d", n)
		default:
			return nil, fmt.Errorf("record: field %q has unknown kind %s", f.Name, f.Value.Kind)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
