package record

import (
	"testing"

	"github.com/jonasvbiegel/bgldb/field"
)

func mustString(t *testing.T, s string) field.Value {
	t.Helper()
	v, err := field.String(s)
	if err != nil {
		t.Fatalf("field.String(%q): %v", s, err)
	}
	return v
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := Record{
		{Name: "id", Value: field.UInt64(1)},
		{Name: "name", Value: mustString(t, "jonas")},
		{Name: "age", Value: field.UInt64(22)},
	}

	buf, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(rec) {
		t.Fatalf("expected %d fields, got %d", len(rec), len(got))
	}
	for i, f := range rec {
		if got[i].Name != f.Name {
			t.Errorf("field %d: expected name %q, got %q", i, f.Name, got[i].Name)
		}
		if got[i].Value.Kind != f.Value.Kind {
			t.Errorf("field %d: expected kind %s, got %s", i, f.Value.Kind, got[i].Value.Kind)
		}
		if string(got[i].Value.Raw) != string(f.Value.Raw) {
			t.Errorf("field %d: expected value %v, got %v", i, f.Value.Raw, got[i].Value.Raw)
		}
	}
}

func TestEncodeEmptyRecord(t *testing.T) {
	buf, err := Encode(Record{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 fields, got %d", len(got))
	}
}

func TestGet(t *testing.T) {
	rec := Record{
		{Name: "id", Value: field.UInt64(7)},
		{Name: "name", Value: mustString(t, "bob")},
	}
	v, ok := rec.Get("name")
	if !ok {
		t.Fatalf("expected to find field %q", "name")
	}
	if v.AsString() != "bob" {
		t.Errorf("expected value %q, got %q", "bob", v.AsString())
	}
	if _, ok := rec.Get("missing"); ok {
		t.Errorf("expected field %q to be absent", "missing")
	}
}

func TestValidateRejectsOversizeString(t *testing.T) {
	big := make([]byte, field.MaxStringLen+1)
	rec := Record{{Name: "blob", Value: field.Value{Kind: field.KindString, Raw: big}}}
	if err := rec.Validate(); err == nil {
		t.Errorf("expected Validate to reject an oversize string field")
	}
}

func TestValidateRejectsWrongUInt64Size(t *testing.T) {
	rec := Record{{Name: "id", Value: field.Value{Kind: field.KindUInt64, Raw: []byte{1, 2, 3}}}}
	if err := rec.Validate(); err == nil {
		t.Errorf("expected Validate to reject a malformed UInt64 field")
	}
}

func TestMarshalJSON(t *testing.T) {
	rec := Record{
		{Name: "id", Value: field.UInt64(1)},
		{Name: "name", Value: mustString(t, "jonas")},
	}
	got, err := rec.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"id":1,"name":"jonas"}`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
