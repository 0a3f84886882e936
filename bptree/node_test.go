package bptree

import (
	"testing"

	"github.com/jonasvbiegel/bgldb/field"
)

func TestEncodeDecodeInternalNode(t *testing.T) {
	n := InternalNode{
		PageID:   5,
		KeyKind:  field.KindUInt64,
		Keys:     []field.Value{field.UInt64(10), field.UInt64(20)},
		Children: []uint64{1, 2, 3},
	}
	buf, err := EncodeInternal(n)
	if err != nil {
		t.Fatalf("EncodeInternal: %v", err)
	}
	got, err := DecodeInternal(buf)
	if err != nil {
		t.Fatalf("DecodeInternal: %v", err)
	}
	if got.PageID != n.PageID || len(got.Keys) != 2 || len(got.Children) != 3 {
		t.Fatalf("expected %+v, got %+v", n, got)
	}
	for i := range n.Children {
		if got.Children[i] != n.Children[i] {
			t.Fatalf("child %d: expected %d, got %d", i, n.Children[i], got.Children[i])
		}
	}
}

func TestEncodeInternalRejectsChildCountMismatch(t *testing.T) {
	n := InternalNode{Keys: []field.Value{field.UInt64(1)}, Children: []uint64{1}}
	if _, err := EncodeInternal(n); err == nil {
		t.Fatal("expected error for children.len() != keys.len()+1")
	}
}

func TestEncodeDecodeLeaf(t *testing.T) {
	l := Leaf{
		PageID:     9,
		KeyKind:    field.KindString,
		Keys:       []field.Value{mustField(t, "bar"), mustField(t, "foo")},
		Pointers:   []uint64{100, 200},
		NextLeafID: 42,
	}
	buf, err := EncodeLeaf(l)
	if err != nil {
		t.Fatalf("EncodeLeaf: %v", err)
	}
	got, err := DecodeLeaf(buf)
	if err != nil {
		t.Fatalf("DecodeLeaf: %v", err)
	}
	if got.PageID != l.PageID || got.NextLeafID != l.NextLeafID || len(got.Keys) != 2 {
		t.Fatalf("expected %+v, got %+v", l, got)
	}
	if got.Keys[0].AsString() != "bar" || got.Keys[1].AsString() != "foo" {
		t.Fatalf("unexpected keys: %v", got.Keys)
	}
}

func TestPeekTagDistinguishesNodeTypes(t *testing.T) {
	l := Leaf{PageID: 1, KeyKind: field.KindUInt64}
	buf, err := EncodeLeaf(l)
	if err != nil {
		t.Fatalf("EncodeLeaf: %v", err)
	}
	tag, err := PeekTag(buf)
	if err != nil {
		t.Fatalf("PeekTag: %v", err)
	}
	if tag != TagLeaf {
		t.Fatalf("expected TagLeaf, got 0x%02x", tag)
	}
}

func mustField(t *testing.T, s string) field.Value {
	t.Helper()
	v, err := field.String(s)
	if err != nil {
		t.Fatalf("field.String(%q): %v", s, err)
	}
	return v
}
