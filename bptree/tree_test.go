package bptree

import (
	"errors"
	"testing"

	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/header"
	"github.com/jonasvbiegel/bgldb/pager"
)

func newTestTree(t *testing.T, order uint8, kind field.Kind) *Tree {
	t.Helper()
	p, err := pager.Open(pager.NewMemSource())
	if err != nil {
		t.Fatalf("pager.Open: %v", err)
	}
	if _, err := p.Allocate(); err != nil { // page 0: header, unused by Tree directly
		t.Fatalf("allocate header: %v", err)
	}
	rootID, err := p.Allocate()
	if err != nil {
		t.Fatalf("allocate root: %v", err)
	}
	root := Leaf{PageID: rootID, KeyKind: kind}
	buf, err := EncodeLeaf(root)
	if err != nil {
		t.Fatalf("EncodeLeaf: %v", err)
	}
	if err := p.WritePage(rootID, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	hdr := header.Header{KeyKind: kind, RootPageID: rootID, Order: order}
	return Open(p, hdr)
}

func uintKey(v uint64) field.Value { return field.UInt64(v) }

func TestSequentialInsertsForceLeafSplit(t *testing.T) {
	tr := newTestTree(t, 4, field.KindUInt64)

	for _, k := range []uint64{1, 2, 3} {
		if err := tr.Insert(uintKey(k), 100+k); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	oldRootID := tr.hdr.RootPageID
	leaf, err := tr.readLeaf(oldRootID)
	if err != nil {
		t.Fatalf("readLeaf: %v", err)
	}
	if len(leaf.Keys) != 3 {
		t.Fatalf("after 3 inserts: expected 3 keys, got %d", len(leaf.Keys))
	}

	if err := tr.Insert(uintKey(4), 104); err != nil {
		t.Fatalf("insert 4: %v", err)
	}

	root, err := tr.readInternal(tr.hdr.RootPageID)
	if err != nil {
		t.Fatalf("expected new internal root: %v", err)
	}
	rootKey, err := root.Keys[0].AsUInt64()
	if err != nil {
		t.Fatalf("AsUInt64: %v", err)
	}
	if len(root.Keys) != 1 || rootKey != 3 {
		t.Fatalf("expected root keys [3], got %v", root.Keys)
	}

	left, err := tr.readLeaf(root.Children[0])
	if err != nil {
		t.Fatalf("readLeaf left: %v", err)
	}
	right, err := tr.readLeaf(root.Children[1])
	if err != nil {
		t.Fatalf("readLeaf right: %v", err)
	}
	assertKeys(t, left.Keys, 1, 2)
	assertKeys(t, right.Keys, 3, 4)
	if left.NextLeafID != right.PageID {
		t.Errorf("expected left.NextLeafID == right.PageID")
	}
	if right.NextLeafID != 0 {
		t.Errorf("expected right.NextLeafID == 0, got %d", right.NextLeafID)
	}
}

// TestTenSequentialInsertsDepthThreeOrderedScan inserts 1..10 in order at
// order=4. The root overflows twice: once at the 4th insert (leaf split)
// and again at the 10th, when the root itself accumulates a 4th
// separator key and must split, promoting a new root above it. That
// makes the root-splits-twice case unavoidable for a sequential run of
// this length under the mandated ceil/floor split rule (see
// splitLeaf/splitInternal), so the tree ends up 3 levels deep, not 2.
func TestTenSequentialInsertsDepthThreeOrderedScan(t *testing.T) {
	tr := newTestTree(t, 4, field.KindUInt64)
	for k := uint64(1); k <= 10; k++ {
		if err := tr.Insert(uintKey(k), 100+k); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	depth, err := tr.Depth()
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if depth != 3 {
		t.Fatalf("expected depth 3, got %d", depth)
	}

	cur, err := NewCursor(tr)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	var got []uint64
	for {
		ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		v, err := cur.Key().AsUInt64()
		if err != nil {
			t.Fatalf("AsUInt64: %v", err)
		}
		got = append(got, v)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 keys from scan, got %d: %v", len(got), got)
	}
	for i, v := range got {
		if v != uint64(i+1) {
			t.Fatalf("scan order mismatch at %d: got %d, want %d", i, v, i+1)
		}
	}
}

func TestDuplicateKeyAfterTenInserts(t *testing.T) {
	tr := newTestTree(t, 4, field.KindUInt64)
	for k := uint64(1); k <= 10; k++ {
		if err := tr.Insert(uintKey(k), 100+k); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	before := tr.hdr.ElementCount

	err := tr.Insert(uintKey(5), 999)
	if err == nil {
		t.Fatal("expected DuplicateKey error inserting 5 again")
	}
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if tr.hdr.ElementCount != before {
		t.Errorf("expected ElementCount unchanged at %d, got %d", before, tr.hdr.ElementCount)
	}
}

func TestStringKeysLexicographicScan(t *testing.T) {
	tr := newTestTree(t, 4, field.KindString)
	for i, s := range []string{"foo", "bar", "baz"} {
		v, err := field.String(s)
		if err != nil {
			t.Fatalf("field.String(%q): %v", s, err)
		}
		if err := tr.Insert(v, uint64(200+i)); err != nil {
			t.Fatalf("insert %q: %v", s, err)
		}
	}

	bazVal, _ := field.String("baz")
	pageID, found, err := tr.Search(bazVal)
	if err != nil || !found {
		t.Fatalf("Search(baz): found=%v err=%v", found, err)
	}
	if pageID != 202 {
		t.Errorf("expected baz -> page 202, got %d", pageID)
	}

	cur, err := NewCursor(tr)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	var order []string
	for {
		ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		order = append(order, cur.Key().AsString())
	}
	want := []string{"bar", "baz", "foo"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestDeleteRebalancesAndRemovesKey(t *testing.T) {
	tr := newTestTree(t, 4, field.KindUInt64)
	for k := uint64(1); k <= 10; k++ {
		if err := tr.Insert(uintKey(k), 100+k); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}

	if err := tr.Delete(uintKey(5)); err != nil {
		t.Fatalf("delete 5: %v", err)
	}
	if _, found, err := tr.Search(uintKey(5)); err != nil || found {
		t.Fatalf("expected 5 gone, found=%v err=%v", found, err)
	}

	cur, err := NewCursor(tr)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	var got []uint64
	for {
		ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		v, _ := cur.Key().AsUInt64()
		got = append(got, v)
	}
	want := []uint64{1, 2, 3, 4, 6, 7, 8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if err := tr.Delete(uintKey(5)); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound deleting 5 twice, got %v", err)
	}
}

func assertKeys(t *testing.T, keys []field.Value, want ...uint64) {
	t.Helper()
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d (%v)", len(want), len(keys), keys)
	}
	for i, w := range want {
		got, err := keys[i].AsUInt64()
		if err != nil {
			t.Fatalf("AsUInt64: %v", err)
		}
		if got != w {
			t.Fatalf("key %d: expected %d, got %d", i, w, got)
		}
	}
}
