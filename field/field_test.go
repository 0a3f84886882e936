package field

import "testing"

func TestStringRejectsOversize(t *testing.T) {
	if _, err := String(string(make([]byte, MaxStringLen+1))); err == nil {
		t.Fatal("expected error for oversize string")
	}
}

func TestUInt64RoundTrip(t *testing.T) {
	v := UInt64(42)
	got, err := v.AsUInt64()
	if err != nil {
		t.Fatalf("AsUInt64: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestCompareUInt64(t *testing.T) {
	a, b := UInt64(1), UInt64(2)
	if Compare(a, b) >= 0 {
		t.Fatalf("expected 1 < 2")
	}
	if Compare(b, a) <= 0 {
		t.Fatalf("expected 2 > 1")
	}
	if Compare(a, a) != 0 {
		t.Fatalf("expected 1 == 1")
	}
}

func TestCompareStringLexicographic(t *testing.T) {
	bar, _ := String("bar")
	baz, _ := String("baz")
	if Compare(bar, baz) >= 0 {
		t.Fatalf(`expected "bar" < "baz"`)
	}
}

func TestCompareMismatchedKindsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic comparing different kinds")
		}
	}()
	s, _ := String("x")
	Compare(s, UInt64(1))
}

func TestParseKindRejectsUnknown(t *testing.T) {
	if _, err := ParseKind(0xFF); err == nil {
		t.Fatal("expected error for unknown kind byte")
	}
}
