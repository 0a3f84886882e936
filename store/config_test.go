package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonasvbiegel/bgldb/field"
)

func TestOpenConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	writeFile(t, path, "primary_key: id\nkey_kind: uint64\norder: 8\n")

	cfg, err := OpenConfigFile(path)
	if err != nil {
		t.Fatalf("OpenConfigFile: %v", err)
	}
	want := Config{PrimaryKey: "id", KeyKind: field.KindUInt64, Order: 8}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
}

func TestOpenConfigFileRejectsUnknownKeyKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	writeFile(t, path, "primary_key: id\nkey_kind: int32\norder: 8\n")

	if _, err := OpenConfigFile(path); err == nil {
		t.Fatal("expected error for unknown key_kind")
	}
}

func TestOpenConfigFileRejectsInvalidOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	writeFile(t, path, "primary_key: id\nkey_kind: uint64\norder: 2\n")

	if _, err := OpenConfigFile(path); err == nil {
		t.Fatal("expected error for order below 3")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
