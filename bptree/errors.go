package bptree

import (
	"errors"
	"fmt"

	"github.com/jonasvbiegel/bgldb/field"
)

// Sentinel errors callers can compare against with errors.Is. The key
// errors are carried by DuplicateKeyError and KeyNotFoundError, which
// name the offending key and unwrap to their sentinel; the others are
// wrapped with detail via fmt.Errorf("...: %w", ...), so the message
// stays informative without losing comparability.
var (
	// ErrDuplicateKey is returned by Insert when the key already exists.
	ErrDuplicateKey = errors.New("bptree: duplicate key")
	// ErrKeyNotFound is returned by operations that require an existing key.
	ErrKeyNotFound = errors.New("bptree: key not found")
	// ErrTypeMismatch is returned when a record's primary key field has
	// the wrong kind for the store.
	ErrTypeMismatch = errors.New("bptree: primary key type mismatch")
	// ErrMissingPrimaryKey is returned when a record has no field named
	// after the store's primary key.
	ErrMissingPrimaryKey = errors.New("bptree: record is missing its primary key field")
	// ErrHeaderCorrupt is not returned by this package or by store: a
	// header page that fails to parse or disagrees with the store's
	// configuration is reported as header.ErrCorrupt.
	ErrHeaderCorrupt = errors.New("bptree: header corrupt")
	// ErrInvariantViolated is returned when the tree reaches a page of the
	// wrong variant (a tag that is neither internal nor leaf, or a leaf
	// where an internal node is expected, or the reverse), and by store
	// when its header page is not allocated at page 0. Key sort order
	// within a page and cycles in the leaf chain are not checked.
	ErrInvariantViolated = errors.New("bptree: invariant violated")
)

// DuplicateKeyError reports the key that already existed.
type DuplicateKeyError struct {
	Key field.Value
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%v: key %s", ErrDuplicateKey, describeKey(e.Key))
}
func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// KeyNotFoundError reports the key that was absent.
type KeyNotFoundError struct {
	Key field.Value
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%v: key %s", ErrKeyNotFound, describeKey(e.Key))
}
func (e *KeyNotFoundError) Unwrap() error { return ErrKeyNotFound }

func describeKey(k field.Value) string {
	switch k.Kind {
	case field.KindUInt64:
		v, _ := k.AsUInt64()
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%q", k.AsString())
	}
}
