// Package store is the public Store API: Open, Insert, Get, Delete, and
// Scan over a paged B+ tree. It ties together the pager, the header
// keeper, the bptree algorithm, and the record codec; callers never
// touch those packages directly.
package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonasvbiegel/bgldb/bptree"
	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/header"
	"github.com/jonasvbiegel/bgldb/pager"
	"github.com/jonasvbiegel/bgldb/record"
)

// Config declares the shape of a store: which field is the primary key,
// what kind its values are, and the tree's branching order.
type Config struct {
	PrimaryKey string
	KeyKind    field.Kind
	Order      uint8
}

// ErrInvalidConfig is returned by Open when cfg fails validation.
var ErrInvalidConfig = errors.New("store: invalid config")

func (c Config) validate() error {
	if c.PrimaryKey == "" {
		return fmt.Errorf("%w: primary_key must not be empty", ErrInvalidConfig)
	}
	if len(c.PrimaryKey) > field.MaxNameLen {
		return fmt.Errorf("%w: primary_key of %d bytes exceeds max %d", ErrInvalidConfig, len(c.PrimaryKey), field.MaxNameLen)
	}
	if c.KeyKind != field.KindString && c.KeyKind != field.KindUInt64 {
		return fmt.Errorf("%w: key_kind %s is not a supported key kind", ErrInvalidConfig, c.KeyKind)
	}
	if c.Order < 3 || c.Order > 255 {
		return fmt.Errorf("%w: order %d outside allowed range [3..255]", ErrInvalidConfig, c.Order)
	}
	return nil
}

func (c Config) keySize() uint8 {
	if c.KeyKind == field.KindUInt64 {
		return 8
	}
	return field.MaxStringLen
}

// Store is an open paged B+ tree store. It is not safe for concurrent
// use, matching the engine's single-writer, single-reader model (§5).
type Store struct {
	id   uuid.UUID
	p    *pager.Pager
	tree *bptree.Tree
	cfg  Config
}

// Open wraps src as a Store under cfg. If src is empty, a fresh header
// (page 0) and an empty root leaf (page 1) are written. If src is
// non-empty, the existing header is parsed and checked against cfg,
// failing with header.ErrCorrupt-wrapped errors on any mismatch.
func Open(src pager.Source, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p, err := pager.Open(src)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	var hdr header.Header
	if p.NumPages() == 0 {
		hdr, err = bootstrap(p, cfg)
		if err != nil {
			return nil, fmt.Errorf("store: bootstrap: %w", err)
		}
	} else {
		hdr, err = readAndValidateHeader(p, cfg)
		if err != nil {
			return nil, err
		}
	}

	return &Store{
		id:   uuid.New(),
		p:    p,
		tree: bptree.Open(p, hdr),
		cfg:  cfg,
	}, nil
}

func bootstrap(p *pager.Pager, cfg Config) (header.Header, error) {
	headerID, err := p.Allocate()
	if err != nil {
		return header.Header{}, fmt.Errorf("allocate header page: %w", err)
	}
	if headerID != 0 {
		return header.Header{}, fmt.Errorf("bptree: %w: expected header at page 0, allocated page %d", bptree.ErrInvariantViolated, headerID)
	}
	rootID, err := p.Allocate()
	if err != nil {
		return header.Header{}, fmt.Errorf("allocate root leaf: %w", err)
	}

	hdr := header.Header{
		ElementCount:   0,
		KeyKind:        cfg.KeyKind,
		KeySize:        cfg.keySize(),
		PrimaryKeyName: cfg.PrimaryKey,
		RootPageID:     rootID,
		Order:          cfg.Order,
	}
	buf, err := header.Encode(hdr)
	if err != nil {
		return header.Header{}, fmt.Errorf("encode header: %w", err)
	}
	if err := p.WriteHeader(buf); err != nil {
		return header.Header{}, fmt.Errorf("write header: %w", err)
	}

	rootLeaf := bptree.Leaf{PageID: rootID, KeyKind: cfg.KeyKind}
	leafBuf, err := bptree.EncodeLeaf(rootLeaf)
	if err != nil {
		return header.Header{}, fmt.Errorf("encode root leaf: %w", err)
	}
	if err := p.WritePage(rootID, leafBuf); err != nil {
		return header.Header{}, fmt.Errorf("write root leaf: %w", err)
	}

	return hdr, nil
}

func readAndValidateHeader(p *pager.Pager, cfg Config) (header.Header, error) {
	pg, err := p.ReadHeader()
	if err != nil {
		return header.Header{}, fmt.Errorf("store: read header: %w", err)
	}
	hdr, err := header.Decode(pg.Data[:])
	if err != nil {
		return header.Header{}, fmt.Errorf("store: %w", err)
	}
	switch {
	case hdr.KeyKind != cfg.KeyKind:
		return header.Header{}, fmt.Errorf("store: %w: header key_kind %s does not match config key_kind %s", header.ErrCorrupt, hdr.KeyKind, cfg.KeyKind)
	case hdr.PrimaryKeyName != cfg.PrimaryKey:
		return header.Header{}, fmt.Errorf("store: %w: header primary_key %q does not match config primary_key %q", header.ErrCorrupt, hdr.PrimaryKeyName, cfg.PrimaryKey)
	case hdr.Order != cfg.Order:
		return header.Header{}, fmt.Errorf("store: %w: header order %d does not match config order %d", header.ErrCorrupt, hdr.Order, cfg.Order)
	}
	return hdr, nil
}

// ID is a random identifier minted when this Store was opened, used only
// to correlate log lines across operations on the same open store. It is
// never persisted and never affects tree semantics.
func (s *Store) ID() uuid.UUID { return s.id }

// primaryKey extracts and validates rec's primary key field.
func (s *Store) primaryKey(rec record.Record) (field.Value, error) {
	v, ok := rec.Get(s.cfg.PrimaryKey)
	if !ok {
		return field.Value{}, fmt.Errorf("store: %w: record has no field named %q", bptree.ErrMissingPrimaryKey, s.cfg.PrimaryKey)
	}
	if v.Kind != s.cfg.KeyKind {
		return field.Value{}, fmt.Errorf("store: %w: primary key field %q has kind %s, store expects %s", bptree.ErrTypeMismatch, s.cfg.PrimaryKey, v.Kind, s.cfg.KeyKind)
	}
	return v, nil
}

// Insert validates rec against the store's header, then descends to the
// target leaf and links a freshly written record page under rec's
// primary key, splitting along the path if needed. It fails with
// DuplicateKeyError if the key already exists, and does not allocate any
// page in that case.
func (s *Store) Insert(rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}
	key, err := s.primaryKey(rec)
	if err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}

	if _, found, err := s.tree.Search(key); err != nil {
		return fmt.Errorf("store: insert: %w", err)
	} else if found {
		return fmt.Errorf("store: insert: %w", &bptree.DuplicateKeyError{Key: key})
	}

	pageID, err := s.p.Allocate()
	if err != nil {
		return fmt.Errorf("store: insert: allocate record page: %w", err)
	}
	if err := bptree.WriteRecord(s.p, pageID, rec, s.p.Allocate); err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}
	if err := s.tree.Insert(key, pageID); err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}
	return nil
}

// Get descends to key's leaf and returns the referenced record, or
// (nil, false, nil) if the key is absent.
func (s *Store) Get(key field.Value) (record.Record, bool, error) {
	pageID, found, err := s.tree.Search(key)
	if err != nil {
		return nil, false, fmt.Errorf("store: get: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	rec, err := bptree.ReadRecord(s.p, pageID)
	if err != nil {
		return nil, false, fmt.Errorf("store: get: %w", err)
	}
	return rec, true, nil
}

// Delete removes key from the tree, rebalancing as needed. It reports
// whether a key was removed. The record page it pointed at is not freed
// (the pager has no free list; see design notes).
func (s *Store) Delete(key field.Value) (bool, error) {
	err := s.tree.Delete(key)
	if err != nil {
		if errors.Is(err, bptree.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("store: delete: %w", err)
	}
	return true, nil
}

// Scan returns a Cursor over every record in ascending key order. A
// Cursor is single-pass; call Scan again for a fresh pass.
func (s *Store) Scan() (*Cursor, error) {
	c, err := bptree.NewCursor(s.tree)
	if err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	return &Cursor{p: s.p, inner: c}, nil
}

// Stats is a point-in-time snapshot of the store's size, for operators
// wiring the engine into a monitoring shell.
type Stats struct {
	ElementCount uint64
	PageCount    uint64
	Depth        int
}

// Stats computes a Stats snapshot from the header and a root-to-leaf
// probe.
func (s *Store) Stats() (Stats, error) {
	hdr := s.tree.Header()
	depth, err := s.tree.Depth()
	if err != nil {
		return Stats{}, fmt.Errorf("store: stats: %w", err)
	}
	return Stats{
		ElementCount: hdr.ElementCount,
		PageCount:    s.p.NumPages(),
		Depth:        depth,
	}, nil
}
