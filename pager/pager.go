// Package pager implements the page-oriented byte-source abstraction the
// B+ tree is built on: fixed-size page allocation, whole-page read/write,
// and a dedicated header page at index 0.
package pager

import (
	"errors"
	"fmt"
	"io"
)

// PageSize is the fixed size of every page, including the header. It is a
// compile-time constant: every non-header page serializes to exactly this
// many bytes.
const PageSize = 4096

// ErrShortRead is returned when fewer than PageSize bytes could be read
// for a page that is supposed to exist.
var ErrShortRead = errors.New("pager: short read")

// ErrShortWrite is returned when fewer than the requested bytes could be
// written to the source.
var ErrShortWrite = errors.New("pager: short write")

// Source is the capability set a byte source must offer: random-access
// read and write at an absolute offset, and the ability to grow. Both
// *os.File and an in-memory buffer satisfy it, so stores can be backed by
// a real file or a throwaway buffer in tests without the pager caring.
type Source interface {
	io.ReaderAt
	io.WriterAt
	// Truncate grows or shrinks the source to exactly size bytes.
	Truncate(size int64) error
	// Size reports the current length of the source in bytes.
	Size() (int64, error)
}

// Page is one PageSize-byte page read from or about to be written to the
// source. Page 0 is always the header; pages 1..N are addressed by the
// same Page type but interpreted by the codec according to their tag.
type Page struct {
	ID   uint64
	Data [PageSize]byte
}

// Pager owns a Source and exposes it as an array of fixed-size pages.
// It does not cache: a successful Write is immediately visible to a
// subsequent Read of the same page.
type Pager struct {
	src      Source
	numPages uint64
}

// Open wraps src as a Pager, computing the current page count from the
// source's length. A brand-new, empty source yields zero pages; the
// caller (the Store) is responsible for allocating the header and root
// pages in that case.
func Open(src Source) (*Pager, error) {
	size, err := src.Size()
	if err != nil {
		return nil, fmt.Errorf("pager: stat source: %w", err)
	}
	if size%PageSize != 0 {
		return nil, fmt.Errorf("pager: source length %d is not a multiple of page size %d", size, PageSize)
	}
	return &Pager{src: src, numPages: uint64(size / PageSize)}, nil
}

// NumPages reports how many pages (including the header, if allocated)
// currently exist in the source.
func (p *Pager) NumPages() uint64 {
	return p.numPages
}

// Allocate appends one zero-filled page to the source and returns its
// PageId. Page 0 is the header; the first call on an empty source
// allocates page 0, the next allocates page 1, and so on. Once
// allocated, a PageId is stable for the life of the store — pages are
// never freed.
func (p *Pager) Allocate() (uint64, error) {
	id := p.numPages
	var zero [PageSize]byte
	off := int64(id) * PageSize
	n, err := p.src.WriteAt(zero[:], off)
	if err != nil {
		return 0, fmt.Errorf("pager: allocate page %d: %w", id, err)
	}
	if n != PageSize {
		return 0, fmt.Errorf("pager: allocate page %d: %w", id, ErrShortWrite)
	}
	p.numPages++
	return id, nil
}

// offsetOf returns the byte offset of page id. Page 0 (the header) lives
// at offset 0; page N>=1 lives at offset N*PageSize. This is the one
// offset convention fixed by the design (see design notes on the
// inconsistent drafts this repo grew out of).
func offsetOf(id uint64) int64 {
	return int64(id) * PageSize
}

// ReadPage reads exactly PageSize bytes for page id. It fails with
// ErrShortRead if EOF intervenes before a full page is read.
func (p *Pager) ReadPage(id uint64) (*Page, error) {
	if id >= p.numPages {
		return nil, fmt.Errorf("pager: read page %d: %w", id, ErrShortRead)
	}
	pg := &Page{ID: id}
	n, err := p.src.ReadAt(pg.Data[:], offsetOf(id))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("pager: read page %d: %w", id, err)
	}
	if n != PageSize {
		return nil, fmt.Errorf("pager: read page %d: %w", id, ErrShortRead)
	}
	return pg, nil
}

// WritePage writes data to page id, zero-padding if shorter than
// PageSize. It is an error for data to exceed PageSize.
func (p *Pager) WritePage(id uint64, data []byte) error {
	if len(data) > PageSize {
		return fmt.Errorf("pager: write page %d: payload of %d bytes exceeds page size %d", id, len(data), PageSize)
	}
	if id >= p.numPages {
		return fmt.Errorf("pager: write page %d: page not allocated", id)
	}
	var buf [PageSize]byte
	copy(buf[:], data)
	n, err := p.src.WriteAt(buf[:], offsetOf(id))
	if err != nil {
		return fmt.Errorf("pager: write page %d: %w", id, err)
	}
	if n != PageSize {
		return fmt.Errorf("pager: write page %d: %w", id, ErrShortWrite)
	}
	return nil
}

// ReadHeader reads the header page (page 0) explicitly.
func (p *Pager) ReadHeader() (*Page, error) {
	return p.ReadPage(0)
}

// WriteHeader writes the header page (page 0) explicitly.
func (p *Pager) WriteHeader(data []byte) error {
	return p.WritePage(0, data)
}
