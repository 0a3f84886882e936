package pager

import (
	"fmt"
	"os"
)

// FileSource adapts an *os.File to the Source interface.
type FileSource struct {
	f *os.File
}

// OpenFile opens (creating if absent) the file at path and wraps it as a
// Source for a Pager.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("pager: open %s: %w", path, err)
	}
	return &FileSource{f: f}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error)  { return s.f.ReadAt(p, off) }
func (s *FileSource) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, off) }
func (s *FileSource) Truncate(size int64) error                { return s.f.Truncate(size) }

func (s *FileSource) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Sync flushes the underlying file's in-kernel buffers. The pager itself
// offers no durability guarantee beyond what the host provides (see
// design notes on crash atomicity); Sync is exposed for callers that want
// whatever the OS can offer them.
func (s *FileSource) Sync() error { return s.f.Sync() }

// Close closes the underlying file.
func (s *FileSource) Close() error { return s.f.Close() }

// MemSource is an in-memory Source, useful for tests and embedders that
// don't want a file on disk. It is not safe for concurrent use, matching
// the engine's single-writer, single-reader model.
type MemSource struct {
	buf []byte
}

// NewMemSource returns an empty in-memory Source.
func NewMemSource() *MemSource {
	return &MemSource{}
}

func (s *MemSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("pager: negative offset %d", off)
	}
	if off >= int64(len(s.buf)) {
		return 0, fmt.Errorf("pager: read past end of buffer at offset %d", off)
	}
	n := copy(p, s.buf[off:])
	return n, nil
}

func (s *MemSource) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[off:end], p)
	return len(p), nil
}

func (s *MemSource) Truncate(size int64) error {
	switch {
	case size < int64(len(s.buf)):
		s.buf = s.buf[:size]
	case size > int64(len(s.buf)):
		grown := make([]byte, size)
		copy(grown, s.buf)
		s.buf = grown
	}
	return nil
}

func (s *MemSource) Size() (int64, error) { return int64(len(s.buf)), nil }
