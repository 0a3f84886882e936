package bptree

import (
	"encoding/binary"
	"fmt"

	"github.com/jonasvbiegel/bgldb/pager"
	"github.com/jonasvbiegel/bgldb/record"
)

// A Record head page reserves 8 bytes right after the shared prefix for
// the id of the first Overflow page in its chain (0 = no overflow, the
// record fit in one page). Overflow pages reserve the same 8 bytes for
// their own successor (0 = last). This is how the decoder discovers and
// follows the chain the spec's design allowance describes, without a
// side table: both variants are "prefix + next-pointer + payload", they
// just use different tags.
const pointerSize = 8

// recordBodySpace is how many payload bytes a Record head page has after
// its prefix and overflow-head pointer.
const recordBodySpace = pager.PageSize - prefixSize - pointerSize

// overflowBodySpace is how many payload bytes an Overflow page has after
// its prefix and next pointer.
const overflowBodySpace = pager.PageSize - prefixSize - pointerSize

// WriteRecord serializes rec and writes it starting at pageID, chaining
// to freshly allocated Overflow pages (via alloc) if the encoded form
// does not fit in one page.
func WriteRecord(p *pager.Pager, pageID uint64, rec record.Record, alloc func() (uint64, error)) error {
	payload, err := record.Encode(rec)
	if err != nil {
		return fmt.Errorf("bptree: encode record: %w", err)
	}

	head := payload
	tail := []byte(nil)
	if len(head) > recordBodySpace {
		tail = head[recordBodySpace:]
		head = head[:recordBodySpace]
	}

	chunks := splitChunks(tail, overflowBodySpace)
	ids := make([]uint64, len(chunks))
	for i := range chunks {
		id, err := alloc()
		if err != nil {
			return fmt.Errorf("bptree: allocate overflow page: %w", err)
		}
		ids[i] = id
	}

	var overflowHead uint64
	if len(ids) > 0 {
		overflowHead = ids[0]
	}
	headBody := make([]byte, 0, prefixSize+pointerSize+len(head))
	headBody = appendPrefix(headBody, pageID, TagRecord)
	headBody = binary.LittleEndian.AppendUint64(headBody, overflowHead)
	headBody = append(headBody, head...)
	headPage, err := padToPage(headBody)
	if err != nil {
		return fmt.Errorf("bptree: pad record head page: %w", err)
	}
	if err := p.WritePage(pageID, headPage); err != nil {
		return fmt.Errorf("bptree: write record head page %d: %w", pageID, err)
	}

	for i, chunk := range chunks {
		var next uint64
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		ovBody := make([]byte, 0, prefixSize+pointerSize+len(chunk))
		ovBody = appendPrefix(ovBody, ids[i], TagOverflow)
		ovBody = binary.LittleEndian.AppendUint64(ovBody, next)
		ovBody = append(ovBody, chunk...)
		ovPage, err := padToPage(ovBody)
		if err != nil {
			return fmt.Errorf("bptree: pad overflow page: %w", err)
		}
		if err := p.WritePage(ids[i], ovPage); err != nil {
			return fmt.Errorf("bptree: write overflow page %d: %w", ids[i], err)
		}
	}
	return nil
}

// splitChunks divides data into pieces of at most size bytes each.
func splitChunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var chunks [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

// ReadRecord reads the Record page at pageID, following any Overflow
// chain, and decodes the reassembled bytes.
func ReadRecord(p *pager.Pager, pageID uint64) (record.Record, error) {
	pg, err := p.ReadPage(pageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: read record page %d: %w", pageID, err)
	}
	id, tag, rest, err := splitPrefix(pg.Data[:])
	if err != nil {
		return nil, err
	}
	if tag != TagRecord {
		return nil, fmt.Errorf("bptree: page %d: expected record tag 0x%02x, found 0x%02x", id, TagRecord, tag)
	}
	if len(rest) < pointerSize {
		return nil, fmt.Errorf("bptree: page %d: truncated overflow-head pointer", id)
	}
	overflowHead := binary.LittleEndian.Uint64(rest[:pointerSize])
	payload := append([]byte(nil), rest[pointerSize:]...)

	next := overflowHead
	for next != 0 {
		opg, err := p.ReadPage(next)
		if err != nil {
			return nil, fmt.Errorf("bptree: read overflow page %d: %w", next, err)
		}
		oid, otag, orest, err := splitPrefix(opg.Data[:])
		if err != nil {
			return nil, err
		}
		if otag != TagOverflow {
			return nil, fmt.Errorf("bptree: page %d: expected overflow tag 0x%02x, found 0x%02x", oid, TagOverflow, otag)
		}
		if len(orest) < pointerSize {
			return nil, fmt.Errorf("bptree: page %d: truncated overflow next pointer", oid)
		}
		next = binary.LittleEndian.Uint64(orest[:pointerSize])
		payload = append(payload, orest[pointerSize:]...)
	}

	rec, err := record.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("bptree: decode record at page %d: %w", pageID, err)
	}
	return rec, nil
}
