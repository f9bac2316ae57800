// Package cursor provides little-endian readers and writers over fixed
// byte regions with explicit position tracking.
//
// Regions must be sized exactly to the structure being parsed or
// written. Moving past the end of a region is a caller bug and panics
// via the usual slice bounds check rather than returning an error.
package cursor

import "encoding/binary"

// Reader consumes a fixed byte region front to back.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a Reader over buf. The Reader does not copy buf;
// callers must not mutate it while reading.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// U16 reads a little-endian uint16 and advances the position by 2.
func (r *Reader) U16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

// U32 reads a little-endian uint32 and advances the position by 4.
func (r *Reader) U32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

// Skip advances the position by n bytes without reading them.
func (r *Reader) Skip(n int) {
	if r.off+n > len(r.buf) {
		panic("cursor: skip past end of region")
	}
	r.off += n
}

// Bytes returns the next n bytes as a subslice of the underlying
// region and advances the position past them.
func (r *Reader) Bytes(n int) []byte {
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Offset returns the current position within the region.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Writer fills a fixed byte region front to back.
type Writer struct {
	buf []byte
	off int
}

// NewWriter creates a Writer over buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// PutU16 writes a little-endian uint16 and advances the position by 2.
func (w *Writer) PutU16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

// PutU32 writes a little-endian uint32 and advances the position by 4.
func (w *Writer) PutU32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

// PutBytes copies b into the region and advances the position past it.
func (w *Writer) PutBytes(b []byte) {
	n := copy(w.buf[w.off:], b)
	if n < len(b) {
		panic("cursor: write past end of region")
	}
	w.off += n
}

// Offset returns the current position within the region.
func (w *Writer) Offset() int {
	return w.off
}
