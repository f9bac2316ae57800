package zipkit

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meigma/zipkit/internal/crc"
	"github.com/meigma/zipkit/internal/cursor"
	"github.com/meigma/zipkit/internal/deflate"
)

// ByteSource provides random access to an archive.
//
// *bytes.Reader and *io.SectionReader satisfy it directly; OpenReader
// wraps a local file and the http subpackage serves remote archives
// over range requests. Every read carries an explicit offset, so a
// source is never asked to maintain a cursor and payloads of distinct
// entries may be consumed concurrently when the source allows
// concurrent ReadAt calls.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Reader decodes entries from a ZIP archive.
//
// NewReader resolves every entry's headers eagerly; payload bytes are
// only fetched when an entry is opened.
type Reader struct {
	src     ByteSource
	files   []*File
	inflate *deflate.ReaderPool
	verify  bool
	logger  *slog.Logger
}

// File is one decoded archive entry. Its payload is opened lazily.
type File struct {
	Entry

	r             *Reader
	headerOffset  int64
	payloadOffset int64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// ReadWithLogger sets the logger used for debug events.
func ReadWithLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// ReadWithoutVerify disables the CRC-32 and size check that payload
// streams perform at end of stream by default.
func ReadWithoutVerify() ReaderOption {
	return func(r *Reader) {
		r.verify = false
	}
}

// NewReader decodes the archive's trailing structures and returns a
// Reader over its entries, in central-directory order.
//
// The whole archive is never held in memory; NewReader reads only the
// end-of-central-directory record, the central directory, and each
// entry's local header.
func NewReader(src ByteSource, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{
		src:     src,
		inflate: deflate.NewReaderPool(),
		verify:  true,
	}
	for _, opt := range opts {
		opt(r)
	}

	eocd, err := findEOCD(src)
	if err != nil {
		return nil, err
	}
	if err := r.readCentralDirectory(eocd); err != nil {
		return nil, err
	}

	r.log().Debug("archive opened", "entries", len(r.files), "size", src.Size())
	return r, nil
}

// OpenReader opens the named file and decodes it as an archive. The
// returned ReadCloser owns the file handle; Close releases it.
func OpenReader(name string) (*ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r, err := NewReader(&fileSource{f: f, size: info.Size()})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ReadCloser{Reader: r, f: f}, nil
}

// ReadCloser is a Reader that owns the underlying file handle.
type ReadCloser struct {
	*Reader
	f *os.File
}

// Close releases the underlying file. Payload streams obtained from
// the Reader are invalid afterwards.
func (rc *ReadCloser) Close() error {
	return rc.f.Close()
}

// fileSource adapts *os.File to ByteSource with a size captured at
// open time.
type fileSource struct {
	f    *os.File
	size int64
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *fileSource) Size() int64                             { return s.size }

// Files returns the decoded entries in central-directory order.
func (r *Reader) Files() []*File {
	return r.files
}

// Len returns the number of entries in the archive.
func (r *Reader) Len() int {
	return len(r.files)
}

// Open returns the payload stream for the first entry with the given
// name, or false when no entry matches.
func (r *Reader) Open(name string) (io.ReadCloser, bool, error) {
	for _, f := range r.files {
		if f.Name == name {
			rc, err := f.Open()
			return rc, true, err
		}
	}
	return nil, false, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// eocdRecord is the parsed end-of-central-directory record.
type eocdRecord struct {
	offset   int64
	count    int
	cdSize   int64
	cdOffset int64
}

// findEOCD scans backward over the archive's tail for the
// end-of-central-directory signature. The comment field preceding the
// end of file has arbitrary length, so the scan is byte-by-byte over
// the last eocdLen+maxComment bytes.
func findEOCD(src ByteSource) (*eocdRecord, error) {
	size := src.Size()
	if size < eocdLen {
		return nil, &FormatError{
			Structure: "end of central directory",
			Offset:    0,
			Detail:    fmt.Sprintf("source too small (%d bytes)", size),
		}
	}

	windowStart := size - eocdLen - maxComment
	if windowStart < 0 {
		windowStart = 0
	}
	window := make([]byte, size-windowStart)
	if _, err := io.ReadFull(io.NewSectionReader(src, windowStart, int64(len(window))), window); err != nil {
		return nil, fmt.Errorf("reading archive tail: %w", err)
	}

	for i := len(window) - eocdLen; i >= 0; i-- {
		cur := cursor.NewReader(window[i : i+eocdLen])
		if cur.U32() != eocdSignature {
			continue
		}
		offset := windowStart + int64(i)

		diskNumber := cur.U16()
		cdStartDisk := cur.U16()
		countOnDisk := cur.U16()
		totalCount := cur.U16()
		cdSize := cur.U32()
		cdOffset := cur.U32()

		if diskNumber != 0 || cdStartDisk != 0 || countOnDisk != totalCount {
			return nil, &FormatError{
				Structure: "end of central directory",
				Offset:    offset,
				Detail:    "multi-disk archives are not supported",
			}
		}
		return &eocdRecord{
			offset:   offset,
			count:    int(totalCount),
			cdSize:   int64(cdSize),
			cdOffset: int64(cdOffset),
		}, nil
	}

	return nil, &FormatError{
		Structure: "end of central directory",
		Offset:    size,
		Detail:    "signature not found",
	}
}

// readCentralDirectory walks the central directory and resolves each
// entry's local header and optional data descriptor.
func (r *Reader) readCentralDirectory(eocd *eocdRecord) error {
	if eocd.cdOffset+eocd.cdSize > r.src.Size() {
		return &FormatError{
			Structure: "central directory",
			Offset:    eocd.offset,
			Detail: fmt.Sprintf("directory region [%d, %d) extends past end of source (%d)",
				eocd.cdOffset, eocd.cdOffset+eocd.cdSize, r.src.Size()),
		}
	}

	region := make([]byte, eocd.cdSize)
	if _, err := io.ReadFull(io.NewSectionReader(r.src, eocd.cdOffset, eocd.cdSize), region); err != nil {
		return fmt.Errorf("reading central directory: %w", err)
	}

	cur := cursor.NewReader(region)
	files := make([]*File, 0, eocd.count)
	for i := range eocd.count {
		recordOffset := eocd.cdOffset + int64(cur.Offset())
		if cur.Remaining() < centralDirLen {
			return &FormatError{
				Structure: "central directory file header",
				Offset:    recordOffset,
				Detail:    fmt.Sprintf("truncated after %d of %d entries", i, eocd.count),
			}
		}

		if sig := cur.U32(); sig != centralDirSignature {
			return badSignature("central directory file header", recordOffset, "", sig)
		}
		cur.Skip(6) // version made by, version needed, flags
		method := Method(cur.U16())
		dosTime := cur.U16()
		dosDate := cur.U16()
		crc32 := cur.U32()
		compSize := cur.U32()
		uncompSize := cur.U32()
		nameLen := int(cur.U16())
		extraLen := int(cur.U16())
		commentLen := int(cur.U16())
		cur.Skip(8) // disk number start, internal attrs, external attrs
		headerOffset := int64(cur.U32())

		if cur.Remaining() < nameLen+extraLen+commentLen {
			return &FormatError{
				Structure: "central directory file header",
				Offset:    recordOffset,
				Detail:    "variable-length fields extend past directory region",
			}
		}
		name := string(cur.Bytes(nameLen))
		cur.Skip(extraLen + commentLen)

		f := &File{
			Entry: Entry{
				Name:             name,
				Method:           method,
				CRC32:            crc32,
				CompressedSize:   compSize,
				UncompressedSize: uncompSize,
			},
			r:            r,
			headerOffset: headerOffset,
		}
		if t, ok := dosToTime(dosDate, dosTime); ok {
			f.Modified = t
		}

		if err := r.resolveLocal(f); err != nil {
			return err
		}
		files = append(files, f)
	}

	r.files = files
	return nil
}

// resolveLocal reads an entry's local header, locates the payload, and
// folds in the data descriptor when general-purpose bit 3 says one
// follows the payload.
func (r *Reader) resolveLocal(f *File) error {
	var buf [localHeaderLen]byte
	if _, err := r.src.ReadAt(buf[:], f.headerOffset); err != nil {
		return &FormatError{
			Structure: "local file header",
			Offset:    f.headerOffset,
			Path:      f.Name,
			Detail:    fmt.Sprintf("unreadable: %v", err),
		}
	}

	cur := cursor.NewReader(buf[:])
	if sig := cur.U32(); sig != localHeaderSignature {
		return badSignature("local file header", f.headerOffset, f.Name, sig)
	}
	cur.Skip(2) // version needed
	flags := cur.U16()
	cur.Skip(18) // method, time, date, crc, sizes: authoritative copies live elsewhere
	nameLen := int(cur.U16())
	extraLen := int(cur.U16())

	f.payloadOffset = f.headerOffset + localHeaderLen + int64(nameLen) + int64(extraLen)

	if flags&flagDataDescriptor == 0 {
		return nil
	}

	// The descriptor sits right after the payload. Its own position is
	// found through the central directory's compressed size; the
	// descriptor's fields then override the directory's.
	descOffset := f.payloadOffset + int64(f.CompressedSize)
	var desc [dataDescriptorLen]byte
	if _, err := r.src.ReadAt(desc[:], descOffset); err != nil {
		return &FormatError{
			Structure: "data descriptor",
			Offset:    descOffset,
			Path:      f.Name,
			Detail:    fmt.Sprintf("unreadable: %v", err),
		}
	}

	dcur := cursor.NewReader(desc[:])
	if sig := dcur.U32(); sig != dataDescriptorSignature {
		return badSignature("data descriptor", descOffset, f.Name, sig)
	}
	f.CRC32 = dcur.U32()
	f.CompressedSize = dcur.U32()
	f.UncompressedSize = dcur.U32()
	return nil
}

// Open returns a stream over the entry's payload, decoded per its
// method. Unless disabled with ReadWithoutVerify, the stream checks
// the payload's CRC-32 and size when it reaches end of stream and
// reports ErrChecksum on mismatch.
//
// Each call returns an independent stream positioned at the start of
// the payload. Chunks within one stream are sequential; streams of
// different entries may be consumed concurrently.
func (f *File) Open() (io.ReadCloser, error) {
	if !f.Method.supported() {
		return nil, fmt.Errorf("%w: %q uses method %d", ErrUnsupportedMethod, f.Name, uint16(f.Method))
	}

	section := io.NewSectionReader(f.r.src, f.payloadOffset, int64(f.CompressedSize))

	var rc io.ReadCloser
	switch f.Method {
	case Store:
		rc = io.NopCloser(section)
	case Deflate:
		rc = f.r.inflate.Get(section)
	}

	if !f.r.verify {
		return rc, nil
	}
	return &checkedReader{rc: rc, wantCRC: f.CRC32, wantSize: f.UncompressedSize}, nil
}

// checkedReader verifies CRC-32 and uncompressed size as the payload
// streams, failing the read that observes end of stream.
type checkedReader struct {
	rc       io.ReadCloser
	digest   crc.Digest
	n        uint32
	wantCRC  uint32
	wantSize uint32
	err      error
}

func (cr *checkedReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}

	n, err := cr.rc.Read(p)
	if n > 0 {
		cr.digest.Write(p[:n]) //nolint:errcheck // digest writes never fail
		cr.n += uint32(n)
	}

	if err == io.EOF {
		if cr.n != cr.wantSize {
			cr.err = fmt.Errorf("%w: size %d, archive recorded %d", ErrChecksum, cr.n, cr.wantSize)
			return n, cr.err
		}
		if sum := cr.digest.Sum32(); sum != cr.wantCRC {
			cr.err = fmt.Errorf("%w: crc32 %08x, archive recorded %08x", ErrChecksum, sum, cr.wantCRC)
			return n, cr.err
		}
	}
	return n, err
}

func (cr *checkedReader) Close() error {
	return cr.rc.Close()
}
