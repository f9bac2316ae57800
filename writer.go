package zipkit

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/meigma/zipkit/internal/crc"
	"github.com/meigma/zipkit/internal/cursor"
	"github.com/meigma/zipkit/internal/deflate"
)

// Writer encodes entries into a ZIP archive as one forward byte
// stream.
//
// Entries are written strictly one at a time: starting a new entry
// finishes the previous one. Local headers carry zero CRC and size
// placeholders with general-purpose bit 3 set; the real values are
// emitted in a data descriptor after each payload, so payloads stream
// through without buffering. Close emits the central directory and the
// end-of-central-directory record; until then the output is not a
// valid archive.
type Writer struct {
	cw     countingWriter
	dir    []dirRecord
	cur    *entryWriter
	comp   *deflate.WriterPool
	logger *slog.Logger
	closed bool
}

// dirRecord holds one entry's final metadata between the moment its
// payload completes and the moment the central directory is emitted.
type dirRecord struct {
	name         string
	method       Method
	dosDate      uint16
	dosTime      uint16
	crc32        uint32
	compSize     uint32
	uncompSize   uint32
	headerOffset uint32
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	level  int
	logger *slog.Logger
}

// WriteWithLevel sets the deflate compression level, in the range
// accepted by flate (flate.BestSpeed through flate.BestCompression).
func WriteWithLevel(level int) WriterOption {
	return func(cfg *writerConfig) {
		cfg.level = level
	}
}

// WriteWithLogger sets the logger used for debug events.
func WriteWithLogger(logger *slog.Logger) WriterOption {
	return func(cfg *writerConfig) {
		cfg.logger = logger
	}
}

// NewWriter creates a Writer emitting the archive to w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	cfg := writerConfig{level: flate.DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Writer{
		cw:     countingWriter{w: w},
		comp:   deflate.NewWriterPool(cfg.level),
		logger: cfg.logger,
	}
}

// CreateOption configures one entry.
type CreateOption func(*createConfig)

type createConfig struct {
	method   Method
	modified time.Time
}

// CreateWithMethod selects the entry's payload coding. The default is
// Store.
func CreateWithMethod(m Method) CreateOption {
	return func(cfg *createConfig) {
		cfg.method = m
	}
}

// CreateWithModified sets the entry's timestamp. The default is the
// current time. Resolution is 2 seconds per the DOS time encoding.
func CreateWithModified(t time.Time) CreateOption {
	return func(cfg *createConfig) {
		cfg.modified = t
	}
}

// Create starts a new entry and returns the writer for its payload.
//
// Create finishes the previous entry first; the writer returned for an
// earlier entry must not be used once a new one has started.
func (w *Writer) Create(name string, opts ...CreateOption) (io.Writer, error) {
	if w.closed {
		return nil, ErrWriterClosed
	}
	if err := w.finishEntry(); err != nil {
		return nil, err
	}
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: entry name is %d bytes, limit is %d", ErrSizeOverflow, len(name), maxNameLen)
	}
	if len(w.dir) >= maxEntries {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyEntries, maxEntries)
	}

	cfg := createConfig{method: Store}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.method.supported() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, uint16(cfg.method))
	}
	if cfg.modified.IsZero() {
		cfg.modified = time.Now()
	}

	headerOffset := w.cw.n
	if headerOffset > maxUint32 {
		return nil, fmt.Errorf("%w: entry %q starts at offset %d", ErrSizeOverflow, name, headerOffset)
	}

	dosDate, dosTime := timeToDos(cfg.modified)
	if err := w.writeLocalHeader(name, cfg.method, dosDate, dosTime); err != nil {
		return nil, err
	}

	ew := &entryWriter{
		counter: countingWriter{w: &w.cw},
		method:  cfg.method,
	}
	if cfg.method == Deflate {
		fw, release, err := w.comp.Get(&ew.counter)
		if err != nil {
			return nil, err
		}
		ew.fw = fw
		ew.release = release
	}

	w.cur = ew
	w.dir = append(w.dir, dirRecord{
		name:         name,
		method:       cfg.method,
		dosDate:      dosDate,
		dosTime:      dosTime,
		headerOffset: uint32(headerOffset),
	})
	return ew, nil
}

// WriteEntry encodes one entry descriptor: its header, the full
// payload from e.Body, and the trailing data descriptor. A nil Body
// writes an empty payload.
func (w *Writer) WriteEntry(e *Entry) error {
	opts := []CreateOption{CreateWithMethod(e.Method)}
	if !e.Modified.IsZero() {
		opts = append(opts, CreateWithModified(e.Modified))
	}
	ew, err := w.Create(e.Name, opts...)
	if err != nil {
		return err
	}
	if e.Body != nil {
		if _, err := io.Copy(ew, e.Body); err != nil {
			return fmt.Errorf("writing payload for %q: %w", e.Name, err)
		}
	}
	return w.finishEntry()
}

// Close finishes the last entry, then emits the central directory and
// the end-of-central-directory record.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	if err := w.finishEntry(); err != nil {
		return err
	}
	w.closed = true

	cdOffset := w.cw.n
	if cdOffset > maxUint32 {
		return fmt.Errorf("%w: central directory starts at offset %d", ErrSizeOverflow, cdOffset)
	}
	for i := range w.dir {
		if err := w.writeCentralRecord(&w.dir[i]); err != nil {
			return err
		}
	}
	cdSize := w.cw.n - cdOffset
	if err := w.writeEOCD(uint32(cdOffset), uint32(cdSize)); err != nil {
		return err
	}

	w.log().Debug("archive finished", "entries", len(w.dir), "bytes", w.cw.n)
	return nil
}

// Offset returns the number of archive bytes emitted so far.
func (w *Writer) Offset() int64 {
	return int64(w.cw.n)
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// finishEntry completes the in-flight entry: it drains the compressor,
// records the final CRC and sizes, and emits the data descriptor.
func (w *Writer) finishEntry() error {
	ew := w.cur
	if ew == nil {
		return nil
	}
	w.cur = nil

	compSize, uncompSize, sum, err := ew.finish()
	if err != nil {
		return err
	}
	if uncompSize > maxUint32 || compSize > maxUint32 {
		rec := &w.dir[len(w.dir)-1]
		return fmt.Errorf("%w: entry %q", ErrSizeOverflow, rec.name)
	}

	var buf [dataDescriptorLen]byte
	cur := cursor.NewWriter(buf[:])
	cur.PutU32(dataDescriptorSignature)
	cur.PutU32(sum)
	cur.PutU32(uint32(compSize))
	cur.PutU32(uint32(uncompSize))
	if _, err := w.cw.Write(buf[:]); err != nil {
		return err
	}

	rec := &w.dir[len(w.dir)-1]
	rec.crc32 = sum
	rec.compSize = uint32(compSize)
	rec.uncompSize = uint32(uncompSize)

	w.log().Debug("entry written",
		"name", rec.name,
		"method", rec.method.String(),
		"size", uncompSize,
		"stored", compSize,
	)
	return nil
}

// writeLocalHeader emits the 30-byte local file header followed by the
// entry name. CRC and sizes are zero placeholders; bit 3 of the flags
// announces the data descriptor that carries the real values.
func (w *Writer) writeLocalHeader(name string, method Method, dosDate, dosTime uint16) error {
	nameBytes := []byte(name)
	buf := make([]byte, localHeaderLen+len(nameBytes))
	cur := cursor.NewWriter(buf)
	cur.PutU32(localHeaderSignature)
	cur.PutU16(versionNeeded)
	cur.PutU16(flagDataDescriptor)
	cur.PutU16(uint16(method))
	cur.PutU16(dosTime)
	cur.PutU16(dosDate)
	cur.PutU32(0) // crc32, in the data descriptor
	cur.PutU32(0) // compressed size, in the data descriptor
	cur.PutU32(0) // uncompressed size, in the data descriptor
	cur.PutU16(uint16(len(nameBytes)))
	cur.PutU16(0) // extra length
	cur.PutBytes(nameBytes)
	_, err := w.cw.Write(buf)
	return err
}

// writeCentralRecord emits one 46-byte central directory file header
// plus the entry name.
func (w *Writer) writeCentralRecord(rec *dirRecord) error {
	nameBytes := []byte(rec.name)
	buf := make([]byte, centralDirLen+len(nameBytes))
	cur := cursor.NewWriter(buf)
	cur.PutU32(centralDirSignature)
	cur.PutU16(versionNeeded) // version made by
	cur.PutU16(versionNeeded) // version needed to extract
	cur.PutU16(flagDataDescriptor)
	cur.PutU16(uint16(rec.method))
	cur.PutU16(rec.dosTime)
	cur.PutU16(rec.dosDate)
	cur.PutU32(rec.crc32)
	cur.PutU32(rec.compSize)
	cur.PutU32(rec.uncompSize)
	cur.PutU16(uint16(len(nameBytes)))
	cur.PutU16(0) // extra length
	cur.PutU16(0) // comment length
	cur.PutU16(0) // disk number start
	cur.PutU16(0) // internal attributes
	cur.PutU32(0) // external attributes
	cur.PutU32(rec.headerOffset)
	cur.PutBytes(nameBytes)
	_, err := w.cw.Write(buf)
	return err
}

// writeEOCD emits the end-of-central-directory record with an empty
// comment.
func (w *Writer) writeEOCD(cdOffset, cdSize uint32) error {
	var buf [eocdLen]byte
	cur := cursor.NewWriter(buf[:])
	cur.PutU32(eocdSignature)
	cur.PutU16(0) // disk number
	cur.PutU16(0) // central directory start disk
	cur.PutU16(uint16(len(w.dir)))
	cur.PutU16(uint16(len(w.dir)))
	cur.PutU32(cdSize)
	cur.PutU32(cdOffset)
	cur.PutU16(0) // comment length
	_, err := w.cw.Write(buf[:])
	return err
}

// entryWriter streams one entry's payload through CRC accounting and
// the method's transform. Compressed bytes pass through counter on
// their way to the archive; the compressor may buffer internally, so
// final sizes are read only after finish drains it.
type entryWriter struct {
	counter countingWriter
	method  Method
	fw      *flate.Writer
	release func()
	digest  crc.Digest
	uncomp  uint64
	done    bool
}

// Write implements io.Writer for the entry payload.
func (ew *entryWriter) Write(p []byte) (int, error) {
	if ew.done {
		return 0, ErrWriterClosed
	}
	ew.digest.Write(p) //nolint:errcheck // digest writes never fail
	ew.uncomp += uint64(len(p))
	if ew.method == Deflate {
		return ew.fw.Write(p)
	}
	return ew.counter.Write(p)
}

// finish drains the transform and returns the entry's final byte
// counts and checksum.
func (ew *entryWriter) finish() (compSize, uncompSize uint64, sum uint32, err error) {
	ew.done = true
	if ew.method == Deflate {
		err = ew.fw.Close()
		ew.release()
		ew.fw = nil
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return ew.counter.n, ew.uncomp, ew.digest.Sum32(), nil
}

// countingWriter counts bytes as they pass through to w. The count is
// the single source of truth for every offset recorded in the archive.
type countingWriter struct {
	w io.Writer
	n uint64
}

// Write implements io.Writer.
func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.n += uint64(n)
	}
	return n, err
}
