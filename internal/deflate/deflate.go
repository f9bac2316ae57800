// Package deflate provides pooled raw-deflate compressors and
// decompressors for archive payload transforms.
//
// Streams are headerless deflate as required by the ZIP format, not
// zlib-wrapped.
package deflate

import (
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// WriterPool reuses flate writers across entries to avoid repeated
// allocation of their internal compression state.
type WriterPool struct {
	level int
	pool  sync.Pool
}

// NewWriterPool creates a pool producing writers at the given
// compression level.
func NewWriterPool(level int) *WriterPool {
	return &WriterPool{level: level}
}

// Get returns a flate writer emitting to w and a release function that
// must be called after the writer has been closed.
func (p *WriterPool) Get(w io.Writer) (*flate.Writer, func(), error) {
	if fw, ok := p.pool.Get().(*flate.Writer); ok {
		fw.Reset(w)
		return fw, func() { p.pool.Put(fw) }, nil
	}
	fw, err := flate.NewWriter(w, p.level)
	if err != nil {
		return nil, nil, err
	}
	return fw, func() { p.pool.Put(fw) }, nil
}

// ReaderPool reuses flate readers across payload opens.
type ReaderPool struct {
	pool sync.Pool
}

// NewReaderPool creates an empty reader pool.
func NewReaderPool() *ReaderPool {
	return &ReaderPool{}
}

// Get returns a decompressing reader over r. Closing the returned
// reader checks the stream for truncation and returns it to the pool.
func (p *ReaderPool) Get(r io.Reader) io.ReadCloser {
	if fr, ok := p.pool.Get().(io.ReadCloser); ok {
		// Readers stored in the pool always support Resetter.
		_ = fr.(flate.Resetter).Reset(r, nil) //nolint:errcheck // reset with nil dict never fails
		return &pooledReader{fr: fr, pool: &p.pool}
	}
	return &pooledReader{fr: flate.NewReader(r), pool: &p.pool}
}

type pooledReader struct {
	fr   io.ReadCloser
	pool *sync.Pool
}

func (r *pooledReader) Read(p []byte) (int, error) {
	if r.fr == nil {
		return 0, io.ErrClosedPipe
	}
	return r.fr.Read(p)
}

func (r *pooledReader) Close() error {
	if r.fr == nil {
		return nil
	}
	err := r.fr.Close()
	r.pool.Put(r.fr)
	r.fr = nil
	return err
}
