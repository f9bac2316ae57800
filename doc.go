// Package zipkit is a streaming codec for the ZIP container format.
//
// The encoder ([Writer]) turns a sequence of named byte streams into a
// valid archive in one forward pass, deferring per-entry CRC and sizes
// to a data descriptor so nothing needs buffering beyond one chunk.
// The decoder ([Reader]) walks an archive through a random-access
// [ByteSource] and exposes each entry's payload as a lazily-decoded
// stream.
//
// # Encoding
//
//	w := zipkit.NewWriter(out)
//	ew, err := w.Create("notes/today.txt", zipkit.CreateWithMethod(zipkit.Deflate))
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(ew, src); err != nil {
//	    return err
//	}
//	if err := w.Close(); err != nil {
//	    return err
//	}
//
// # Decoding
//
//	r, err := zipkit.NewReader(src)
//	if err != nil {
//	    return err
//	}
//	for _, f := range r.Files() {
//	    rc, err := f.Open()
//	    ...
//	}
//
// Any type implementing io.ReaderAt with a known size works as a
// source: *bytes.Reader and *io.SectionReader satisfy [ByteSource]
// directly, [OpenReader] wraps a local file, and the http subpackage
// reads remote archives through HTTP range requests. Reads carry
// explicit offsets, so payloads of different entries may be consumed
// concurrently.
//
// ZIP64, encryption, and multi-disk archives are not supported;
// parsing fails with [ErrFormat] or [ErrUnsupportedMethod] rather than
// guessing.
package zipkit
