package zipkit

import (
	"io"
	"time"
)

// Entry describes one archive member.
//
// On the encode side only Name is required; Method defaults to Store
// and Modified to the current time. CRC32 and the two sizes are
// computed while the payload streams and need not be set. On the
// decode side every field is populated from the archive, sourced from
// the data descriptor when present, else from the central directory.
type Entry struct {
	// Name is the archive-relative path. Names are expected to be
	// unique within one archive; the codec does not enforce this.
	Name string

	// Method is the payload coding.
	Method Method

	// Modified is the entry's timestamp at 2-second DOS resolution.
	// The zero value means unknown: the decoder sets it when the
	// stored DOS fields are out of calendar range, and the encoder
	// substitutes the current time for it.
	Modified time.Time

	// CRC32 is the checksum of the uncompressed payload.
	CRC32 uint32

	// CompressedSize is the payload's size as stored in the archive.
	CompressedSize uint32

	// UncompressedSize is the payload's size after decoding.
	UncompressedSize uint32

	// Body supplies the payload on the encode side. It is consumed
	// exactly once, in full, when the entry is written. Ignored by
	// the decoder.
	Body io.Reader
}
