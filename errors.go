package zipkit

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrFormat is returned when the input is not a valid ZIP archive.
	// Errors wrapping ErrFormat name the structure and byte offset
	// where parsing failed.
	ErrFormat = errors.New("zipkit: invalid archive")

	// ErrUnsupportedMethod is returned when an entry uses a
	// compression method other than Store or Deflate. It is raised
	// when the entry's payload is opened, not while enumerating.
	ErrUnsupportedMethod = errors.New("zipkit: unsupported compression method")

	// ErrChecksum is returned when a decoded payload does not match
	// the CRC-32 or uncompressed size recorded in the archive.
	ErrChecksum = errors.New("zipkit: checksum mismatch")

	// ErrWriterClosed is returned when a Writer is used after Close.
	ErrWriterClosed = errors.New("zipkit: writer is closed")

	// ErrTooManyEntries is returned when an archive would exceed the
	// 65535-entry limit of the base ZIP format.
	ErrTooManyEntries = errors.New("zipkit: too many entries")

	// ErrSizeOverflow is returned when a size or offset would exceed
	// the 4 GiB limit of the base ZIP format (ZIP64 is not supported).
	ErrSizeOverflow = errors.New("zipkit: size exceeds 4 GiB limit")
)

// FormatError describes a structural defect in an archive. It wraps
// ErrFormat so callers can match with errors.Is.
type FormatError struct {
	// Structure names the record being parsed, e.g. "local file header".
	Structure string

	// Offset is the byte position in the source where the defect was found.
	Offset int64

	// Path is the entry name the record belongs to, when known.
	Path string

	// Detail describes the defect.
	Detail string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("zipkit: %s for %q at offset %d: %s", e.Structure, e.Path, e.Offset, e.Detail)
	}
	return fmt.Sprintf("zipkit: %s at offset %d: %s", e.Structure, e.Offset, e.Detail)
}

// Unwrap reports that every FormatError is an ErrFormat.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// badSignature builds a FormatError for a signature mismatch.
func badSignature(structure string, offset int64, path string, got uint32) *FormatError {
	return &FormatError{
		Structure: structure,
		Offset:    offset,
		Path:      path,
		Detail:    fmt.Sprintf("bad signature 0x%08x", got),
	}
}
