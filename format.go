package zipkit

// Record signatures, little-endian on the wire.
const (
	localHeaderSignature    = 0x04034b50
	dataDescriptorSignature = 0x08074b50
	centralDirSignature     = 0x02014b50
	eocdSignature           = 0x06054b50
)

// Fixed record sizes, excluding variable-length name/extra/comment fields.
const (
	localHeaderLen    = 30
	dataDescriptorLen = 16 // includes the de-facto standard signature
	centralDirLen     = 46
	eocdLen           = 22
)

const (
	// flagDataDescriptor is general-purpose bit 3: CRC and sizes are
	// zero in the local header and follow the payload in a data
	// descriptor.
	flagDataDescriptor = 0x0008

	// versionNeeded is 2.0, the minimum for deflate support.
	versionNeeded = 20

	// maxComment bounds the backward EOCD scan: the comment field is
	// at most 65535 bytes, so the EOCD signature starts no earlier
	// than eocdLen+maxComment bytes from the end.
	maxComment = 65535

	// maxEntries is the entry count limit of the base format.
	maxEntries = 65535

	// maxNameLen is the entry name limit: the header length field is
	// 16 bits.
	maxNameLen = 65535

	// maxUint32 is the size and offset limit of the base format.
	maxUint32 = 0xFFFFFFFF
)
