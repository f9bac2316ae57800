package zipkit

// Method identifies how an entry's payload is coded.
//
// Only Store and Deflate are supported. Archives may contain entries
// with other methods; those enumerate fine but opening their payload
// returns ErrUnsupportedMethod.
type Method uint16

const (
	// Store leaves the payload uncoded.
	Store Method = 0

	// Deflate codes the payload as a raw, headerless deflate stream.
	Deflate Method = 8
)

// String returns the human-readable name of the method.
func (m Method) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	default:
		return "unknown"
	}
}

// supported reports whether the codec can transform payloads for m.
func (m Method) supported() bool {
	return m == Store || m == Deflate
}
