// Package crc implements the CRC-32 checksum used by the ZIP format
// (reflected polynomial 0xEDB88320, IEEE 802.3).
//
// The running value exposed by Sum32 is always in finalized form, so a
// checksum can be sampled mid-stream without double-finalizing.
package crc

// poly is the reflected form of the IEEE CRC-32 polynomial.
const poly = 0xEDB88320

var table = makeTable()

func makeTable() [256]uint32 {
	var t [256]uint32
	for i := range t {
		v := uint32(i)
		for range 8 {
			if v&1 != 0 {
				v = poly ^ (v >> 1)
			} else {
				v >>= 1
			}
		}
		t[i] = v
	}
	return t
}

// Digest computes a CRC-32 incrementally. The zero value is ready to use.
type Digest struct {
	acc uint32
}

// New returns a Digest with no bytes consumed.
func New() *Digest {
	return &Digest{}
}

// Write folds p into the running checksum. It implements io.Writer and
// never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	acc := ^d.acc
	for _, b := range p {
		acc = table[byte(acc)^b] ^ (acc >> 8)
	}
	d.acc = ^acc
	return len(p), nil
}

// Sum32 returns the finalized checksum of the bytes written so far.
func (d *Digest) Sum32() uint32 {
	return d.acc
}

// Reset discards all written bytes.
func (d *Digest) Reset() {
	d.acc = 0
}

// Checksum returns the CRC-32 of p.
func Checksum(p []byte) uint32 {
	var d Digest
	d.Write(p) //nolint:errcheck // Write never fails
	return d.Sum32()
}
