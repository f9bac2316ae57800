package crc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meigma/zipkit/internal/crc"
)

func TestChecksumVectors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint32
	}{
		{name: "check value", input: []byte("123456789"), want: 0xCBF43926},
		{name: "empty", input: nil, want: 0x00000000},
		{name: "single byte", input: []byte{'a'}, want: 0xE8B7BE43},
		{name: "all zeros", input: make([]byte, 32), want: 0x190A55AD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, crc.Checksum(tt.input))
		})
	}
}

func TestDigestIncremental(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog")

	d := crc.New()
	for _, b := range input {
		_, err := d.Write([]byte{b})
		assert.NoError(t, err)
	}
	assert.Equal(t, crc.Checksum(input), d.Sum32(), "byte-at-a-time must match batch")
}

func TestDigestMidStreamSample(t *testing.T) {
	d := crc.New()
	_, _ = d.Write([]byte("12345"))
	assert.Equal(t, crc.Checksum([]byte("12345")), d.Sum32())

	// Sampling must not disturb the running state.
	_, _ = d.Write([]byte("6789"))
	assert.Equal(t, uint32(0xCBF43926), d.Sum32())
}

func TestDigestReset(t *testing.T) {
	d := crc.New()
	_, _ = d.Write([]byte("garbage"))
	d.Reset()
	assert.Equal(t, uint32(0), d.Sum32())

	_, _ = d.Write([]byte("123456789"))
	assert.Equal(t, uint32(0xCBF43926), d.Sum32())
}
