package zipkit_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zipkit"
)

type testEntry struct {
	name    string
	content []byte
	method  zipkit.Method
}

// encode builds an archive from entries using WriteEntry.
func encode(t *testing.T, entries []testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zipkit.NewWriter(&buf)
	for _, e := range entries {
		err := w.WriteEntry(&zipkit.Entry{
			Name:   e.name,
			Method: e.method,
			Body:   bytes.NewReader(e.content),
		})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func readAll(t *testing.T, f *zipkit.File) []byte {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	return content
}

func TestRoundTrip(t *testing.T) {
	entries := []testEntry{
		{name: "a.txt", content: []byte("alpha"), method: zipkit.Store},
		{name: "dir/b.bin", content: bytes.Repeat([]byte{0xAB, 0xCD}, 4096), method: zipkit.Deflate},
		{name: "c", content: []byte("gamma gamma gamma"), method: zipkit.Deflate},
	}

	r, err := zipkit.NewReader(bytes.NewReader(encode(t, entries)))
	require.NoError(t, err)
	require.Equal(t, len(entries), r.Len())

	for i, want := range entries {
		f := r.Files()[i]
		assert.Equal(t, want.name, f.Name, "order must match encode order")
		assert.Equal(t, want.method, f.Method)
		assert.Equal(t, want.content, readAll(t, f))
		assert.EqualValues(t, len(want.content), f.UncompressedSize)
	}
}

func TestRoundTripEmptyEntry(t *testing.T) {
	data := encode(t, []testEntry{{name: "empty", method: zipkit.Store}})

	r, err := zipkit.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	f := r.Files()[0]
	assert.Empty(t, readAll(t, f))
	assert.Equal(t, uint32(0), f.CRC32)
	assert.Equal(t, uint32(0), f.UncompressedSize)
}

func TestRoundTripMixedMethods(t *testing.T) {
	stored := []byte("stored bytes, left alone")
	deflated := bytes.Repeat([]byte("squeeze "), 1000)
	data := encode(t, []testEntry{
		{name: "plain", content: stored, method: zipkit.Store},
		{name: "packed", content: deflated, method: zipkit.Deflate},
	})

	r, err := zipkit.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	// Decode in reverse order to confirm entries are independent.
	assert.Equal(t, deflated, readAll(t, r.Files()[1]))
	assert.Equal(t, stored, readAll(t, r.Files()[0]))
}

func TestRoundTripModified(t *testing.T) {
	stamp := time.Date(2023, time.March, 9, 8, 30, 14, 0, time.UTC)
	var buf bytes.Buffer
	w := zipkit.NewWriter(&buf)
	_, err := w.Create("dated", zipkit.CreateWithModified(stamp))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := zipkit.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, r.Files()[0].Modified.Equal(stamp))
}

func TestLargePayloadStreams(t *testing.T) {
	content := make([]byte, 8<<20)
	rnd := rand.New(rand.NewSource(1))
	_, _ = rnd.Read(content)

	data := encode(t, []testEntry{{name: "big", content: content, method: zipkit.Deflate}})

	r, err := zipkit.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	rc, err := r.Files()[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	// Consume in bounded chunks; a multi-megabyte payload must arrive
	// across many reads, not one.
	var got bytes.Buffer
	chunk := make([]byte, 64<<10)
	reads := 0
	for {
		n, err := rc.Read(chunk)
		got.Write(chunk[:n])
		if n > 0 {
			reads++
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Greater(t, reads, 1)
	assert.Equal(t, content, got.Bytes())
}

func TestOpenByName(t *testing.T) {
	data := encode(t, []testEntry{
		{name: "one", content: []byte("1"), method: zipkit.Store},
		{name: "two", content: []byte("2"), method: zipkit.Store},
	})

	r, err := zipkit.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	rc, found, err := r.Open("two")
	require.NoError(t, err)
	require.True(t, found)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("2"), content)

	_, found, err = r.Open("missing")
	require.NoError(t, err)
	assert.False(t, found)
}
