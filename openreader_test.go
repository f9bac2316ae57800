package zipkit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zipkit"
)

func TestOpenReader(t *testing.T) {
	data := encode(t, []testEntry{
		{name: "on/disk", content: []byte("file-backed"), method: zipkit.Deflate},
	})
	path := filepath.Join(t.TempDir(), "test.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	rc, err := zipkit.OpenReader(path)
	require.NoError(t, err)
	defer rc.Close()

	require.Equal(t, 1, rc.Len())
	f := rc.Files()[0]
	assert.Equal(t, "on/disk", f.Name)
	assert.Equal(t, []byte("file-backed"), readAll(t, f))
}

func TestOpenReaderMissingFile(t *testing.T) {
	_, err := zipkit.OpenReader(filepath.Join(t.TempDir(), "absent.zip"))
	assert.Error(t, err)
}

func TestOpenReaderNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a zip at all, not even close"), 0o644))

	_, err := zipkit.OpenReader(path)
	assert.ErrorIs(t, err, zipkit.ErrFormat)
}
