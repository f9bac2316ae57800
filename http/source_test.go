package http_test

import (
	"bytes"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meigma/zipkit"
	ziphttp "github.com/meigma/zipkit/http"
)

func serveBytes(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "archive.zip", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSourceReadAt(t *testing.T) {
	data := []byte("hello ranged world")
	server := serveBytes(t, data)

	src, err := ziphttp.NewSource(server.URL)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if src.Size() != int64(len(data)) {
		t.Fatalf("Size() = %d, want %d", src.Size(), len(data))
	}

	buf := make([]byte, 6)
	n, err := src.ReadAt(buf, 6)
	if err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if n != len(buf) || string(buf) != "ranged" {
		t.Fatalf("ReadAt() = %d %q, want 6 %q", n, buf, "ranged")
	}

	edge := make([]byte, 10)
	n, err = src.ReadAt(edge, int64(len(data)-5))
	if err != io.EOF {
		t.Fatalf("ReadAt() past end error = %v, want io.EOF", err)
	}
	if string(edge[:n]) != "world" {
		t.Fatalf("ReadAt() past end = %q, want %q", edge[:n], "world")
	}

	if _, err := src.ReadAt(buf, int64(len(data))); err != io.EOF {
		t.Fatalf("ReadAt() at end error = %v, want io.EOF", err)
	}
}

func TestSourceRangeUnsupported(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte("no ranges here"))
	}))
	t.Cleanup(server.Close)

	if _, err := ziphttp.NewSource(server.URL); err == nil {
		t.Fatal("expected error for a server without range support")
	}
}

func TestSourceSendsHeaders(t *testing.T) {
	data := []byte("authorized content")
	var sawAuth bool
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Header.Get("Authorization") == "Bearer token" {
			sawAuth = true
		}
		nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	src, err := ziphttp.NewSource(server.URL, ziphttp.WithHeader("Authorization", "Bearer token"))
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if !sawAuth {
		t.Fatal("probe did not send the configured header")
	}
	if _, err := src.ReadAt(make([]byte, 4), 0); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
}

func TestSourceDecodesArchive(t *testing.T) {
	var archive bytes.Buffer
	w := zipkit.NewWriter(&archive)
	if err := w.WriteEntry(&zipkit.Entry{
		Name:   "remote.txt",
		Method: zipkit.Deflate,
		Body:   bytes.NewReader(bytes.Repeat([]byte("over the wire "), 1024)),
	}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	server := serveBytes(t, archive.Bytes())
	src, err := ziphttp.NewSource(server.URL)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	r, err := zipkit.NewReader(src)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	rc, err := r.Files()[0].Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := bytes.Repeat([]byte("over the wire "), 1024); !bytes.Equal(content, want) {
		t.Fatalf("decoded %d bytes, want %d", len(content), len(want))
	}
}
