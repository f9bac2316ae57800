// Package http provides a zipkit.ByteSource backed by HTTP range
// requests, so remote archives can be decoded without downloading them.
package http

import (
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
)

// Source implements random-access reads against a remote URL via HTTP
// range requests. Every read carries an explicit byte range, so reads
// are independent and safe to issue concurrently.
//
// The remote content is pinned at creation time: when the server
// reports an ETag or Last-Modified, later reads send If-Match and
// If-Unmodified-Since so a changed remote fails the read instead of
// corrupting the decode.
type Source struct {
	url          string
	client       *nethttp.Client
	headers      nethttp.Header
	size         int64
	etag         string
	lastModified string
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests. The default is
// http.DefaultClient.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHeader adds a header to every request, e.g. for authorization.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// NewSource probes url with a one-byte range request to learn the
// content size and confirm the server honors ranges, then returns a
// Source over it.
func NewSource(url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.probe(); err != nil {
		return nil, err
	}
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// ReadAt implements io.ReaderAt using one range request per call.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("http source: negative offset %d", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	want := len(p)
	if end >= s.size {
		end = s.size - 1
		want = int(end - off + 1)
	}

	resp, err := s.get(fmt.Sprintf("bytes=%d-%d", off, end), true)
	if err != nil {
		return 0, err
	}
	defer drainClose(resp.Body)

	if err := checkRangeStatus(resp); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// probe issues a bytes=0-0 request and derives the content size from
// the Content-Range header.
func (s *Source) probe() error {
	resp, err := s.get("bytes=0-0", false)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if err := checkRangeStatus(resp); err != nil {
		return fmt.Errorf("http source probe: %w", err)
	}

	size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return fmt.Errorf("http source probe: %w", err)
	}
	s.size = size
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	return nil
}

// get issues a GET with the given Range header. Conditional headers
// are attached once the probe has pinned the content.
func (s *Source) get(byteRange string, conditional bool) (*nethttp.Response, error) {
	req, err := nethttp.NewRequest(nethttp.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Range", byteRange)
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if conditional {
		if s.etag != "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return s.client.Do(req)
}

// checkRangeStatus validates the response to a ranged GET.
func checkRangeStatus(resp *nethttp.Response) error {
	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		return nil
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return io.EOF
	case nethttp.StatusOK:
		return errors.New("server does not support range requests")
	case nethttp.StatusPreconditionFailed:
		return errors.New("remote content changed while reading")
	default:
		return fmt.Errorf("range request failed: %s", resp.Status)
	}
}

// drainClose consumes the remainder of a response body before closing
// so the connection can be reused.
func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// parseContentRange extracts the complete length from a Content-Range
// value such as "bytes 0-0/1234".
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
