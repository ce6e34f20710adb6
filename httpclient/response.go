package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Response wraps an *http.Response, exposing the header fields the
// planner and fetcher care about plus transparent Content-Encoding
// decompression for Text.
type Response struct {
	raw *http.Response
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.raw.StatusCode
}

// Body returns the raw, still-compressed response body for callers
// that stream bytes directly to a Positional Writer (the fetcher does
// this; segment bytes are written as-is, matching the origin's
// Content-Length accounting, not re-decoded).
func (r *Response) Body() io.ReadCloser {
	return r.raw.Body
}

// Close releases the underlying connection.
func (r *Response) Close() error {
	return r.raw.Body.Close()
}

func (r *Response) header(name string) (string, bool) {
	v := r.raw.Header.Get(name)
	return v, v != ""
}

// AcceptRanges reports the Accept-Ranges header, if present.
func (r *Response) AcceptRanges() (string, bool) {
	return r.header("Accept-Ranges")
}

// ContentDisposition reports the Content-Disposition header, if present.
func (r *Response) ContentDisposition() (string, bool) {
	return r.header("Content-Disposition")
}

// ContentType reports the Content-Type header, if present.
func (r *Response) ContentType() (string, bool) {
	return r.header("Content-Type")
}

// ContentLength reports the parsed Content-Length header. The second
// return value is false when the header is absent or unparsable.
func (r *Response) ContentLength() (int64, bool) {
	v, ok := r.header("Content-Length")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Text reads the full body, transparently decompressing it according
// to Content-Encoding (gzip, deflate, br, zstd). Used for playlist and
// manifest bodies, never for segment bytes.
func (r *Response) Text(ctx context.Context) (string, error) {
	defer r.raw.Body.Close()

	reader, err := decodingReader(r.raw.Body, r.raw.Header.Get("Content-Encoding"))
	if err != nil {
		return "", err
	}
	if closer, ok := reader.(io.Closer); ok && reader != io.Reader(r.raw.Body) {
		defer closer.Close()
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("httpclient: read body: %w", err)
	}
	return string(data), nil
}

// decodingReader wraps body in the decompressor named by encoding. An
// unrecognized or empty encoding passes the body through unchanged,
// matching the source's Unknown fallback.
func decodingReader(body io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(body)
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return brotli.NewReader(body), nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return body, nil
	}
}
