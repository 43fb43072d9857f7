package fetch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

const acceptEncoding = "gzip, deflate, br"

// decompressTransport advertises gzip/deflate/br and transparently decodes the response body.
// The returned response has Content-Encoding removed and Uncompressed set, like net/http's own gzip handling.
type decompressTransport struct {
	base http.RoundTripper
}

func (t *decompressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" || req.Method == http.MethodHead {
		return resp, nil
	}

	body, err := newDecodedBody(encoding, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s body: %w", utils.ErrResponseBodyRead, encoding, err)
	}
	if body == nil { // unknown encoding, hand it through untouched
		return resp, nil
	}

	resp.Body = body
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// CloseIdleConnections forwards to the wrapped transport.
func (t *decompressTransport) CloseIdleConnections() {
	closeIdle(t.base)
}

// decodedBody reads from a decompressor and closes both it and the raw body.
type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// newDecodedBody wraps raw in the decoder for encoding. It returns (nil, nil) for encodings it does not know.
func newDecodedBody(encoding string, raw io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(raw)
		if errors.Is(err, io.EOF) {
			return emptyBody(raw), nil
		}
		if err != nil {
			return nil, err
		}
		return &decodedBody{Reader: gz, closers: []io.Closer{gz, raw}}, nil

	case "deflate":
		// RFC 9110 deflate is zlib-wrapped, but enough servers send raw DEFLATE that both must work
		br := bufio.NewReader(raw)
		header, err := br.Peek(2)
		if errors.Is(err, io.EOF) && len(header) == 0 {
			return emptyBody(raw), nil
		}
		if isZlibHeader(header) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, err
			}
			return &decodedBody{Reader: zr, closers: []io.Closer{zr, raw}}, nil
		}
		fr := flate.NewReader(br)
		return &decodedBody{Reader: fr, closers: []io.Closer{fr, raw}}, nil

	case "br":
		return &decodedBody{Reader: brotli.NewReader(raw), closers: []io.Closer{raw}}, nil
	}
	return nil, nil
}

func isZlibHeader(h []byte) bool {
	if len(h) < 2 {
		return false
	}
	return h[0]&0x0F == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}

func emptyBody(raw io.ReadCloser) io.ReadCloser {
	return &decodedBody{Reader: strings.NewReader(""), closers: []io.Closer{raw}}
}
