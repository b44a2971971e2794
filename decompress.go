package exnest

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// acceptedEncodings is advertised on buffered requests. Streaming requests
// stay identity-encoded so the SSE scanner reads the wire directly.
const acceptedEncodings = "gzip, deflate, br, zstd"

// zstdDecoderPool reuses zstd decoders, which are expensive to create.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, _ := zstd.NewReader(nil)
		return decoder
	},
}

type pooledZstdReader struct {
	decoder *zstd.Decoder
	body    io.ReadCloser
}

func (p *pooledZstdReader) Read(b []byte) (int, error) {
	return p.decoder.Read(b)
}

func (p *pooledZstdReader) Close() error {
	p.decoder.Reset(nil)
	zstdDecoderPool.Put(p.decoder)
	return p.body.Close()
}

type wrappedReader struct {
	io.Reader
	closers []func() error
}

func (w *wrappedReader) Close() error {
	var firstErr error
	for _, close := range w.closers {
		if close == nil {
			continue
		}
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// decodeResponseBody wraps body with the decompressor matching the
// Content-Encoding header. An empty or identity encoding returns the body
// unchanged.
func decodeResponseBody(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	if body == nil {
		return nil, fmt.Errorf("response body is nil")
	}
	if contentEncoding == "" {
		return body, nil
	}
	for _, raw := range strings.Split(contentEncoding, ",") {
		switch strings.TrimSpace(strings.ToLower(raw)) {
		case "", "identity":
			continue
		case "gzip":
			gr, err := gzip.NewReader(body)
			if err != nil {
				_ = body.Close()
				return nil, fmt.Errorf("gzip reader: %w", err)
			}
			return &wrappedReader{
				Reader:  gr,
				closers: []func() error{gr.Close, body.Close},
			}, nil
		case "deflate":
			fr := flate.NewReader(body)
			return &wrappedReader{
				Reader:  fr,
				closers: []func() error{fr.Close, body.Close},
			}, nil
		case "br":
			return &wrappedReader{
				Reader:  brotli.NewReader(body),
				closers: []func() error{body.Close},
			}, nil
		case "zstd":
			decoder := zstdDecoderPool.Get().(*zstd.Decoder)
			if err := decoder.Reset(body); err != nil {
				zstdDecoderPool.Put(decoder)
				_ = body.Close()
				return nil, fmt.Errorf("zstd reader: %w", err)
			}
			return &pooledZstdReader{decoder: decoder, body: body}, nil
		default:
			continue
		}
	}
	return body, nil
}
