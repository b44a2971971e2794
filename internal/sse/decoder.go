// Package sse decodes Server-Sent-Events frames off a live response body.
//
// The decoder is forward-only and non-restartable: it is exhausted once the
// underlying stream closes or the [DONE] sentinel is seen, whichever comes
// first. Servers are not required to emit the sentinel, so reaching EOF
// without it is a normal end of stream.
package sse

import (
	"bufio"
	"bytes"
	"io"

	"github.com/exnestai/exnest-go/internal/logging"
	"github.com/tidwall/gjson"
)

const (
	// initialBufferSize is the starting scanner buffer for one stream.
	initialBufferSize = 64 * 1024

	// maxBufferSize caps a single SSE line. Large tool-call deltas can get
	// close to a megabyte; 20MB matches what upstream gateways emit.
	maxBufferSize = 20 * 1024 * 1024
)

var (
	dataTag    = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// Decoder yields the JSON payload of each data frame in arrival order.
type Decoder struct {
	scanner *bufio.Scanner
	done    bool
	err     error
}

// NewDecoder wraps a line-oriented SSE stream.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufferSize), maxBufferSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next decoded data frame. ok is false when the stream is
// exhausted: the sentinel was seen or the connection closed. Lines without
// the data tag (comments, blank keep-alives, event names) are skipped, and a
// malformed JSON payload skips just that frame, never the whole stream.
func (d *Decoder) Next() (payload []byte, ok bool) {
	if d.done {
		return nil, false
	}
	for d.scanner.Scan() {
		line := bytes.TrimSpace(d.scanner.Bytes())
		if !bytes.HasPrefix(line, dataTag) {
			continue
		}
		data := bytes.TrimSpace(line[len(dataTag):])
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, doneMarker) {
			d.done = true
			return nil, false
		}
		if !gjson.ValidBytes(data) {
			logging.Debugf("sse: skipping malformed frame: %s", data)
			continue
		}
		return bytes.Clone(data), true
	}
	d.done = true
	d.err = d.scanner.Err()
	return nil, false
}

// Err reports a read failure on the underlying stream. It is nil after a
// clean termination, including EOF without the sentinel.
func (d *Decoder) Err() error {
	return d.err
}
