package sse

import (
	"errors"
	"strings"
	"testing"
)

func collect(t *testing.T, input string) []string {
	t.Helper()
	dec := NewDecoder(strings.NewReader(input))
	var frames []string
	for {
		payload, ok := dec.Next()
		if !ok {
			break
		}
		frames = append(frames, string(payload))
	}
	if err := dec.Err(); err != nil {
		t.Fatalf("unexpected decoder error: %v", err)
	}
	return frames
}

func TestSingleEventThenSentinel(t *testing.T) {
	frames := collect(t, "data: {\"a\":1}\n\ndata: [DONE]\n")
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d: %v", len(frames), frames)
	}
	if frames[0] != `{"a":1}` {
		t.Errorf("frame = %s, want %s", frames[0], `{"a":1}`)
	}
}

func TestMalformedFrameSkipped(t *testing.T) {
	frames := collect(t, "data: not-json\ndata: {\"a\":2}\n")
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d: %v", len(frames), frames)
	}
	if frames[0] != `{"a":2}` {
		t.Errorf("frame = %s, want %s", frames[0], `{"a":2}`)
	}
}

func TestNonDataLinesIgnored(t *testing.T) {
	input := ": keep-alive\n" +
		"event: message\n" +
		"\n" +
		"data: {\"b\":true}\n" +
		"id: 7\n"
	frames := collect(t, input)
	if len(frames) != 1 || frames[0] != `{"b":true}` {
		t.Errorf("frames = %v, want single {\"b\":true}", frames)
	}
}

func TestEOFWithoutSentinelIsClean(t *testing.T) {
	frames := collect(t, "data: {\"a\":1}\ndata: {\"a\":2}\n")
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
}

func TestNothingAfterSentinel(t *testing.T) {
	dec := NewDecoder(strings.NewReader("data: [DONE]\ndata: {\"a\":1}\n"))
	if payload, ok := dec.Next(); ok {
		t.Fatalf("expected exhausted decoder, got frame %s", payload)
	}
	// Exhausted decoders stay exhausted.
	if _, ok := dec.Next(); ok {
		t.Error("decoder produced a frame after termination")
	}
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestReadErrorSurfacedViaErr(t *testing.T) {
	dec := NewDecoder(&failingReader{data: "data: {\"a\":1}\n"})
	payload, ok := dec.Next()
	if !ok || string(payload) != `{"a":1}` {
		t.Fatalf("expected first frame, got ok=%v payload=%s", ok, payload)
	}
	if _, ok := dec.Next(); ok {
		t.Fatal("expected exhaustion after read error")
	}
	if dec.Err() == nil {
		t.Error("expected Err() to report the read failure")
	}
}
