package mjpeg

import "bytes"

// DefaultMaxFrameSize bounds the bytes buffered for one unfinished frame.
const DefaultMaxFrameSize = 8 << 20

// Scanner reassembles JPEG frames from an arbitrarily chunked byte stream
// by locating SOI and EOI markers. Bytes outside a frame (multipart headers,
// boundaries, garbage) are discarded. A frame is only returned once its EOI
// has arrived, so results do not depend on how the stream was chunked.
type Scanner struct {
	buf     []byte
	maxSize int
	dropped int
}

// NewScanner creates a Scanner. maxFrameSize <= 0 selects DefaultMaxFrameSize.
func NewScanner(maxFrameSize int) *Scanner {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Scanner{maxSize: maxFrameSize}
}

// Write appends stream bytes. It never fails.
func (s *Scanner) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Next returns the next complete frame, or false if none is buffered yet.
// The returned slice is a copy owned by the caller.
func (s *Scanner) Next() ([]byte, bool) {
	start := bytes.Index(s.buf, SOI)
	if start < 0 {
		// Keep a trailing 0xFF: it may be the first half of a split SOI.
		if n := len(s.buf); n > 0 && s.buf[n-1] == SOI[0] {
			s.discard(n - 1)
		} else {
			s.discard(n)
		}
		return nil, false
	}
	s.discard(start)

	end := bytes.Index(s.buf[len(SOI):], EOI)
	if end < 0 {
		if len(s.buf) > s.maxSize {
			// Oversized or unterminated frame: give up on it and resync
			// on the next SOI.
			s.discard(len(SOI))
			s.dropped++
		}
		return nil, false
	}

	stop := len(SOI) + end + len(EOI)
	frame := make([]byte, stop)
	copy(frame, s.buf[:stop])
	s.discard(stop)
	return frame, true
}

// Buffered returns the number of bytes held for an unfinished frame.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Dropped returns how many unterminated frames were abandoned for exceeding
// the size bound.
func (s *Scanner) Dropped() int {
	return s.dropped
}

func (s *Scanner) discard(n int) {
	if n <= 0 {
		return
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
}
