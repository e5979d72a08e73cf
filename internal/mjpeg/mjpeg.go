// Package mjpeg implements the multipart JPEG wire framing shared by the
// stream server and client.
package mjpeg

import (
	"bytes"
	"io"
)

const (
	Boundary        = "frame"
	ContentType     = "multipart/x-mixed-replace; boundary=" + Boundary
	PartContentType = "image/jpeg"
)

var (
	// SOI and EOI are the JPEG start and end of image markers.
	SOI = []byte{0xFF, 0xD8}
	EOI = []byte{0xFF, 0xD9}

	partHeader = []byte("--" + Boundary + "\r\nContent-Type: " + PartContentType + "\r\n\r\n")
	crlf       = []byte("\r\n")
)

// WritePart writes one frame as a multipart part:
//
//	--frame\r\nContent-Type: image/jpeg\r\n\r\n<frame>\r\n
func WritePart(w io.Writer, frame []byte) error {
	if _, err := w.Write(partHeader); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}

// AppendPart appends the wire form of frame to dst.
func AppendPart(dst, frame []byte) []byte {
	dst = append(dst, partHeader...)
	dst = append(dst, frame...)
	return append(dst, crlf...)
}

// IsJPEG reports whether data is bracketed by the SOI and EOI markers.
func IsJPEG(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, SOI) && bytes.HasSuffix(data, EOI)
}
