// Package decoder turns frames received from the vehicle into pixels the
// display can upload.
package decoder

import (
	"errors"
	"image"
)

var (
	// ErrNotJPEG is returned for data not bracketed by JPEG SOI/EOI markers.
	ErrNotJPEG = errors.New("not a jpeg frame")
	// ErrTooLarge is returned when the frame header declares more pixels
	// than the decoder accepts.
	ErrTooLarge = errors.New("frame too large")
)

// Decoder converts one encoded frame to RGBA.
type Decoder interface {
	Decode(frame []byte) (*image.RGBA, error)
}
