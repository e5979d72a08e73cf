package capture

import (
	"errors"
	"image"
	"time"
)

// Frame is one encoded image, in capture order.
type Frame struct {
	Data      []byte
	Seq       uint64
	Timestamp time.Time
}

// Len returns the encoded size in bytes.
func (f *Frame) Len() int {
	return len(f.Data)
}

// Device is a camera yielding raw images. Grab blocks until the next image
// is available. Implementations are not required to be safe for concurrent
// use; Source serializes access.
type Device interface {
	Grab() (image.Image, error)
	Close() error
}

var (
	// ErrTransient marks a single missed frame (device busy, dropped frame).
	ErrTransient = errors.New("transient capture failure")
	// ErrCameraFailed is returned once the consecutive failure bound is
	// exceeded, and for every capture after that.
	ErrCameraFailed = errors.New("camera failed")
	// ErrClosed is returned when the device sequence has ended or the
	// source was closed.
	ErrClosed = errors.New("capture source closed")
)
