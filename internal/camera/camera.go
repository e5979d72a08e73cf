// Package camera opens the capture device used by the host.
package camera

import (
	"strings"

	"github.com/junsooki/telecar/internal/capture"
)

// PatternDevice selects the built-in synthetic test pattern.
const PatternDevice = "pattern"

// Config describes the device to open.
type Config struct {
	// Device is a V4L index ("0"), a device path ("/dev/video2"), a stream
	// URL, or PatternDevice.
	Device string
	Width  int
	Height int
	FPS    int
}

// Open opens the configured device. The returned device is owned by the
// caller, normally handed straight to capture.NewSource.
func Open(cfg Config) (capture.Device, error) {
	if strings.EqualFold(cfg.Device, PatternDevice) {
		return capture.NewPattern(cfg.Width, cfg.Height, cfg.FPS), nil
	}
	return OpenVideoCapture(cfg)
}
