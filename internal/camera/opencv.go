package camera

import (
	"fmt"
	"image"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/junsooki/telecar/internal/capture"
)

// VideoCapture reads frames from an OpenCV capture device.
type VideoCapture struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// OpenVideoCapture opens a camera through OpenCV and applies the requested
// resolution and frame rate. The driver may silently pick the nearest mode.
func OpenVideoCapture(cfg Config) (*VideoCapture, error) {
	var device interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %q: device not opened", cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}

	return &VideoCapture{vc: vc, mat: gocv.NewMat()}, nil
}

// Grab reads the next frame. An empty read is reported as a transient miss.
func (c *VideoCapture) Grab() (image.Image, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, capture.ErrTransient
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: convert frame: %v", capture.ErrTransient, err)
	}
	return img, nil
}

func (c *VideoCapture) Close() error {
	if err := c.mat.Close(); err != nil {
		c.vc.Close()
		return err
	}
	return c.vc.Close()
}
