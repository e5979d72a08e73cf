package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/junsooki/telecar/internal/mjpeg"
)

// DefaultMaxPixels admits frames up to 1920x1080.
const DefaultMaxPixels = 1920 * 1080

// JPEGDecoder decodes camera frames. The header is checked before the body
// is decoded so a corrupt size field cannot trigger a huge allocation.
type JPEGDecoder struct {
	MaxPixels int
}

func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{MaxPixels: DefaultMaxPixels}
}

func (d *JPEGDecoder) Decode(frame []byte) (*image.RGBA, error) {
	if !mjpeg.IsJPEG(frame) {
		return nil, ErrNotJPEG
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("jpeg header: %w", err)
	}
	if limit := d.MaxPixels; limit > 0 && cfg.Width*cfg.Height > limit {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("jpeg body: %w", err)
	}
	return toRGBA(img), nil
}

// toRGBA copies img into an RGBA image anchored at the origin, the layout
// ebiten's WritePixels expects. Camera frames decode as YCbCr.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
