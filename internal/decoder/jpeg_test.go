package decoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestJPEGDecoderDecode(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			src.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}

	img, err := NewJPEGDecoder().Decode(encode(t, src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 < 150 || g>>8 > 90 || b>>8 > 90 {
		t.Errorf("pixel (5,5) = %d,%d,%d; want reddish", r>>8, g>>8, b>>8)
	}
}

func TestJPEGDecoderRejectsCorruptData(t *testing.T) {
	corrupt := []byte{0xFF, 0xD8, 0x00, 0x01, 0x02, 0xFF, 0xD9}
	if _, err := NewJPEGDecoder().Decode(corrupt); err == nil {
		t.Error("expected error for corrupt frame")
	}
}

func TestJPEGDecoderRejectsNonJPEG(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("--frame\r\n"), {0xFF, 0xD8, 0x01, 0x02}} {
		if _, err := NewJPEGDecoder().Decode(data); !errors.Is(err, ErrNotJPEG) {
			t.Errorf("Decode(% x) = %v, want ErrNotJPEG", data, err)
		}
	}
}

func TestJPEGDecoderEnforcesPixelLimit(t *testing.T) {
	frame := encode(t, image.NewGray(image.Rect(0, 0, 64, 48)))

	d := &JPEGDecoder{MaxPixels: 64*48 - 1}
	if _, err := d.Decode(frame); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Decode over limit = %v, want ErrTooLarge", err)
	}

	d.MaxPixels = 64 * 48
	img, err := d.Decode(frame)
	if err != nil {
		t.Fatalf("Decode at limit: %v", err)
	}
	if img.Rect.Min != (image.Point{}) || len(img.Pix) != 64*48*4 {
		t.Errorf("rgba rect %v, %d bytes", img.Rect, len(img.Pix))
	}
}
