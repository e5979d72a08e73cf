package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}
	return img
}

func TestJPEGEncoderQualityClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{70, 70},
		{100, 100},
		{250, 100},
	}
	for _, tt := range tests {
		if got := NewJPEGEncoder(tt.in).Quality(); got != tt.want {
			t.Errorf("NewJPEGEncoder(%d).Quality() = %d, want %d", tt.in, got, tt.want)
		}
	}

	e := NewJPEGEncoder(50)
	e.SetQuality(0)
	if e.Quality() != 1 {
		t.Errorf("SetQuality(0) -> %d, want 1", e.Quality())
	}
}

func TestJPEGEncoderProducesMarkedFrames(t *testing.T) {
	data, err := NewJPEGEncoder(DefaultQuality).Encode(testImage(64, 48))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("missing SOI marker: % x", data[:2])
	}
	if !bytes.HasSuffix(data, []byte{0xFF, 0xD9}) {
		t.Errorf("missing EOI marker: % x", data[len(data)-2:])
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("decoded size %v, want 64x48", b)
	}
}

func TestJPEGEncoderQualityAffectsSize(t *testing.T) {
	img := testImage(128, 128)
	low, err := NewJPEGEncoder(5).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	high, err := NewJPEGEncoder(95).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(low) >= len(high) {
		t.Errorf("quality 5 produced %d bytes, quality 95 produced %d", len(low), len(high))
	}
}
