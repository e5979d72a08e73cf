package capture

import (
	"image"
	"image/color"
	"sync"
	"time"
)

// Pattern is a synthetic Device producing a moving color-bar image, paced
// at a fixed frame rate. It stands in for a camera on benches without one.
type Pattern struct {
	width    int
	height   int
	interval time.Duration

	mu     sync.Mutex
	next   time.Time
	tick   int
	closed bool
}

var bars = []color.RGBA{
	{255, 255, 255, 255},
	{255, 255, 0, 255},
	{0, 255, 255, 255},
	{0, 255, 0, 255},
	{255, 0, 255, 255},
	{255, 0, 0, 255},
	{0, 0, 255, 255},
}

// NewPattern creates a pattern device. fps <= 0 disables pacing.
func NewPattern(width, height, fps int) *Pattern {
	p := &Pattern{width: width, height: height}
	if fps > 0 {
		p.interval = time.Second / time.Duration(fps)
	}
	return p
}

func (p *Pattern) Grab() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	if p.interval > 0 {
		now := time.Now()
		if p.next.After(now) {
			time.Sleep(p.next.Sub(now))
			now = p.next
		}
		p.next = now.Add(p.interval)
	}

	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	barW := p.width / len(bars)
	if barW == 0 {
		barW = 1
	}
	shift := p.tick * 4
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			img.SetRGBA(x, y, bars[((x+shift)/barW)%len(bars)])
		}
	}
	p.tick++
	return img, nil
}

func (p *Pattern) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
