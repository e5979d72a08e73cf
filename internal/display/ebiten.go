// Package display shows the vehicle's camera feed in a window and turns key
// presses into operator commands.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/telecar/internal/hud"
	"github.com/junsooki/telecar/internal/input"
)

// EbitenDisplay renders the live stream using Ebitengine and forwards key
// presses to a KeyHandler.
type EbitenDisplay struct {
	ctx     context.Context
	keys    KeyHandler
	overlay hud.HUD

	mu          sync.Mutex
	frame       *image.RGBA
	dirty       bool
	ebitenImage *ebiten.Image

	pressed []ebiten.Key
	err     error
}

// NewEbitenDisplay creates an Ebitengine-based display. The game loop ends
// when ctx is cancelled or the handler reports an exit.
func NewEbitenDisplay(ctx context.Context, keys KeyHandler) *EbitenDisplay {
	return &EbitenDisplay{ctx: ctx, keys: keys}
}

// SetFrame updates the displayed frame (called from the stream goroutine).
func (d *EbitenDisplay) SetFrame(img *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = img
	d.dirty = true
}

// SetVideoStatus sets the overlay line describing the video link.
func (d *EbitenDisplay) SetVideoStatus(line string) {
	d.overlay.SetVideo(line)
}

// SetVehicleStatus sets the overlay line describing the vehicle.
func (d *EbitenDisplay) SetVehicleStatus(line string) {
	d.overlay.SetVehicle(line)
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
// It returns nil when the user exits or ctx is cancelled, and the send error
// when a command could not be delivered.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(640, 480)
	ebiten.SetWindowTitle("telecar controller")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(d); err != nil {
		return err
	}
	return d.err
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	if d.ctx.Err() != nil {
		return ebiten.Termination
	}
	d.pressed = inpututil.AppendJustPressedKeys(d.pressed[:0])
	for _, k := range d.pressed {
		err := d.keys.Press(strings.ToLower(k.String()))
		switch {
		case err == nil:
		case errors.Is(err, input.ErrExit):
			return ebiten.Termination
		default:
			d.err = fmt.Errorf("key %s: %w", k, err)
			return ebiten.Termination
		}
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	frame, dirty := d.frame, d.dirty
	d.dirty = false
	d.mu.Unlock()
	status := d.overlay.Text()

	if frame == nil {
		ebitenutil.DebugPrint(screen, "no signal\n"+status)
		return
	}

	if d.ebitenImage == nil ||
		d.ebitenImage.Bounds().Dx() != frame.Bounds().Dx() ||
		d.ebitenImage.Bounds().Dy() != frame.Bounds().Dy() {
		d.ebitenImage = ebiten.NewImage(frame.Bounds().Dx(), frame.Bounds().Dy())
		dirty = true
	}
	if dirty {
		d.ebitenImage.WritePixels(frame.Pix)
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	fw, fh := float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy())
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), fw, fh)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(d.ebitenImage, op)

	if status != "" {
		ebitenutil.DebugPrint(screen, status)
	}
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
