package display

import "image"

// Display renders frames and forwards key presses until the user exits.
type Display interface {
	SetFrame(img *image.RGBA)
	SetVideoStatus(line string)
	SetVehicleStatus(line string)
	Run() error
}

// KeyHandler receives one call per key press, by lowercase key name.
type KeyHandler interface {
	Press(key string) error
}
