// Package hud holds the text overlay drawn over the video window. Each
// source of status owns its own line, so one never overwrites another.
package hud

import (
	"strings"
	"sync"
)

// HUD is safe for concurrent use.
type HUD struct {
	mu      sync.Mutex
	video   string
	vehicle string
}

// SetVideo sets the video link line ("" clears it).
func (h *HUD) SetVideo(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.video = line
}

// SetVehicle sets the vehicle status line ("" clears it).
func (h *HUD) SetVehicle(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vehicle = line
}

// Text returns the non-empty lines, video first.
func (h *HUD) Text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	lines := make([]string, 0, 2)
	for _, l := range []string{h.video, h.vehicle} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
