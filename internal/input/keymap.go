package input

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Keymap maps key names (as reported by the display, e.g. "W", "ArrowUp",
// "Space") to commands. Lookups are case-insensitive.
type Keymap struct {
	Keys map[string]Command `json:"keys"`
	Exit []string           `json:"exit"`
}

// DefaultKeymap returns the stock driving layout.
func DefaultKeymap() Keymap {
	return Keymap{
		Keys: map[string]Command{
			"w":          CommandForward,
			"arrowup":    CommandForward,
			"s":          CommandBack,
			"arrowdown":  CommandBack,
			"q":          CommandLeft,
			"arrowleft":  CommandLeft,
			"e":          CommandRight,
			"arrowright": CommandRight,
			"space":      CommandStop,
			"u":          CommandAuxUp,
			"d":          CommandAuxDown,
			"g":          CommandAuxLeft,
			"h":          CommandAuxRight,
		},
		Exit: []string{"escape"},
	}
}

// LoadKeymap reads a keymap from a JSON file. Keys missing from the file keep
// their default binding; an empty "exit" list keeps the default exit key.
func LoadKeymap(path string) (Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keymap{}, err
	}
	var override Keymap
	if err := json.Unmarshal(data, &override); err != nil {
		return Keymap{}, fmt.Errorf("parse keymap %s: %w", path, err)
	}

	km := DefaultKeymap()
	for k, cmd := range override.Keys {
		if strings.TrimSpace(string(cmd)) == "" {
			delete(km.Keys, normalizeKey(k))
			continue
		}
		km.Keys[normalizeKey(k)] = cmd
	}
	if len(override.Exit) > 0 {
		km.Exit = override.Exit
	}
	return km, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
