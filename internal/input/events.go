package input

import (
	"strings"
	"unicode/utf8"
)

// Command is the wire token for one operator directive sent over the
// command channel and forwarded to the motor controller.
type Command string

const (
	CommandForward  Command = "f"
	CommandBack     Command = "b"
	CommandLeft     Command = "l"
	CommandRight    Command = "r"
	CommandStop     Command = "s"
	CommandAuxUp    Command = "u"
	CommandAuxDown  Command = "d"
	CommandAuxLeft  Command = "g"
	CommandAuxRight Command = "h"
)

var known = map[Command]string{
	CommandForward:  "forward",
	CommandBack:     "back",
	CommandLeft:     "left",
	CommandRight:    "right",
	CommandStop:     "stop",
	CommandAuxUp:    "aux-up",
	CommandAuxDown:  "aux-down",
	CommandAuxLeft:  "aux-left",
	CommandAuxRight: "aux-right",
}

// Known reports whether c belongs to the fixed command alphabet.
// Unknown commands are still forwarded to the hardware verbatim.
func (c Command) Known() bool {
	_, ok := known[c]
	return ok
}

// Name returns a human-readable name, or the raw token for unknown commands.
func (c Command) Name() string {
	if n, ok := known[c]; ok {
		return n
	}
	return string(c)
}

// ParseCommand decodes one received chunk into a Command.
// Invalid UTF-8 and chunks that are empty after trimming whitespace are rejected.
func ParseCommand(chunk []byte) (Command, bool) {
	if !utf8.Valid(chunk) {
		return "", false
	}
	s := strings.TrimSpace(string(chunk))
	if s == "" {
		return "", false
	}
	return Command(s), true
}
