package input

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExit is returned by Mapper.Press when the exit key was pressed.
var ErrExit = errors.New("exit requested")

// Sender delivers commands to the vehicle.
type Sender interface {
	SendCommand(cmd Command) error
}

// Mapper turns key presses into commands. One press sends exactly one
// command; there is no repeat while a key is held.
type Mapper struct {
	keys   map[string]Command
	exit   map[string]bool
	sender Sender
	onExit func()

	exitOnce sync.Once
}

// NewMapper creates a Mapper. onExit is called once, the first time an exit
// key is pressed; it is where the console cancels its root context.
func NewMapper(km Keymap, sender Sender, onExit func()) *Mapper {
	m := &Mapper{
		keys:   make(map[string]Command, len(km.Keys)),
		exit:   make(map[string]bool, len(km.Exit)),
		sender: sender,
		onExit: onExit,
	}
	for k, cmd := range km.Keys {
		m.keys[normalizeKey(k)] = cmd
	}
	for _, k := range km.Exit {
		m.exit[normalizeKey(k)] = true
	}
	return m
}

// Lookup returns the command bound to key, if any.
func (m *Mapper) Lookup(key string) (Command, bool) {
	cmd, ok := m.keys[normalizeKey(key)]
	return cmd, ok
}

// Press handles one key press. Unmapped keys are ignored. The exit key
// triggers shutdown and returns ErrExit. A send failure is returned wrapped;
// the console treats it as fatal.
func (m *Mapper) Press(key string) error {
	k := normalizeKey(key)
	if m.exit[k] {
		m.exitOnce.Do(func() {
			if m.onExit != nil {
				m.onExit()
			}
		})
		return ErrExit
	}

	cmd, ok := m.keys[k]
	if !ok {
		return nil
	}
	if err := m.sender.SendCommand(cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Name(), err)
	}
	return nil
}
