// Package bridge forwards operator commands to the motor controller over a
// line-oriented serial link.
package bridge

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/junsooki/telecar/internal/input"
)

// Port is the subset of a serial port the bridge needs.
type Port interface {
	io.WriteCloser
	// Drain blocks until all written bytes have been transmitted.
	Drain() error
}

// Bridge owns the hardware link. When the link is absent every Send is a
// no-op, so the command path keeps working without hardware attached.
type Bridge struct {
	mu     sync.Mutex
	port   Port
	name   string
	closed bool

	sent    atomic.Uint64
	skipped atomic.Uint64
}

// New wraps an already opened port. A nil port yields a bridge in
// degraded mode.
func New(port Port, name string) *Bridge {
	return &Bridge{port: port, name: name}
}

// Present reports whether the hardware link is attached.
func (b *Bridge) Present() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port != nil && !b.closed
}

// Name returns the serial device path, or "" when absent.
func (b *Bridge) Name() string {
	return b.name
}

// Send writes the command followed by a newline and drains the port.
// Write failures are returned and not retried.
func (b *Bridge) Send(cmd input.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil || b.closed {
		b.skipped.Add(1)
		log.Printf("hardware link absent, command %q not forwarded", cmd)
		return nil
	}

	if _, err := io.WriteString(b.port, string(cmd)+"\n"); err != nil {
		return fmt.Errorf("serial write %s: %w", b.name, err)
	}
	if err := b.port.Drain(); err != nil {
		return fmt.Errorf("serial drain %s: %w", b.name, err)
	}
	b.sent.Add(1)
	return nil
}

// Sent returns the number of commands written to the hardware.
func (b *Bridge) Sent() uint64 {
	return b.sent.Load()
}

// Skipped returns the number of commands dropped because the link was absent.
func (b *Bridge) Skipped() uint64 {
	return b.skipped.Load()
}

// Close closes the port. It is safe to call more than once.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.port == nil {
		b.closed = true
		return nil
	}
	b.closed = true
	if err := b.port.Close(); err != nil {
		return fmt.Errorf("close serial %s: %w", b.name, err)
	}
	return nil
}
