package bridge

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/junsooki/telecar/internal/input"
)

type fakePort struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	drains   int
	closed   int
	writeErr error
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.buf.Write(b)
}

func (p *fakePort) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drains++
	return nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func TestBridgeSendWritesLineAndDrains(t *testing.T) {
	port := &fakePort{}
	b := New(port, "/dev/ttyUSB0")

	for _, c := range []input.Command{input.CommandForward, input.CommandStop, "zz"} {
		if err := b.Send(c); err != nil {
			t.Fatalf("Send(%q): %v", c, err)
		}
	}

	if got, want := port.buf.String(), "f\ns\nzz\n"; got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}
	if port.drains != 3 {
		t.Errorf("drained %d times, want 3", port.drains)
	}
	if b.Sent() != 3 || b.Skipped() != 0 {
		t.Errorf("sent=%d skipped=%d", b.Sent(), b.Skipped())
	}
}

func TestBridgeAbsentLinkIsNoop(t *testing.T) {
	b := New(nil, "")
	if b.Present() {
		t.Fatal("Present() = true for nil port")
	}
	for i := 0; i < 3; i++ {
		if err := b.Send(input.CommandForward); err != nil {
			t.Fatalf("Send on absent link: %v", err)
		}
	}
	if b.Skipped() != 3 {
		t.Errorf("skipped = %d, want 3", b.Skipped())
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close on absent link: %v", err)
	}
}

func TestBridgeWriteErrorNotRetried(t *testing.T) {
	port := &fakePort{writeErr: errors.New("device unplugged")}
	b := New(port, "/dev/ttyACM0")

	if err := b.Send(input.CommandBack); err == nil {
		t.Fatal("expected error")
	}
	if port.drains != 0 {
		t.Errorf("drained after failed write")
	}
	if b.Sent() != 0 {
		t.Errorf("sent = %d", b.Sent())
	}
}

func TestBridgeCloseIdempotent(t *testing.T) {
	port := &fakePort{}
	b := New(port, "/dev/ttyUSB0")

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if port.closed != 1 {
		t.Errorf("port closed %d times", port.closed)
	}
	if b.Present() {
		t.Error("Present() after Close")
	}
	if err := b.Send(input.CommandStop); err != nil {
		t.Errorf("Send after Close: %v", err)
	}
	if port.buf.Len() != 0 {
		t.Errorf("wrote %q after Close", port.buf.String())
	}
}

func TestOpenDisabledIsDegraded(t *testing.T) {
	b := Open(Config{})
	if b.Present() {
		t.Fatal("disabled link reported present")
	}
	if err := b.Send(input.CommandLeft); err != nil {
		t.Fatal(err)
	}
}

func TestOpenMissingDeviceIsDegraded(t *testing.T) {
	b := Open(Config{Port: "/dev/telecar-does-not-exist", BaudRate: 9600})
	if b.Present() {
		t.Fatal("missing device reported present")
	}
	if err := b.Send(input.CommandRight); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
		err   error
		want  string
		fails bool
	}{
		{"linux usb", []string{"/dev/ttyS0", "/dev/ttyUSB0"}, nil, "/dev/ttyUSB0", false},
		{"arduino acm", []string{"/dev/ttyAMA0", "/dev/ttyACM1"}, nil, "/dev/ttyACM1", false},
		{"mac skips bluetooth", []string{"/dev/cu.Bluetooth-Incoming-Port", "/dev/cu.usbserial-110"}, nil, "/dev/cu.usbserial-110", false},
		{"none", []string{"/dev/ttyS0"}, nil, "", true},
		{"list error", nil, errors.New("boom"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := discover(func() ([]string, error) { return tt.ports, tt.err })
			if tt.fails {
				if err == nil {
					t.Fatalf("discover = %q, want error", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("discover = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}
