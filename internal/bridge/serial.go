package bridge

import (
	"fmt"
	"log"
	"strings"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate = 9600

	// AutoPort asks Open to pick the first USB serial adapter it finds.
	AutoPort = "auto"
)

// Config selects the serial device.
type Config struct {
	Port     string
	BaudRate int
}

// Open opens the hardware link. It never fails: if the port is disabled or
// cannot be opened the reason is logged and a degraded bridge is returned.
func Open(cfg Config) *Bridge {
	if cfg.Port == "" {
		log.Println("serial: hardware link disabled")
		return New(nil, "")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	name := cfg.Port
	if strings.EqualFold(name, AutoPort) {
		found, err := discover(serial.GetPortsList)
		if err != nil {
			log.Printf("serial error: %v; hardware link disabled", err)
			return New(nil, "")
		}
		name = found
	}

	port, err := serial.Open(name, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		log.Printf("serial error: open %s: %v; hardware link disabled", name, err)
		return New(nil, "")
	}

	log.Printf("serial connected: %s @ %d", name, cfg.BaudRate)
	return New(port, name)
}

var usbHints = []string{"ttyUSB", "ttyACM", "usbserial", "usbmodem", "COM"}

// discover returns the first port that looks like a USB serial adapter.
func discover(list func() ([]string, error)) (string, error) {
	ports, err := list()
	if err != nil {
		return "", fmt.Errorf("list ports: %w", err)
	}
	for _, p := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(p, "Bluetooth") {
			continue
		}
		for _, hint := range usbHints {
			if strings.Contains(p, hint) {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("no USB serial port among %d ports", len(ports))
}
