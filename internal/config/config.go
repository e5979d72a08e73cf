package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
)

// HostConfig holds runtime configuration for the vehicle host.
type HostConfig struct {
	StreamAddr  string
	CommandAddr string
	Camera      string
	Width       int
	Height      int
	FPS         int
	Quality     int
	MaxFailures int
	SerialPort  string
	BaudRate    int
	Takeover    bool
}

// ParseHostFlags parses flags for the host binary.
func ParseHostFlags(args []string) (*HostConfig, error) {
	cfg := &HostConfig{}
	fs := flag.NewFlagSet("host", flag.ContinueOnError)
	fs.StringVar(&cfg.StreamAddr, "stream", ":8000", "Video stream listen address")
	fs.StringVar(&cfg.CommandAddr, "command", ":5000", "Command channel listen address")
	fs.StringVar(&cfg.Camera, "camera", "0", "Camera device index or path (\"pattern\" for a test pattern)")
	fs.IntVar(&cfg.Width, "width", 640, "Capture width")
	fs.IntVar(&cfg.Height, "height", 480, "Capture height")
	fs.IntVar(&cfg.FPS, "fps", 30, "Target frames per second")
	fs.IntVar(&cfg.Quality, "quality", 70, "JPEG quality (1-100)")
	fs.IntVar(&cfg.MaxFailures, "max-failures", 10, "Consecutive capture misses before the camera is declared failed")
	fs.StringVar(&cfg.SerialPort, "serial", "/dev/ttyUSB0", "Serial port to the motor controller (\"auto\" to discover, empty to disable)")
	fs.IntVar(&cfg.BaudRate, "baud", 9600, "Serial baud rate")
	fs.BoolVar(&cfg.Takeover, "takeover", false, "Let a new operator connection replace the active one")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *HostConfig) validate() error {
	var errs []error
	if c.StreamAddr == "" {
		errs = append(errs, errors.New("-stream is required"))
	}
	if c.CommandAddr == "" {
		errs = append(errs, errors.New("-command is required"))
	}
	if c.StreamAddr != "" && c.StreamAddr == c.CommandAddr {
		errs = append(errs, fmt.Errorf("-stream and -command both use %s", c.StreamAddr))
	}
	if c.Camera == "" {
		errs = append(errs, errors.New("-camera is required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height))
	}
	if c.FPS < 1 || c.FPS > 60 {
		errs = append(errs, fmt.Errorf("-fps %d out of range 1-60", c.FPS))
	}
	if c.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("-max-failures must be positive, got %d", c.MaxFailures))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("invalid -baud %d", c.BaudRate))
	}
	c.Quality = clampQuality(c.Quality)
	return errors.Join(errs...)
}

func clampQuality(q int) int {
	return min(max(q, 1), 100)
}

// ControllerConfig holds configuration for the controller binary.
type ControllerConfig struct {
	Host        string
	VideoPort   int
	CommandPort int
	Status      bool
	Keymap      string
}

// ParseControllerFlags parses flags for the controller binary.
func ParseControllerFlags(args []string) (*ControllerConfig, error) {
	cfg := &ControllerConfig{}
	fs := flag.NewFlagSet("controller", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", "10.42.0.1", "Vehicle address")
	fs.IntVar(&cfg.VideoPort, "video-port", 8000, "Vehicle video stream port")
	fs.IntVar(&cfg.CommandPort, "command-port", 5000, "Vehicle command port")
	fs.BoolVar(&cfg.Status, "status", false, "Follow the vehicle status feed")
	fs.StringVar(&cfg.Keymap, "keymap", "", "JSON keymap overriding the default bindings")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var errs []error
	if cfg.Host == "" {
		errs = append(errs, errors.New("-host is required"))
	}
	for name, p := range map[string]int{"-video-port": cfg.VideoPort, "-command-port": cfg.CommandPort} {
		if p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("%s %d out of range", name, p))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// VideoURL is the stream endpoint on the vehicle.
func (c *ControllerConfig) VideoURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.VideoPort)) + "/video"
}

// StatusURL is the websocket status feed on the vehicle.
func (c *ControllerConfig) StatusURL() string {
	return "ws://" + net.JoinHostPort(c.Host, strconv.Itoa(c.VideoPort)) + "/ws/status"
}

// CommandAddr is the TCP address of the command channel.
func (c *ControllerConfig) CommandAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.CommandPort))
}
