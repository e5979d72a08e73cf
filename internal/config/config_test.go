package config

import (
	"errors"
	"flag"
	"strings"
	"testing"
)

func TestParseHostFlagsDefaults(t *testing.T) {
	cfg, err := ParseHostFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := HostConfig{
		StreamAddr:  ":8000",
		CommandAddr: ":5000",
		Camera:      "0",
		Width:       640,
		Height:      480,
		FPS:         30,
		Quality:     70,
		MaxFailures: 10,
		SerialPort:  "/dev/ttyUSB0",
		BaudRate:    9600,
	}
	if *cfg != want {
		t.Errorf("defaults = %+v\nwant %+v", *cfg, want)
	}
}

func TestParseHostFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, c *HostConfig)
	}{
		{
			name: "overrides",
			args: []string{"-camera", "pattern", "-serial", "", "-takeover", "-fps", "15"},
			check: func(t *testing.T, c *HostConfig) {
				if c.Camera != "pattern" || c.SerialPort != "" || !c.Takeover || c.FPS != 15 {
					t.Errorf("got %+v", *c)
				}
			},
		},
		{
			name: "quality clamped high",
			args: []string{"-quality", "250"},
			check: func(t *testing.T, c *HostConfig) {
				if c.Quality != 100 {
					t.Errorf("quality = %d", c.Quality)
				}
			},
		},
		{
			name: "quality clamped low",
			args: []string{"-quality", "-3"},
			check: func(t *testing.T, c *HostConfig) {
				if c.Quality != 1 {
					t.Errorf("quality = %d", c.Quality)
				}
			},
		},
		{name: "fps too high", args: []string{"-fps", "120"}, wantErr: "-fps 120"},
		{name: "same address", args: []string{"-stream", ":9000", "-command", ":9000"}, wantErr: "both use"},
		{name: "no camera", args: []string{"-camera", ""}, wantErr: "-camera is required"},
		{name: "bad size", args: []string{"-width", "0"}, wantErr: "frame size"},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseHostFlags(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseControllerFlags(t *testing.T) {
	cfg, err := ParseControllerFlags([]string{"-host", "192.168.4.1", "-status"})
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.VideoURL(); got != "http://192.168.4.1:8000/video" {
		t.Errorf("VideoURL = %q", got)
	}
	if got := cfg.StatusURL(); got != "ws://192.168.4.1:8000/ws/status" {
		t.Errorf("StatusURL = %q", got)
	}
	if got := cfg.CommandAddr(); got != "192.168.4.1:5000" {
		t.Errorf("CommandAddr = %q", got)
	}
	if !cfg.Status {
		t.Error("status flag not set")
	}

	ipv6, err := ParseControllerFlags([]string{"-host", "fe80::1", "-command-port", "6000"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ipv6.CommandAddr(); got != "[fe80::1]:6000" {
		t.Errorf("CommandAddr = %q", got)
	}

	for _, args := range [][]string{
		{"-host", ""},
		{"-video-port", "0"},
		{"-command-port", "70000"},
	} {
		if _, err := ParseControllerFlags(args); err == nil {
			t.Errorf("ParseControllerFlags(%q) succeeded", args)
		}
	}
}

func TestHelpIsReportedAsErrHelp(t *testing.T) {
	if _, err := ParseHostFlags([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("host -h = %v, want flag.ErrHelp", err)
	}
	if _, err := ParseControllerFlags([]string{"-help"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("controller -help = %v, want flag.ErrHelp", err)
	}
}
