package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/junsooki/telecar/internal/bridge"
	"github.com/junsooki/telecar/internal/camera"
	"github.com/junsooki/telecar/internal/capture"
	"github.com/junsooki/telecar/internal/command"
	"github.com/junsooki/telecar/internal/config"
	"github.com/junsooki/telecar/internal/encoder"
	"github.com/junsooki/telecar/internal/input"
	"github.com/junsooki/telecar/internal/status"
	"github.com/junsooki/telecar/internal/stream"
)

func main() {
	cfg, err := config.ParseHostFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("telecar host starting")
	log.Printf("  Stream:   %s", cfg.StreamAddr)
	log.Printf("  Command:  %s", cfg.CommandAddr)
	log.Printf("  Camera:   %s (%dx%d @ %d fps)", cfg.Camera, cfg.Width, cfg.Height, cfg.FPS)
	log.Printf("  Quality:  %d", cfg.Quality)
	log.Printf("  Serial:   %q @ %d", cfg.SerialPort, cfg.BaudRate)
	if cfg.Takeover {
		log.Printf("  Operator: newest connection wins")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Camera.
	dev, err := camera.Open(camera.Config{
		Device: cfg.Camera,
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
	})
	if err != nil {
		log.Fatalf("camera: %v", err)
	}
	src := capture.NewSource(dev, encoder.NewJPEGEncoder(cfg.Quality), capture.Options{
		MaxFailures: cfg.MaxFailures,
	})

	// Motor controller.
	link := bridge.Open(bridge.Config{Port: cfg.SerialPort, BaudRate: cfg.BaudRate})

	hub := status.NewHub()
	hub.SetHardware(link.Present(), link.Name())

	streamSrv := stream.NewServer(src, stream.Hooks{
		OnViewers:      hub.SetViewers,
		OnCameraFailed: hub.CameraFailed,
	})
	streamSrv.Handle("GET /ws/status", hub)

	policy := command.PolicySequential
	if cfg.Takeover {
		policy = command.PolicyTakeover
	}
	cmds := command.NewChannel(link, policy, command.Hooks{
		OnConnect: func(s *command.Session) {
			hub.OperatorConnected(s.ID, s.RemoteAddr)
		},
		OnDisconnect: func(s *command.Session) {
			hub.OperatorDisconnected(s.ID, s.State().String())
		},
		OnCommand: func(_ *command.Session, cmd input.Command) {
			hub.CommandReceived(string(cmd))
		},
	})

	err = run(ctx, cfg, streamSrv, cmds)
	stop()
	log.Println("Shutting down...")

	// The serial link is released first; the camera close is bounded by
	// capture.DefaultCloseTimeout when a read is stuck.
	linkErr := link.Close()
	camErr := src.Close()
	if cerr := errors.Join(linkErr, camErr); cerr != nil {
		log.Printf("close: %v", cerr)
	}
	if err != nil {
		log.Fatalf("host: %v", err)
	}
}

func run(ctx context.Context, cfg *config.HostConfig, streamSrv *stream.Server, cmds *command.Channel) error {
	streamLn, err := net.Listen("tcp", cfg.StreamAddr)
	if err != nil {
		return err
	}
	cmdLn, err := net.Listen("tcp", cfg.CommandAddr)
	if err != nil {
		streamLn.Close()
		return err
	}

	log.Printf("Host ready. Video at http://%s/video", streamLn.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return streamSrv.Serve(ctx, streamLn)
	})
	g.Go(func() error {
		return cmds.Serve(ctx, cmdLn)
	})
	return g.Wait()
}
