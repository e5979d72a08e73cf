package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/junsooki/telecar/internal/command"
	"github.com/junsooki/telecar/internal/config"
	"github.com/junsooki/telecar/internal/decoder"
	"github.com/junsooki/telecar/internal/display"
	"github.com/junsooki/telecar/internal/input"
	"github.com/junsooki/telecar/internal/status"
	"github.com/junsooki/telecar/internal/stream"
)

func main() {
	cfg, err := config.ParseControllerFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	km := input.DefaultKeymap()
	if cfg.Keymap != "" {
		km, err = input.LoadKeymap(cfg.Keymap)
		if err != nil {
			log.Fatalf("keymap: %v", err)
		}
	}

	log.Printf("telecar controller starting")
	log.Printf("  Video:    %s", cfg.VideoURL())
	log.Printf("  Command:  %s", cfg.CommandAddr())
	if cfg.Status {
		log.Printf("  Status:   %s", cfg.StatusURL())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Control link. Without it there is nothing to drive.
	cmds, err := command.Dial(ctx, cfg.CommandAddr())
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer cmds.Close()
	log.Printf("Connected to %s", cfg.CommandAddr())

	mapper := input.NewMapper(km, cmds, func() {
		log.Println("Exiting...")
		cancel()
	})
	disp := display.NewEbitenDisplay(ctx, mapper)

	// Video. Losing it leaves the vehicle drivable.
	go func() {
		if err := watchVideo(ctx, cfg.VideoURL(), disp); err != nil {
			log.Printf("video: %v", err)
			disp.SetVideoStatus("video lost")
		}
	}()

	if cfg.Status {
		feed := status.NewClient(cfg.StatusURL(), status.Handler{
			OnSnapshot: func(s status.Snapshot) {
				disp.SetVehicleStatus(describe(s))
			},
			OnMessage: func(msg status.Message) {
				log.Printf("status: %s %s", msg.Type, msg.Detail)
			},
			OnClosed: func(error) {
				disp.SetVehicleStatus("status feed lost")
			},
		})
		if err := feed.Connect(ctx); err != nil {
			log.Printf("status: %v", err)
		} else {
			defer feed.Close()
		}
	}

	// A host hang-up is fatal to the console.
	lost := make(chan error, 1)
	go func() {
		select {
		case <-cmds.Done():
			if ctx.Err() == nil {
				lost <- cmds.Err()
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	// Ebitengine RunGame must be on the main goroutine.
	runErr := disp.Run()
	cancel()

	select {
	case err := <-lost:
		log.Printf("Connection lost: %v", err)
		cmds.Close()
		os.Exit(1)
	default:
	}
	if runErr != nil {
		log.Printf("Connection lost: %v", runErr)
		cmds.Close()
		os.Exit(1)
	}
}

func watchVideo(ctx context.Context, url string, disp display.Display) error {
	client, err := stream.Dial(ctx, nil, url, decoder.NewJPEGDecoder())
	if err != nil {
		return err
	}
	defer client.Close()
	log.Printf("Video connected")

	err = client.Run(ctx, func(img *image.RGBA) {
		disp.SetFrame(img)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err == nil {
		err = errors.New("stream ended")
	}
	return fmt.Errorf("%w (%d frames, %d corrupt)", err, client.Frames(), client.Corrupt())
}

func describe(s status.Snapshot) string {
	hw := "no hardware"
	if s.Hardware {
		hw = "hardware " + s.HardwarePort
	}
	line := fmt.Sprintf("camera %s | %d viewers | %s", s.Camera, s.Viewers, hw)
	if s.LastCommand != "" {
		line += " | last " + s.LastCommand
	}
	return line
}
