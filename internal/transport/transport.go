// Package transport defines the contracts between the network endpoints and
// the components they feed.
package transport

import (
	"context"
	"image"

	"github.com/junsooki/telecar/internal/capture"
	"github.com/junsooki/telecar/internal/input"
)

// FrameSource produces encoded frames for the stream server.
type FrameSource interface {
	Capture(ctx context.Context) (*capture.Frame, error)
	Failed() bool
}

// FrameReceiver delivers decoded frames from the stream to a consumer.
type FrameReceiver interface {
	Run(ctx context.Context, onFrame func(img *image.RGBA)) error
}

// CommandSender sends operator commands to the vehicle.
type CommandSender interface {
	SendCommand(cmd input.Command) error
}

// CommandSink receives commands from the command channel.
type CommandSink interface {
	Send(cmd input.Command) error
}
