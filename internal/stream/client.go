package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/junsooki/telecar/internal/decoder"
	"github.com/junsooki/telecar/internal/mjpeg"
	"github.com/junsooki/telecar/internal/transport"
)

const readChunk = 4096

var _ transport.FrameReceiver = (*Client)(nil)

// Client reads a multipart JPEG stream and yields decoded frames.
type Client struct {
	body io.ReadCloser
	dec  decoder.Decoder
	scan *mjpeg.Scanner

	frames  int
	corrupt int

	closeOnce sync.Once
	closeErr  error
}

// Dial opens the stream at url. A nil httpClient uses a client without a
// timeout, since the response never ends on its own.
func Dial(ctx context.Context, httpClient *http.Client, url string, dec decoder.Decoder) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream dial %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream dial %s: %s", url, resp.Status)
	}
	return NewClient(resp.Body, dec), nil
}

// NewClient reads frames from an already open stream body.
func NewClient(body io.ReadCloser, dec decoder.Decoder) *Client {
	return &Client{
		body: body,
		dec:  dec,
		scan: mjpeg.NewScanner(0),
	}
}

// Run reads the stream until it ends, ctx is cancelled, or a read fails,
// calling onFrame for every decodable frame. Frames that fail to decode are
// skipped. A stream that ends cleanly returns nil.
func (c *Client) Run(ctx context.Context, onFrame func(img *image.RGBA)) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	buf := make([]byte, readChunk)
	for {
		n, err := c.body.Read(buf)
		if n > 0 {
			c.scan.Write(buf[:n])
			c.drain(onFrame)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("stream read: %w", err)
		}
	}
}

func (c *Client) drain(onFrame func(img *image.RGBA)) {
	for {
		data, ok := c.scan.Next()
		if !ok {
			return
		}
		img, err := c.dec.Decode(data)
		if err != nil {
			c.corrupt++
			log.Printf("skip corrupt frame (%d bytes): %v", len(data), err)
			continue
		}
		c.frames++
		onFrame(img)
	}
}

// Frames returns the number of frames delivered.
func (c *Client) Frames() int {
	return c.frames
}

// Corrupt returns the number of frames skipped because they failed to decode.
func (c *Client) Corrupt() int {
	return c.corrupt
}

// Close closes the stream body. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.body.Close()
	})
	return c.closeErr
}
