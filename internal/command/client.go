package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/junsooki/telecar/internal/input"
	"github.com/junsooki/telecar/internal/transport"
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 2 * time.Second
)

var _ transport.CommandSender = (*Client)(nil)

// ErrClosed is returned by SendCommand after Close.
var ErrClosed = errors.New("command connection closed")

// Client is the console end of the command channel. Delivery is
// fire-and-forget: the host never acknowledges a command.
type Client struct {
	conn net.Conn

	mu     sync.Mutex
	closed bool

	done    chan struct{}
	doneErr error
}

// Dial connects to the host's command endpoint.
func Dial(ctx context.Context, addr string) (*Client, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("command dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	c := &Client{
		conn: conn,
		done: make(chan struct{}),
	}
	go c.watch()
	return c
}

// SendCommand writes one command token.
func (c *Client) SendCommand(cmd input.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := io.WriteString(c.conn, string(cmd)); err != nil {
		return fmt.Errorf("send command %q: %w", string(cmd), err)
	}
	return nil
}

// Done is closed when the host drops the connection or Close is called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why Done was closed: io.EOF when the host hung up.
func (c *Client) Err() error {
	<-c.done
	return c.doneErr
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// watch reads from the connection so a host hang-up is noticed without
// waiting for the next write. The host never sends data.
func (c *Client) watch() {
	buf := make([]byte, 64)
	for {
		if _, err := c.conn.Read(buf); err != nil {
			c.doneErr = err
			close(c.done)
			return
		}
	}
}
