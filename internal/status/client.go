package status

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler callbacks for incoming status messages.
type Handler struct {
	OnSnapshot func(s Snapshot)
	OnMessage  func(msg Message)
	OnClosed   func(err error)
}

// Client reads the host's status feed.
type Client struct {
	url     string
	handler Handler

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a status client for url (ws://host:port/ws/status).
func NewClient(url string, handler Handler) *Client {
	return &Client{
		url:     url,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Connect dials the feed and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("status dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// Done is closed once the feed ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) readLoop() {
	var readErr error
	defer func() {
		c.Close()
		if c.handler.OnClosed != nil {
			c.handler.OnClosed(readErr)
		}
	}()
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("status read error: %v", err)
				}
				readErr = err
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	if c.handler.OnSnapshot != nil {
		c.handler.OnSnapshot(msg.State)
	}
	if msg.Type != TypeSnapshot && c.handler.OnMessage != nil {
		c.handler.OnMessage(msg)
	}
}
