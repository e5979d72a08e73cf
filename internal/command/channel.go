// Package command implements the operator command channel: a raw TCP
// endpoint on the host and the matching client on the console.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/junsooki/telecar/internal/input"
	"github.com/junsooki/telecar/internal/transport"
)

const readBufferSize = 1024

// Policy decides what happens when an operator connects while another
// session is active.
type Policy int

const (
	// PolicySequential accepts the next connection only after the active
	// session has closed.
	PolicySequential Policy = iota
	// PolicyTakeover accepts immediately and supersedes the active session.
	PolicyTakeover
)

func (p Policy) String() string {
	if p == PolicyTakeover {
		return "takeover"
	}
	return "sequential"
}

// Hooks are optional callbacks for session events.
type Hooks struct {
	OnConnect    func(s *Session)
	OnDisconnect func(s *Session)
	OnCommand    func(s *Session, cmd input.Command)
}

// Channel serves operator sessions and forwards their commands to a sink.
// At most one session is in the Listening state at any time.
type Channel struct {
	sink   transport.CommandSink
	policy Policy
	hooks  Hooks

	mu     sync.Mutex
	active *Session
}

// NewChannel creates a command channel forwarding to sink.
func NewChannel(sink transport.CommandSink, policy Policy, hooks Hooks) *Channel {
	return &Channel{sink: sink, policy: policy, hooks: hooks}
}

// Active returns the session currently listening, or nil.
func (c *Channel) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Serve accepts operator connections on ln until ctx is cancelled or the
// listener fails. Cancellation closes the listener and the active session.
func (c *Channel) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		c.closeActive()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	log.Printf("command server started on %s (%s)", ln.Addr(), c.policy)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("command accept: %w", err)
		}

		// Activation happens here, in accept order, so under takeover the
		// newest connection is always the one left listening.
		sess := newSession(conn)
		if !c.activate(ctx, sess) {
			sess.end(StateClosed)
			continue
		}
		log.Printf("operator %s connected from %s", sess.ShortID(), sess.RemoteAddr)
		if c.hooks.OnConnect != nil {
			c.hooks.OnConnect(sess)
		}

		if c.policy == PolicyTakeover {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.serveSession(sess)
			}()
			continue
		}
		c.serveSession(sess)
		if ctx.Err() == nil {
			log.Println("waiting for new operator...")
		}
	}
}

// serveSession runs an activated session until it ends.
func (c *Channel) serveSession(s *Session) {
	reason := c.readLoop(s)

	s.end(StateClosed)
	c.deactivate(s)
	log.Printf("operator %s %s (%d commands)", s.ShortID(), reason, s.Commands())
	if c.hooks.OnDisconnect != nil {
		c.hooks.OnDisconnect(s)
	}
}

// readLoop forwards commands until the peer closes or the read fails and
// returns a description of why it ended.
func (c *Channel) readLoop(s *Session) string {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			c.handle(s, buf[:n])
		}
		if err != nil {
			switch {
			case s.State() == StateSuperseded:
				return "superseded by a newer connection"
			case errors.Is(err, io.EOF):
				return "disconnected"
			case errors.Is(err, net.ErrClosed):
				return "closed"
			default:
				return fmt.Sprintf("connection reset: %v", err)
			}
		}
	}
}

func (c *Channel) handle(s *Session, chunk []byte) {
	cmd, ok := input.ParseCommand(chunk)
	if !ok {
		return
	}
	s.commands.Add(1)
	log.Printf("command %q (%s) from %s", string(cmd), cmd.Name(), s.ShortID())
	if err := c.sink.Send(cmd); err != nil {
		log.Printf("forward command %q: %v", string(cmd), err)
	}
	if c.hooks.OnCommand != nil {
		c.hooks.OnCommand(s, cmd)
	}
}

// activate makes s the listening session, superseding any previous one.
func (c *Channel) activate(ctx context.Context, s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	if old := c.active; old != nil {
		old.end(StateSuperseded)
	}
	c.active = s
	return s.transition(StateListening)
}

func (c *Channel) deactivate(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}

func (c *Channel) closeActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.end(StateClosed)
	}
}
