package command

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle state of an operator session.
type State int

const (
	StateIdle State = iota
	StateListening
	StateClosed
	// StateSuperseded marks a session replaced by a newer connection under
	// the takeover policy.
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateClosed:
		return "closed"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Session is one accepted operator connection.
type Session struct {
	ID         string
	RemoteAddr string

	conn     net.Conn
	mu       sync.Mutex
	state    State
	commands atomic.Uint64
}

func newSession(conn net.Conn) *Session {
	return &Session{
		ID:         uuid.NewString(),
		RemoteAddr: conn.RemoteAddr().String(),
		conn:       conn,
	}
}

// ShortID is the log form of the session id.
func (s *Session) ShortID() string {
	return s.ID[:8]
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Commands returns how many commands this session forwarded.
func (s *Session) Commands() uint64 {
	return s.commands.Load()
}

// transition moves the session to the target state if the move is legal:
// Idle -> Listening, Listening -> Closed, Listening -> Superseded.
func (s *Session) transition(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateIdle && to == StateListening,
		s.state == StateListening && (to == StateClosed || to == StateSuperseded):
		s.state = to
		return true
	}
	return false
}

// end moves the session to the given terminal state and releases the socket.
func (s *Session) end(to State) bool {
	ok := s.transition(to)
	s.conn.Close()
	return ok
}
