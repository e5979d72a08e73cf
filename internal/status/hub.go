// Package status publishes host state over a websocket feed and reads it on
// the console.
package status

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingEvery  = (pongWait * 9) / 10
	sendBuffer = 16
)

type subscriber struct {
	conn *websocket.Conn
	send chan Message
	done chan struct{}
}

// Hub tracks the host state and broadcasts every change to websocket
// subscribers. A subscriber that falls behind misses intermediate messages;
// each message carries the full state so the next one catches it up.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	state Snapshot
	subs  map[*subscriber]struct{}
	now   func() time.Time
}

// NewHub creates a hub with the camera assumed healthy.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		state: Snapshot{Camera: CameraOK},
		subs:  make(map[*subscriber]struct{}),
		now:   time.Now,
	}
}

// Snapshot returns the current state.
func (h *Hub) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SetViewers records the number of connected video viewers.
func (h *Hub) SetViewers(n int) {
	h.update(TypeViewers, "", func(s *Snapshot) { s.Viewers = n })
}

// OperatorConnected records a new operator session.
func (h *Hub) OperatorConnected(id, addr string) {
	h.update(TypeOperatorConnected, addr, func(s *Snapshot) {
		s.Operator = id
		s.OperatorAddr = addr
	})
}

// OperatorDisconnected clears the operator if id is still the current one.
func (h *Hub) OperatorDisconnected(id, reason string) {
	h.update(TypeOperatorDisconnected, reason, func(s *Snapshot) {
		if s.Operator == id {
			s.Operator = ""
			s.OperatorAddr = ""
		}
	})
}

// CommandReceived records the last forwarded command.
func (h *Hub) CommandReceived(cmd string) {
	h.update(TypeCommand, cmd, func(s *Snapshot) { s.LastCommand = cmd })
}

// CameraFailed marks the camera as dead.
func (h *Hub) CameraFailed(err error) {
	h.update(TypeCamera, err.Error(), func(s *Snapshot) { s.Camera = CameraFailed })
}

// SetHardware records whether the serial link is attached.
func (h *Hub) SetHardware(present bool, port string) {
	h.update(TypeHardware, port, func(s *Snapshot) {
		s.Hardware = present
		s.HardwarePort = port
	})
}

func (h *Hub) update(typ, detail string, fn func(s *Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.state)
	msg := h.message(typ, detail)
	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
		}
	}
}

func (h *Hub) message(typ, detail string) Message {
	return Message{
		Type:      typ,
		State:     h.state,
		Detail:    detail,
		Timestamp: h.now().UnixMilli(),
	}
}

// Subscribers returns the number of connected feed readers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a websocket and streams status
// messages until the peer leaves or the request context ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := &subscriber{
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	sub.send <- h.message(TypeSnapshot, "")
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}()

	go sub.readLoop()
	if err := sub.writeLoop(r.Context().Done()); err != nil {
		log.Printf("status subscriber %s: %v", r.RemoteAddr, err)
	}
}

// readLoop consumes control frames so pongs and close are processed.
func (s *subscriber) readLoop() {
	defer close(s.done)
	s.conn.SetReadLimit(1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writeLoop(stop <-chan struct{}) error {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "host shutting down"),
				time.Now().Add(writeWait))
			return nil
		case <-s.done:
			return nil
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}
