package status

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const waitFor = 2 * time.Second

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func subscribe(t *testing.T, url string, msgs chan Message) *Client {
	t.Helper()
	c := NewClient(url, Handler{
		OnMessage: func(m Message) { msgs <- m },
		OnSnapshot: func(s Snapshot) {
			msgs <- Message{Type: TypeSnapshot, State: s}
		},
	})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func next(t *testing.T, msgs <-chan Message) Message {
	t.Helper()
	select {
	case m := <-msgs:
		return m
	case <-time.After(waitFor):
		t.Fatal("no status message")
		return Message{}
	}
}

func waitSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for hub.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", hub.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubSendsSnapshotOnSubscribe(t *testing.T) {
	hub, url := startHub(t)
	hub.SetViewers(2)
	hub.SetHardware(true, "/dev/ttyUSB0")

	msgs := make(chan Message, 16)
	subscribe(t, url, msgs)

	m := next(t, msgs)
	if m.Type != TypeSnapshot {
		t.Fatalf("first message type = %q", m.Type)
	}
	if m.State.Viewers != 2 || !m.State.Hardware || m.State.Camera != CameraOK {
		t.Errorf("snapshot = %+v", m.State)
	}
}

func TestHubBroadcastsChanges(t *testing.T) {
	hub, url := startHub(t)
	msgs := make(chan Message, 32)
	subscribe(t, url, msgs)
	next(t, msgs) // initial snapshot
	waitSubscribers(t, hub, 1)

	hub.OperatorConnected("abcd1234", "10.42.0.5:51000")
	hub.CommandReceived("f")
	hub.CameraFailed(errors.New("10 consecutive misses"))

	// Each change is delivered as a snapshot callback followed by the message.
	var got []Message
	for len(got) < 3 {
		m := next(t, msgs)
		if m.Type != TypeSnapshot {
			got = append(got, m)
		}
	}
	if got[0].Type != TypeOperatorConnected || got[0].State.Operator != "abcd1234" {
		t.Errorf("operator message = %+v", got[0])
	}
	if got[1].Type != TypeCommand || got[1].State.LastCommand != "f" {
		t.Errorf("command message = %+v", got[1])
	}
	if got[2].Type != TypeCamera || got[2].State.Camera != CameraFailed {
		t.Errorf("camera message = %+v", got[2])
	}
}

func TestHubOperatorDisconnectedIgnoresStaleSession(t *testing.T) {
	hub := NewHub()
	hub.OperatorConnected("old", "a")
	hub.OperatorConnected("new", "b")
	hub.OperatorDisconnected("old", "superseded")

	if s := hub.Snapshot(); s.Operator != "new" || s.OperatorAddr != "b" {
		t.Errorf("snapshot = %+v, want operator new", s)
	}
	hub.OperatorDisconnected("new", "disconnected")
	if s := hub.Snapshot(); s.Operator != "" {
		t.Errorf("operator = %q after disconnect", s.Operator)
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	sub := &subscriber{send: make(chan Message, sendBuffer)}
	hub.subs[sub] = struct{}{}

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*4; i++ {
			hub.CommandReceived("f")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("update blocked on a full subscriber")
	}
	if len(sub.send) != sendBuffer {
		t.Errorf("buffered %d messages, want %d", len(sub.send), sendBuffer)
	}
}

func TestClientReportsClose(t *testing.T) {
	hub, url := startHub(t)
	closed := make(chan struct{})
	c := NewClient(url, Handler{OnClosed: func(error) { close(closed) }})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitSubscribers(t, hub, 1)

	c.Close()
	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("OnClosed not called")
	}
	waitSubscribers(t, hub, 0)
}
