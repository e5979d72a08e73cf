// Package stream serves captured frames as a multipart JPEG stream and reads
// that stream back on the console.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/junsooki/telecar/internal/capture"
	"github.com/junsooki/telecar/internal/mjpeg"
	"github.com/junsooki/telecar/internal/transport"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Hooks are optional callbacks for viewer and camera events.
type Hooks struct {
	OnViewers      func(n int)
	OnCameraFailed func(err error)
}

// Health is the /healthz response body.
type Health struct {
	Camera  string `json:"camera"`
	Viewers int    `json:"viewers"`
	Frames  uint64 `json:"frames,omitempty"`
	Misses  uint64 `json:"misses,omitempty"`
}

type statser interface {
	Stats() capture.Stats
}

// Server streams frames from one source to any number of viewers. Each
// viewer runs its own capture loop; a slow viewer only delays itself.
type Server struct {
	src   transport.FrameSource
	hooks Hooks
	mux   *http.ServeMux

	mu      sync.Mutex
	viewers map[string]string

	served     atomic.Uint64
	failedOnce sync.Once
}

// NewServer creates a stream server reading from src.
func NewServer(src transport.FrameSource, hooks Hooks) *Server {
	s := &Server{
		src:     src,
		hooks:   hooks,
		mux:     http.NewServeMux(),
		viewers: make(map[string]string),
	}
	s.mux.HandleFunc("GET /video", s.handleVideo)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handle registers an extra handler on the server's mux.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Viewers returns the number of connected viewers.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

// Served returns the total number of parts written across all viewers.
func (s *Server) Served() uint64 {
	return s.served.Load()
}

// Serve accepts HTTP connections on ln until ctx is cancelled, then shuts
// down gracefully. Open video responses end when ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("stream server started on %s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stream serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("stream shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	if s.src.Failed() {
		http.Error(w, "camera failed", http.StatusServiceUnavailable)
		return
	}

	id := uuid.NewString()
	s.addViewer(id, r.RemoteAddr)
	defer s.removeViewer(id)

	h := w.Header()
	h.Set("Content-Type", mjpeg.ContentType)
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	ctx := r.Context()
	var sent int
	for {
		frame, err := s.src.Capture(ctx)
		if err != nil {
			switch {
			case errors.Is(err, capture.ErrCameraFailed):
				s.reportFailure(err)
			case errors.Is(err, capture.ErrClosed), ctx.Err() != nil:
			default:
				log.Printf("viewer %s: capture: %v", id[:8], err)
			}
			log.Printf("viewer %s left after %d frames", id[:8], sent)
			return
		}

		if err := rc.SetWriteDeadline(time.Now().Add(writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Printf("viewer %s: set deadline: %v", id[:8], err)
		}
		if err := mjpeg.WritePart(w, frame.Data); err != nil {
			log.Printf("viewer %s disconnected after %d frames: %v", id[:8], sent, err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Printf("viewer %s disconnected after %d frames: %v", id[:8], sent, err)
			return
		}
		sent++
		s.served.Add(1)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{Camera: "ok", Viewers: s.Viewers()}
	if s.src.Failed() {
		h.Camera = "failed"
	}
	if st, ok := s.src.(statser); ok {
		stats := st.Stats()
		h.Frames, h.Misses = stats.Frames, stats.Misses
	}
	w.Header().Set("Content-Type", "application/json")
	if h.Camera != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(h)
}

func (s *Server) addViewer(id, addr string) {
	s.mu.Lock()
	s.viewers[id] = addr
	n := len(s.viewers)
	s.mu.Unlock()
	log.Printf("viewer %s connected from %s (%d watching)", id[:8], addr, n)
	if s.hooks.OnViewers != nil {
		s.hooks.OnViewers(n)
	}
}

func (s *Server) removeViewer(id string) {
	s.mu.Lock()
	delete(s.viewers, id)
	n := len(s.viewers)
	s.mu.Unlock()
	if s.hooks.OnViewers != nil {
		s.hooks.OnViewers(n)
	}
}

func (s *Server) reportFailure(err error) {
	s.failedOnce.Do(func() {
		log.Printf("camera: %v", err)
		if s.hooks.OnCameraFailed != nil {
			s.hooks.OnCameraFailed(err)
		}
	})
}
