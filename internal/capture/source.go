package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junsooki/telecar/internal/encoder"
)

const (
	DefaultMaxFailures  = 10
	DefaultRetryDelay   = 5 * time.Millisecond
	DefaultCloseTimeout = 2 * time.Second
)

// Options tune the retry policy of a Source.
type Options struct {
	// MaxFailures is the number of consecutive misses tolerated within one
	// Capture call before the camera is declared failed.
	MaxFailures int
	RetryDelay  time.Duration
	// CloseTimeout bounds how long Close waits for an in-flight Grab
	// before closing the device underneath it.
	CloseTimeout time.Duration
}

// Stats counts captured frames and missed attempts.
type Stats struct {
	Frames uint64
	Misses uint64
}

// Source owns a camera device and produces encoded frames. Capture calls
// are serialized: the device is read by at most one caller at a time.
type Source struct {
	dev          Device
	enc          encoder.Encoder
	maxFailures  int
	retryDelay   time.Duration
	closeTimeout time.Duration

	// busy is the capture lock. seq and devDone are only touched while
	// holding it.
	busy    chan struct{}
	seq     uint64
	devDone bool

	mu     sync.Mutex
	failed error

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	frames atomic.Uint64
	misses atomic.Uint64
}

// NewSource wraps an opened device.
func NewSource(dev Device, enc encoder.Encoder, opts Options) *Source {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = DefaultCloseTimeout
	}
	return &Source{
		dev:          dev,
		enc:          enc,
		maxFailures:  opts.MaxFailures,
		retryDelay:   opts.RetryDelay,
		closeTimeout: opts.CloseTimeout,
		busy:         make(chan struct{}, 1),
	}
}

// Capture blocks until the device yields the next image and returns it
// encoded. Misses are retried up to the failure bound; beyond it the source
// latches into the failed state and returns ErrCameraFailed.
func (s *Source) Capture(ctx context.Context) (*Frame, error) {
	select {
	case s.busy <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.busy }()

	if err := s.failure(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < s.maxFailures; attempt++ {
		if attempt > 0 && s.retryDelay > 0 {
			t := time.NewTimer(s.retryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.closed.Load() || s.devDone {
			return nil, ErrClosed
		}

		data, err := s.grab()
		if err == nil {
			s.seq++
			s.frames.Add(1)
			return &Frame{Data: data, Seq: s.seq, Timestamp: time.Now()}, nil
		}
		if errors.Is(err, io.EOF) || s.closed.Load() {
			s.devDone = true
			return nil, ErrClosed
		}
		s.misses.Add(1)
		lastErr = err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = fmt.Errorf("%w: %d consecutive misses, last: %v", ErrCameraFailed, s.maxFailures, lastErr)
	return nil, s.failed
}

func (s *Source) failure() error {
	if s.closed.Load() || s.devDone {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *Source) grab() ([]byte, error) {
	img, err := s.dev.Grab()
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrTransient
	}
	data, err := s.enc.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrTransient, err)
	}
	return data, nil
}

// Failed reports whether the camera has been declared dead.
func (s *Source) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed != nil
}

// Stats returns capture counters.
func (s *Source) Stats() Stats {
	return Stats{Frames: s.frames.Load(), Misses: s.misses.Load()}
}

// Close releases the camera device. New captures fail with ErrClosed at
// once; an in-flight Grab gets CloseTimeout to finish, after which the
// device is closed anyway so a stalled read cannot hold up shutdown.
// Close is safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		t := time.NewTimer(s.closeTimeout)
		defer t.Stop()
		select {
		case s.busy <- struct{}{}:
			defer func() { <-s.busy }()
		case <-t.C:
			log.Printf("camera: capture still running after %s, closing device", s.closeTimeout)
		}
		s.closeErr = s.dev.Close()
	})
	return s.closeErr
}
