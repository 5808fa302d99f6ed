// Package stream runs the per-connection event loop behind /events.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oremus-labs/catchat/internal/logutil"
	"github.com/oremus-labs/catchat/internal/metrics"
)

// Close reasons reported to observers and metrics.
const (
	ReasonCancelled   = "cancelled"
	ReasonWriteFailed = "write_failed"
)

// Frame kinds reported to metrics.
const (
	kindConnected = "connected"
	kindEvent     = "event"
)

// ErrFlusherUnsupported indicates the response writer cannot push frames incrementally.
var ErrFlusherUnsupported = errors.New("stream: response writer does not support flushing")

// Sink receives frames in order. Flush pushes buffered bytes to the peer.
type Sink interface {
	io.Writer
	Flush()
}

// NewSink adapts an http.ResponseWriter that supports flushing.
func NewSink(w http.ResponseWriter) (Sink, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrFlusherUnsupported
	}
	return responseSink{Writer: w, flusher: f}, nil
}

type responseSink struct {
	io.Writer
	flusher http.Flusher
}

func (s responseSink) Flush() {
	s.flusher.Flush()
}

// ImageSource resolves the image attached to each event. It must not fail.
type ImageSource interface {
	ImageURL(ctx context.Context) string
}

// Session describes one client stream.
type Session struct {
	ID         string
	RemoteAddr string
	OpenedAt   time.Time
	Frames     int
	Reason     string
}

// Observer is notified when streams open and close.
type Observer interface {
	StreamOpened(Session)
	StreamClosed(Session)
}

type nopObserver struct{}

func (nopObserver) StreamOpened(Session) {}
func (nopObserver) StreamClosed(Session) {}

// Options configure a Streamer.
type Options struct {
	Images   ImageSource
	Delay    DelayFunc
	Pick     func() string
	Now      func() time.Time
	Observer Observer
}

// Streamer produces greeting events for connected clients. One Streamer serves
// every connection; each call to Run owns its own state.
type Streamer struct {
	images   ImageSource
	delay    DelayFunc
	pick     func() string
	now      func() time.Time
	observer Observer
}

// New creates a Streamer. Images is required.
func New(opts Options) *Streamer {
	s := &Streamer{
		images:   opts.Images,
		delay:    opts.Delay,
		pick:     opts.Pick,
		now:      opts.Now,
		observer: opts.Observer,
	}
	if s.delay == nil {
		s.delay = RandomDelay(1, 5, time.Second)
	}
	if s.pick == nil {
		s.pick = RandomGreeting
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// Run writes the connected frame and then one event per delay until ctx is
// cancelled or a write fails. Cancellation is a normal exit and returns nil.
func (s *Streamer) Run(ctx context.Context, sink Sink, session Session) (err error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.OpenedAt = s.now()

	metrics.StreamOpened()
	s.observer.StreamOpened(session)
	logutil.Info("stream opened", logutil.Fields{
		"streamId":   session.ID,
		"remoteAddr": session.RemoteAddr,
	})

	defer func() {
		session.Reason = ReasonCancelled
		if err != nil {
			session.Reason = ReasonWriteFailed
		}
		metrics.StreamClosed(session.Reason)
		s.observer.StreamClosed(session)
		logutil.Info("stream closed", logutil.Fields{
			"streamId": session.ID,
			"frames":   session.Frames,
			"reason":   session.Reason,
			"duration": time.Since(session.OpenedAt).String(),
		})
	}()

	hello := Connected{Type: "connected", Timestamp: Timestamp(s.now())}
	if err := s.emit(sink, hello, kindConnected); err != nil {
		return err
	}
	session.Frames++

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait := time.NewTimer(s.delay())
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil
		case <-wait.C:
		}

		message := s.pick()
		image := s.images.ImageURL(ctx)
		if ctx.Err() != nil {
			return nil
		}

		evt := Event{
			Timestamp: Timestamp(s.now()),
			Message:   message,
			Image:     image,
		}
		if err := s.emit(sink, evt, kindEvent); err != nil {
			return err
		}
		session.Frames++
	}
}

func (s *Streamer) emit(sink Sink, v interface{}, kind string) error {
	frame, err := EncodeFrame(v)
	if err != nil {
		return err
	}
	if _, err := sink.Write(frame); err != nil {
		return fmt.Errorf("write %s frame: %w", kind, err)
	}
	sink.Flush()
	metrics.FrameSent(kind)
	return nil
}
