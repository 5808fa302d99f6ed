package handlers

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/catchat/internal/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStreamer struct {
	frames  []string
	err     error
	called  bool
	session stream.Session
	ctx     context.Context
}

func (f *fakeStreamer) Run(ctx context.Context, sink stream.Sink, session stream.Session) error {
	f.called = true
	f.session = session
	f.ctx = ctx
	for _, frame := range f.frames {
		if _, err := sink.Write([]byte(frame)); err != nil {
			return err
		}
		sink.Flush()
	}
	return f.err
}

func TestHealth(t *testing.T) {
	t.Parallel()

	handler := New(nil, Options{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handler.Health(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"status":"ok","message":"Cat Chat SSE Server"}` {
		t.Fatalf("unexpected health body: %s", got)
	}
}

func TestStreamEventsSetsHeadersAndWritesFrames(t *testing.T) {
	t.Parallel()

	streamer := &fakeStreamer{frames: []string{
		"data: {\"type\":\"connected\",\"timestamp\":\"2024-05-01T00:00:00.000000Z\"}\n\n",
	}}
	handler := New(streamer, Options{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)
	c.Set("requestID", "req-123")

	handler.StreamEvents(c)

	if !streamer.called {
		t.Fatalf("expected streamer to run")
	}
	if streamer.session.ID != "req-123" {
		t.Fatalf("expected session id from request id, got %q", streamer.session.ID)
	}
	if streamer.ctx != c.Request.Context() {
		t.Fatalf("expected stream bound to the request context")
	}

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", w.Code)
	}
	wantHeaders := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for key, want := range wantHeaders {
		if got := w.Header().Get(key); got != want {
			t.Fatalf("header %s: got %q want %q", key, got, want)
		}
	}
	if !w.Flushed {
		t.Fatalf("expected frames to be flushed")
	}
	if got := w.Body.String(); got != streamer.frames[0] {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestStreamEventsSwallowsStreamErrors(t *testing.T) {
	t.Parallel()

	streamer := &fakeStreamer{err: errors.New("write connected frame: broken pipe")}
	handler := New(streamer, Options{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	handler.StreamEvents(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected no error frame, got %q", w.Body.String())
	}
}

func TestStreamEventsLogsStreamErrorAsWarning(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	handler := New(&fakeStreamer{err: errors.New("emit event: broken pipe")}, Options{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)
	c.Set("requestID", "550e8400-e29b-41d4-a716-446655440000")

	handler.StreamEvents(c)

	out := logs.String()
	for _, want := range []string{`"level":"warn"`, `"stream_id":"550e8400-e29b-41d4-a716-446655440000"`, `"error":"emit event: broken pipe"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %s, got %q", want, out)
		}
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	handler := New(nil, Options{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/nope", nil)

	handler.NotFound(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"detail":"Not Found"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}
