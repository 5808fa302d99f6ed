// Package lifecycle publishes stream open/close notices for operators.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oremus-labs/catchat/internal/stream"
	"github.com/redis/go-redis/v9"
)

// Notice types.
const (
	TypeStreamOpened = "stream.opened"
	TypeStreamClosed = "stream.closed"
)

const publishTimeout = 2 * time.Second

// Notice is the payload published for each lifecycle change.
type Notice struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Data      NoticeData `json:"data"`
}

// NoticeData describes the stream a notice refers to.
type NoticeData struct {
	StreamID   string `json:"streamId"`
	RemoteAddr string `json:"remoteAddr,omitempty"`
	Frames     int    `json:"frames"`
	Reason     string `json:"reason,omitempty"`
}

// Publisher forwards notices to a Redis channel. A Publisher without a client
// drops notices, so it is always safe to install as a stream.Observer.
type Publisher struct {
	client redis.UniversalClient
	logger *log.Logger
	ch     string

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// Options configure the publisher.
type Options struct {
	Client  redis.UniversalClient
	Logger  *log.Logger
	Channel string
}

// NewPublisher creates a new lifecycle publisher.
func NewPublisher(opts Options) *Publisher {
	channel := opts.Channel
	if channel == "" {
		channel = "catchat-lifecycle"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Publisher{
		client: opts.Client,
		logger: opts.Logger,
		ch:     channel,
	}
}

// Channel returns the Redis channel notices are published on.
func (p *Publisher) Channel() string {
	return p.ch
}

// StreamOpened implements stream.Observer.
func (p *Publisher) StreamOpened(s stream.Session) {
	p.publishAsync(newNotice(TypeStreamOpened, s))
}

// StreamClosed implements stream.Observer.
func (p *Publisher) StreamClosed(s stream.Session) {
	p.publishAsync(newNotice(TypeStreamClosed, s))
}

// Publish sends a notice to Redis.
func (p *Publisher) Publish(ctx context.Context, n Notice) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if err := p.client.Publish(ctx, p.ch, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Close stops accepting notices and waits for publishes already started.
// Call it before closing the Redis client.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lifecycle: waiting for pending notices: %w", ctx.Err())
	}
}

// publishAsync keeps Redis latency off the stream goroutine.
func (p *Publisher) publishAsync(n Notice) {
	if p.client == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Printf("lifecycle: dropping %s notice for %s: publisher closed", n.Type, n.Data.StreamID)
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, n); err != nil {
			p.logger.Printf("lifecycle: dropping %s notice for %s: %v", n.Type, n.Data.StreamID, err)
		}
	}()
}

func newNotice(kind string, s stream.Session) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Type:      kind,
		Timestamp: time.Now().UTC(),
		Data: NoticeData{
			StreamID:   s.ID,
			RemoteAddr: s.RemoteAddr,
			Frames:     s.Frames,
			Reason:     s.Reason,
		},
	}
}
