package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oremus-labs/catchat/internal/stream"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ stream.Observer = (*Publisher)(nil)

func TestPublisherWithoutClientIsNoop(t *testing.T) {
	p := NewPublisher(Options{})

	assert.Equal(t, "catchat-lifecycle", p.Channel())
	require.NoError(t, p.Publish(context.Background(), Notice{Type: TypeStreamOpened}))

	p.StreamOpened(stream.Session{ID: "s-1"})
	p.StreamClosed(stream.Session{ID: "s-1", Reason: stream.ReasonCancelled})
}

func TestNewNoticeCopiesSession(t *testing.T) {
	n := newNotice(TypeStreamClosed, stream.Session{
		ID:         "s-42",
		RemoteAddr: "10.0.0.1:4000",
		Frames:     7,
		Reason:     stream.ReasonWriteFailed,
	})

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, TypeStreamClosed, n.Type)
	assert.False(t, n.Timestamp.IsZero())

	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, "s-42", data["streamId"])
	assert.Equal(t, "10.0.0.1:4000", data["remoteAddr"])
	assert.Equal(t, float64(7), data["frames"])
	assert.Equal(t, "write_failed", data["reason"])
}

func newRedisPair(t *testing.T) (publisherClient, subscriberClient *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	publisherClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	subscriberClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { subscriberClient.Close() })
	return publisherClient, subscriberClient
}

func subscribe(t *testing.T, client *redis.Client, channel string) <-chan *redis.Message {
	t.Helper()
	sub := client.Subscribe(context.Background(), channel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	return sub.Channel()
}

func receiveNotice(t *testing.T, messages <-chan *redis.Message) Notice {
	t.Helper()
	select {
	case msg := <-messages:
		var n Notice
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no lifecycle notice received")
		return Notice{}
	}
}

func TestPublisherDeliversNoticesToChannel(t *testing.T) {
	pubClient, subClient := newRedisPair(t)
	t.Cleanup(func() { pubClient.Close() })
	messages := subscribe(t, subClient, "catchat-lifecycle")

	var logs bytes.Buffer
	p := NewPublisher(Options{Client: pubClient, Logger: log.New(&logs, "", 0)})

	p.StreamOpened(stream.Session{ID: "s-1", RemoteAddr: "10.0.0.9"})
	opened := receiveNotice(t, messages)
	assert.Equal(t, TypeStreamOpened, opened.Type)
	assert.Equal(t, "s-1", opened.Data.StreamID)
	assert.Equal(t, "10.0.0.9", opened.Data.RemoteAddr)
	assert.Empty(t, opened.Data.Reason)

	p.StreamClosed(stream.Session{ID: "s-1", Frames: 4, Reason: stream.ReasonCancelled})
	closed := receiveNotice(t, messages)
	assert.Equal(t, TypeStreamClosed, closed.Type)
	assert.Equal(t, 4, closed.Data.Frames)
	assert.Equal(t, "cancelled", closed.Data.Reason)
	assert.NotEqual(t, opened.ID, closed.ID)

	assert.Empty(t, logs.String())
}

func TestCloseFlushesPendingNoticesBeforeClientClose(t *testing.T) {
	pubClient, subClient := newRedisPair(t)
	messages := subscribe(t, subClient, "custom-channel")

	var logs bytes.Buffer
	p := NewPublisher(Options{Client: pubClient, Logger: log.New(&logs, "", 0), Channel: "custom-channel"})

	for _, id := range []string{"a", "b", "c"} {
		p.StreamClosed(stream.Session{ID: id, Reason: stream.ReasonCancelled})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))
	require.NoError(t, pubClient.Close())

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		n := receiveNotice(t, messages)
		assert.Equal(t, TypeStreamClosed, n.Type)
		seen[n.Data.StreamID] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, seen)
	assert.Empty(t, logs.String())
}

func TestClosedPublisherDropsNewNotices(t *testing.T) {
	pubClient, _ := newRedisPair(t)
	t.Cleanup(func() { pubClient.Close() })

	var logs bytes.Buffer
	p := NewPublisher(Options{Client: pubClient, Logger: log.New(&logs, "", 0)})
	require.NoError(t, p.Close(context.Background()))

	p.StreamOpened(stream.Session{ID: "late"})
	assert.Contains(t, logs.String(), "dropping stream.opened notice for late: publisher closed")
}
