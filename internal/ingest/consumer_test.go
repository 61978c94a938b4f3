package ingest

import (
	"bytes"
	"context"
	stderrs "errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Station-Manager/orderdebug"
	"github.com/Station-Manager/orderdebug/internal/oplog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	mu     sync.Mutex
	events []orderdebug.Event
}

func (b *recordingBus) Publish(_ context.Context, ev orderdebug.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return 1
}

func (b *recordingBus) received() []orderdebug.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]orderdebug.Event(nil), b.events...)
}

// fakeReader serves queued results, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []fetchResult
	committed []int64
	closed    bool
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func message(offset int64, value string) fetchResult {
	return fetchResult{msg: kafka.Message{Topic: "order-events", Offset: offset, Value: []byte(value)}}
}

func TestConsumer_Run(t *testing.T) {
	var logs bytes.Buffer
	logger, err := oplog.New(&logs, "debug")
	require.NoError(t, err)

	reader := &fakeReader{queue: []fetchResult{
		message(1, `{"type":"new_order","payload":{"order_id":101}}`),
		message(2, `{"type":"mystery","payload":{}}`),
		{err: stderrs.New("broker not available")},
		message(3, `{"type":"status_changed","payload":{"order_id":101,"old_status":"pending","new_status":"processing"}}`),
	}}
	bus := &recordingBus{}
	c := NewConsumerWithReader(reader, bus, logger)
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	events := bus.received()
	require.Len(t, events, 2)
	assert.Equal(t, orderdebug.NewOrder{OrderID: 101}, events[0])
	assert.Equal(t, orderdebug.KindStatusChanged, events[1].Kind())
	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	assert.True(t, reader.closed)
	assert.Contains(t, logs.String(), "Skipping undecodable host event.")
	assert.Contains(t, logs.String(), "broker not available")
}

func TestConsumer_ReaderClosed(t *testing.T) {
	reader := &fakeReader{queue: []fetchResult{{err: io.EOF}}}
	c := NewConsumerWithReader(reader, &recordingBus{}, nil)
	assert.Error(t, c.Run(context.Background()))
	assert.True(t, reader.closed)
}

func TestConsumer_HandleMessage(t *testing.T) {
	bus := &recordingBus{}
	c := NewConsumerWithReader(&fakeReader{}, bus, nil)

	c.handleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.Empty(t, bus.received())

	c.handleMessage(context.Background(), kafka.Message{Value: []byte(`{"type":"meta_updated","payload":{"post_id":4,"post_type":"shop_order","meta_key":"_paid_date"}}`)})
	require.Len(t, bus.received(), 1)
	assert.Equal(t, "_paid_date", bus.received()[0].(orderdebug.MetaUpdated).MetaKey)
}

func TestTopicProbe(t *testing.T) {
	ctx := context.Background()

	err := TopicProbe{Topic: "order-events"}.Probe(ctx)
	assert.Error(t, err)

	err = TopicProbe{Brokers: []string{"127.0.0.1:9092"}}.Probe(ctx)
	assert.Error(t, err)

	// nothing listens on port 1
	err = TopicProbe{Brokers: []string{"127.0.0.1:1"}, Topic: "order-events", Timeout: time.Second}.Probe(ctx)
	assert.Error(t, err)
}
