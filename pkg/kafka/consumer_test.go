package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
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

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func eventMessage(t *testing.T, offset int64, eventType string) kafka.Message {
	t.Helper()
	event, err := NewEvent(eventType, "ord-1", "order", "order-service", map[string]string{"order_id": "ord-1"})
	require.NoError(t, err)
	raw, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "ecommerce.order.created", Offset: offset, Value: raw}
}

func runConsumer(t *testing.T, c *Consumer, r *fakeReader, wantCommits int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(r.commits()) >= wantCommits }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, r.closed)
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		eventMessage(t, 1, "order.created"),
		{Topic: "ecommerce.order.created", Offset: 2, Value: []byte("not json")},
	}}
	var seen []string
	c := &Consumer{reader: r, group: "reviews", logger: testLogger(), backoff: time.Millisecond,
		handler: func(_ context.Context, e *Event) error {
			seen = append(seen, e.EventType)
			return nil
		}}

	runConsumer(t, c, r, 2)
	assert.Equal(t, []string{"order.created"}, seen)
	assert.Equal(t, []int64{1, 2}, r.commits())
}

func TestConsumer_RetriesThenParksInDLQ(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 7, "order.created")}}
	w := &fakeWriter{}
	attempts := 0
	c := (&Consumer{reader: r, group: "reviews", logger: testLogger(), backoff: time.Millisecond,
		handler: func(context.Context, *Event) error {
			attempts++
			return errors.New("redis down")
		}}).WithDLQ(&DLQProducer{writer: w, logger: testLogger()})

	runConsumer(t, c, r, 1)
	assert.Equal(t, maxHandlerRetries, attempts)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "reviews.dlq.ecommerce.order.created", w.msgs[0].Topic)
}
