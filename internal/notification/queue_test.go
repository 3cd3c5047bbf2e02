package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu    sync.Mutex
	keys  []string
	msgs  []Message
	err   error
	block chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, v any) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, v.(Message))
	return p.err
}

func (p *recordingPublisher) published() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.msgs...)
}

func TestQueue_PublishesInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	q := NewQueue(pub, 10, zap.NewNop())

	require.True(t, q.Enqueue(Message{OrderID: "o1", Type: TypeShipped}))
	require.True(t, q.Enqueue(Message{OrderID: "o2", Type: TypeCancelled}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))

	msgs := pub.published()
	require.Len(t, msgs, 2)
	assert.Equal(t, "o1", msgs[0].OrderID)
	assert.Equal(t, "o2", msgs[1].OrderID)
	assert.Equal(t, []string{"o1", "o2"}, pub.keys)
}

func TestQueue_FullDoesNotBlock(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	q := NewQueue(pub, 1, zap.NewNop())

	// the worker takes the first message and blocks in Publish; the second
	// fills the buffer; the third is refused
	require.True(t, q.Enqueue(Message{OrderID: "o1"}))
	require.Eventually(t, func() bool { return q.Enqueue(Message{OrderID: "o2"}) }, time.Second, time.Millisecond)

	done := make(chan bool)
	go func() { done <- q.Enqueue(Message{OrderID: "o3"}) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(pub.block)
	require.NoError(t, q.Close(context.Background()))
}

func TestQueue_ClosedRefuses(t *testing.T) {
	q := NewQueue(&recordingPublisher{}, 4, zap.NewNop())
	require.NoError(t, q.Close(context.Background()))

	assert.False(t, q.Enqueue(Message{OrderID: "o1"}))
	// closing twice is harmless
	assert.NoError(t, q.Close(context.Background()))
}

func TestQueue_PublishErrorKeepsDraining(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	q := NewQueue(pub, 4, zap.NewNop())

	q.Enqueue(Message{OrderID: "o1"})
	q.Enqueue(Message{OrderID: "o2"})
	require.NoError(t, q.Close(context.Background()))

	assert.Len(t, pub.published(), 2)
}

func TestQueue_CloseHonorsContext(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	q := NewQueue(pub, 4, zap.NewNop())
	q.Enqueue(Message{OrderID: "o1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	close(pub.block)
}
