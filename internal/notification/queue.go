package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Publisher delivers a message to the outbound transport.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

const publishTimeout = 10 * time.Second

// Queue decouples request handling from the notification transport. A
// single worker drains the buffer in order; callers never wait on it.
type Queue struct {
	pub    Publisher
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan Message
	done   chan struct{}
}

// NewQueue starts the worker. size is the number of messages held before
// Enqueue starts refusing.
func NewQueue(pub Publisher, size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		pub:    pub,
		logger: logger.With(zap.String("component", "notification_queue")),
		ch:     make(chan Message, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue hands msg to the worker without blocking. It reports false when
// the buffer is full or the queue is closed.
func (q *Queue) Enqueue(msg Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- msg:
		return true
	default:
		return false
	}
}

// Close stops accepting messages and waits for the buffered ones to be
// published, or for ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for msg := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := q.pub.Publish(ctx, msg.OrderID, msg)
		cancel()
		if err != nil {
			q.logger.Warn("failed to publish notification",
				zap.String("order_id", msg.OrderID),
				zap.String("type", string(msg.Type)),
				zap.Error(err))
			continue
		}
		q.logger.Debug("notification published",
			zap.String("order_id", msg.OrderID),
			zap.String("type", string(msg.Type)))
	}
}
