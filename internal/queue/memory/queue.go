// Package memory provides an in-memory implementation of the queue
// interfaces. This is the default stream in memory mode and in tests,
// where no external broker is available.
package memory

import (
	"context"
	"sync"

	"sentinel-go/internal/queue"
)

// Queue is an in-memory implementation of both Producer and Consumer
// interfaces. Messages are stored in a channel, allowing simple pub/sub
// within a process. Safe for concurrent use.
type Queue struct {
	messages chan *queue.Message
	closed   bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewQueue creates a new in-memory queue with the specified buffer size.
// Publish blocks once the buffer is full until space is available or the
// context is canceled.
func NewQueue(bufferSize int) *Queue {
	return &Queue{
		messages: make(chan *queue.Message, bufferSize),
	}
}

// Publish sends a message to the in-memory queue.
func (q *Queue) Publish(ctx context.Context, msg *queue.Message) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins consuming messages and calls the handler for each one.
// This blocks until the context is canceled or the queue is closed.
func (q *Queue) Start(ctx context.Context, handler queue.MessageHandler) error {
	q.wg.Add(1)
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-q.messages:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				// Handler failures are the consumer's problem; keep draining.
				continue
			}
		}
	}
}

// Close shuts down the queue, stopping all consumers.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.messages)
	q.wg.Wait()
	return nil
}

// Len returns the current number of buffered messages. Useful for tests.
func (q *Queue) Len() int {
	return len(q.messages)
}

// Drain removes and returns all currently buffered messages. Useful for
// tests asserting on published lifecycle events.
func (q *Queue) Drain() []*queue.Message {
	var out []*queue.Message
	for {
		select {
		case msg := <-q.messages:
			out = append(out, msg)
		default:
			return out
		}
	}
}
