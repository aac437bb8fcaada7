package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentinel-go/internal/queue"
)

func TestQueue_PublishAndConsume(t *testing.T) {
	q := NewQueue(10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Publish(ctx, &queue.Message{Key: []byte("a-1"), Value: []byte("one")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := q.Publish(ctx, &queue.Message{Key: []byte("a-2"), Value: []byte("two")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %v, want 2", q.Len())
	}

	received := make(chan *queue.Message, 2)
	go func() {
		_ = q.Start(ctx, func(ctx context.Context, msg *queue.Message) error {
			received <- msg
			return nil
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(10)
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	err := q.Publish(context.Background(), &queue.Message{Value: []byte("late")})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Publish() error = %v, want ErrQueueClosed", err)
	}

	// Closing twice is a no-op.
	if err := q.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Publish(ctx, &queue.Message{Value: []byte{byte(i)}}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	msgs := q.Drain()
	if len(msgs) != 3 {
		t.Fatalf("len(msgs) = %v, want 3", len(msgs))
	}
	if q.Len() != 0 {
		t.Errorf("Len() after drain = %v, want 0", q.Len())
	}
}
