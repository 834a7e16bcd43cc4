package queue

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 100

// ErrClosed is returned by Enqueue after Close, and by Dequeue once the
// queue is closed and every buffered request has been handed out.
var ErrClosed = errors.New("advance queue closed")

// Request asks for a board to be advanced by up to Steps generations.
type Request struct {
	BoardID string `json:"board_id"`
	Steps   int    `json:"steps"`
}

// Queue is a bounded FIFO of advance requests. Producers block while it is
// full; the consumer blocks while it is empty.
type Queue struct {
	items     chan Request
	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a queue holding at most capacity requests.
// A capacity of zero or less selects DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		items:  make(chan Request, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue adds req, waiting for space while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}

	select {
	case q.items <- req:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest request, waiting while the queue is empty.
func (q *Queue) Dequeue(ctx context.Context) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}

	select {
	case req := <-q.items:
		return req, nil
	case <-q.closed:
		// Hand out what was buffered before the close.
		select {
		case req := <-q.items:
			return req, nil
		default:
			return Request{}, ErrClosed
		}
	case <-ctx.Done():
		return Request{}, ctx.Err()
	}
}

// Close shuts the queue down permanently. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
}

// Len returns the number of buffered requests.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}
