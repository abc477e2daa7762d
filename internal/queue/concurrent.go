package queue

import (
	"context"
	"sync"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Concurrent is a thread-safe FIFO backing the thread-pool executor.
// Dequeue and Join are the queue's suspension points; happens-before is
// established by the channel send/receive pairing the source relied on
// stdlib queue.Queue for.
type Concurrent struct {
	ch chan *taskgraph.Activity

	mu        sync.Mutex
	outstanding int
	drained   chan struct{}
}

// NewConcurrent returns a Concurrent queue. maxSize <= 0 means unbounded
// (backed by a large buffer rather than a truly unbounded channel).
func NewConcurrent(maxSize int) *Concurrent {
	size := maxSize
	if size <= 0 {
		size = 1 << 16
	}
	return &Concurrent{
		ch:      make(chan *taskgraph.Activity, size),
		drained: make(chan struct{}, 1),
	}
}

func (q *Concurrent) Enqueue(ctx context.Context, act *taskgraph.Activity, block bool) error {
	q.mu.Lock()
	q.outstanding++
	q.mu.Unlock()

	if block {
		select {
		case q.ch <- act:
			return nil
		case <-ctx.Done():
			q.undoEnqueue()
			return ctx.Err()
		}
	}
	select {
	case q.ch <- act:
		return nil
	default:
		q.undoEnqueue()
		return taskgraph.NewValidationError("queue is full", nil)
	}
}

func (q *Concurrent) undoEnqueue() {
	q.mu.Lock()
	q.outstanding--
	q.mu.Unlock()
}

func (q *Concurrent) Dequeue(ctx context.Context, block bool) (*taskgraph.Activity, bool, error) {
	if block {
		select {
		case act := <-q.ch:
			return act, true, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	select {
	case act := <-q.ch:
		return act, true, nil
	default:
		return nil, false, nil
	}
}

// Done decrements the outstanding counter; when it reaches zero, any
// blocked Join call is released.
func (q *Concurrent) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outstanding--
	if q.outstanding <= 0 {
		select {
		case q.drained <- struct{}{}:
		default:
		}
	}
}

// Join blocks until the outstanding counter reaches zero.
func (q *Concurrent) Join(ctx context.Context) error {
	q.mu.Lock()
	if q.outstanding <= 0 {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	select {
	case <-q.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Concurrent) Size() int { return len(q.ch) }

func (q *Concurrent) Empty() bool { return len(q.ch) == 0 }

func (q *Concurrent) Full() bool { return len(q.ch) == cap(q.ch) }

var _ Queue = (*Concurrent)(nil)
