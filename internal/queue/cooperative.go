package queue

import (
	"context"
	"sync"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Cooperative is a FIFO intended for a single OS thread running many
// interleaved logical workers (goroutines that only ever block at well
// defined suspension points: Dequeue and Join). Items live in a
// mutex-guarded slice, with channels used only to wake waiters; callers are expected to run it under GOMAXPROCS(1) so
// that "concurrent" workers are actually cooperatively multiplexed, the Go
// analogue of the source's asyncio.Queue-backed AsyncTaskQueue.
type Cooperative struct {
	mu          sync.Mutex
	items       []*taskgraph.Activity
	maxSize     int
	outstanding int
	notify      chan struct{}
	drained     chan struct{}
}

// NewCooperative returns a Cooperative queue. maxSize <= 0 means unbounded.
func NewCooperative(maxSize int) *Cooperative {
	return &Cooperative{
		maxSize: maxSize,
		notify:  make(chan struct{}, 1),
		drained: make(chan struct{}, 1),
	}
}

func (q *Cooperative) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Cooperative) Enqueue(ctx context.Context, act *taskgraph.Activity, block bool) error {
	for {
		q.mu.Lock()
		if q.maxSize <= 0 || len(q.items) < q.maxSize {
			q.items = append(q.items, act)
			q.outstanding++
			q.mu.Unlock()
			q.signal()
			return nil
		}
		q.mu.Unlock()
		if !block {
			return taskgraph.NewValidationError("queue is full", nil)
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dequeue is a suspension point: when block is true and the queue is
// empty, it yields to the scheduler (via channel receive, never a sleep
// loop) until an item arrives or ctx is cancelled.
func (q *Cooperative) Dequeue(ctx context.Context, block bool) (*taskgraph.Activity, bool, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			act := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return act, true, nil
		}
		q.mu.Unlock()
		if !block {
			return nil, false, nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// Done decrements the outstanding counter; when it reaches zero, any
// blocked Join call is released.
func (q *Cooperative) Done() {
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

// Join is a suspension point: it blocks until every enqueued activity has
// been Done, without polling.
func (q *Cooperative) Join(ctx context.Context) error {
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

func (q *Cooperative) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Cooperative) Empty() bool { return q.Size() == 0 }

func (q *Cooperative) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxSize > 0 && len(q.items) >= q.maxSize
}

var _ Queue = (*Cooperative)(nil)
