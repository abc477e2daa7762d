package queue

import (
	"context"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Sequential is a single-threaded bounded FIFO. No blocking semantics or
// locking are required: a single worker goroutine owns it exclusively.
type Sequential struct {
	items   []*taskgraph.Activity
	maxSize int
	done    int
}

// NewSequential returns a Sequential queue. maxSize <= 0 means unbounded.
func NewSequential(maxSize int) *Sequential {
	return &Sequential{maxSize: maxSize}
}

func (q *Sequential) Enqueue(_ context.Context, act *taskgraph.Activity, _ bool) error {
	if q.Full() {
		return taskgraph.NewValidationError("queue is full", nil)
	}
	q.items = append(q.items, act)
	return nil
}

func (q *Sequential) Dequeue(_ context.Context, _ bool) (*taskgraph.Activity, bool, error) {
	if len(q.items) == 0 {
		return nil, false, nil
	}
	act := q.items[0]
	q.items = q.items[1:]
	return act, true, nil
}

func (q *Sequential) Done() { q.done++ }

func (q *Sequential) Join(_ context.Context) error { return nil }

func (q *Sequential) Size() int { return len(q.items) }

func (q *Sequential) Empty() bool { return len(q.items) == 0 }

func (q *Sequential) Full() bool { return q.maxSize > 0 && len(q.items) >= q.maxSize }

var _ Queue = (*Sequential)(nil)
