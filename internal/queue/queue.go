// Package queue implements the uniform enqueue/dequeue/empty/full/done
// surface described in SPEC_FULL.md §4.4, with three backends: bounded FIFO
// for sequential use, concurrent FIFO for worker pools, and cooperative FIFO
// for single-thread interleaving. Grounded on the source's
// IQueue/TaskQueue/AsyncTaskQueue/QueueFactory pattern, adapted to Go
// channels and sync primitives.
package queue

import (
	"context"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Queue is the uniform surface every backend implements.
type Queue interface {
	// Enqueue adds an activity to the queue. It blocks if the queue is
	// full and block is true, honoring ctx cancellation.
	Enqueue(ctx context.Context, act *taskgraph.Activity, block bool) error
	// Dequeue removes and returns the next activity. It blocks if the
	// queue is empty and block is true, honoring ctx cancellation.
	Dequeue(ctx context.Context, block bool) (*taskgraph.Activity, bool, error)
	// Done signals that a previously dequeued activity has finished.
	Done()
	// Join blocks until every enqueued activity has been Done.
	Join(ctx context.Context) error
	Size() int
	Empty() bool
	Full() bool
}

// Backend names accepted by the factory, mirroring the source's
// QueueFactory.get_queue(type) dispatch.
const (
	BackendDefault         = "default"
	BackendSequential      = "sequential"
	BackendMultiThreading  = "multi-threading"
	BackendMultiProcessing = "multi-processing"
	BackendAsync           = "asyncio"
	BackendAsyncShort      = "async"
)

// New selects a backend by name. "default"/"multi-threading" and
// "multi-processing" produce a concurrent FIFO (cross-process semantics for
// multi-processing are out of scope for a single Go binary and are served
// by the same in-process implementation); "asyncio"/"async" produces a
// cooperative FIFO; "sequential" produces the single-threaded bounded FIFO,
// the matching backend for exec.Sequential mode with no worker goroutines
// or synchronization overhead. Any other name fails with a validation error.
func New(backend string, maxSize int) (Queue, error) {
	switch backend {
	case "", BackendDefault, BackendMultiThreading, BackendMultiProcessing:
		return NewConcurrent(maxSize), nil
	case BackendSequential:
		return NewSequential(maxSize), nil
	case BackendAsync, BackendAsyncShort:
		return NewCooperative(maxSize), nil
	default:
		return nil, taskgraph.NewValidationError("unknown queue backend", map[string]interface{}{"backend": backend})
	}
}
