// Package exec implements the executor/worker component (SPEC_FULL.md
// §4.5): it consumes the topologically ordered activity queue, gathers
// inputs from already-completed upstream activities, invokes the task,
// stores results, and marks completion. Grounded on
// internal/engine/executor.go's goroutine + WaitGroup + worker-pool-channel
// pattern, adapted to the flat queue + related-list input model of
// original_source/pipeline.py's run() loop.
package exec

import (
	"context"
	"sync"

	"github.com/dagflow/dagflow/internal/ports"
	"github.com/dagflow/dagflow/internal/queue"
	"github.com/dagflow/dagflow/internal/reclaim"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Mode selects one of the three scheduling models described in
// SPEC_FULL.md §5.
type Mode int

const (
	Sequential Mode = iota
	ThreadPool
	Cooperative
)

// Executor drains a Queue of Activities against a DAG, invoking each
// Activity's task once all of its related upstream results are available.
type Executor struct {
	Graph     *taskgraph.DAG
	Queue     queue.Queue
	Mode      Mode
	Workers   int // worker count for ThreadPool and Cooperative; ignored for Sequential
	GCEnabled bool
	Logger    ports.Logger
}

// New constructs an Executor. Workers defaults to 1 when <= 0.
func New(graph *taskgraph.DAG, q queue.Queue, mode Mode, workers int, gcEnabled bool, logger ports.Logger) *Executor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Executor{Graph: graph, Queue: q, Mode: mode, Workers: workers, GCEnabled: gcEnabled, Logger: logger}
}

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...interface{}) {}
func (noopLogger) Info(context.Context, string, ...interface{})  {}
func (noopLogger) Warn(context.Context, string, ...interface{})  {}
func (noopLogger) Error(context.Context, string, ...interface{}) {}
func (n noopLogger) With(...interface{}) ports.Logger             { return n }

// Run drains the queue according to the configured Mode. On the first
// ActivityFailed, the run aborts: remaining queued activities are not
// executed, and the graph is left in place so callers may inspect which
// activities completed.
func (e *Executor) Run(ctx context.Context) error {
	switch e.Mode {
	case Sequential:
		return e.runSequential(ctx)
	case Cooperative:
		return e.runPool(ctx, true)
	case ThreadPool:
		return e.runPool(ctx, false)
	default:
		return e.runSequential(ctx)
	}
}

func (e *Executor) runSequential(ctx context.Context) error {
	for {
		act, ok, err := e.Queue.Dequeue(ctx, false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := e.process(ctx, act); err != nil {
			return err
		}
	}
}

// runPool launches Workers goroutines draining the queue concurrently. The
// cooperative flag only affects status labeling (each dequeued activity
// passes through Waiting before Running): both the thread-pool and
// cooperative models are implemented with goroutines + a thread-safe queue
// whose Dequeue/Join are the suspension points (SPEC_FULL.md §5); the
// distinction the source drew between OS threads and single-thread
// interleaving collapses under Go's scheduler, which already multiplexes
// goroutines cooperatively at blocking points.
func (e *Executor) runPool(ctx context.Context, cooperative bool) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < e.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				act, ok, err := e.Queue.Dequeue(runCtx, true)
				if err != nil {
					if runCtx.Err() != nil {
						return
					}
					fail(err)
					return
				}
				if !ok {
					return
				}
				if cooperative {
					act.SetStatus(taskgraph.StatusWaiting)
				}
				if err := e.process(runCtx, act); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

	joinErr := e.Queue.Join(runCtx)
	// Once every enqueued activity has been Done, release any worker still
	// blocked in Dequeue waiting for an item that will never arrive.
	cancel()
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if joinErr != nil && ctx.Err() == nil {
		return joinErr
	}
	return nil
}

func (e *Executor) process(ctx context.Context, act *taskgraph.Activity) error {
	if err := waitForRelated(ctx, e.Graph, act); err != nil {
		return err
	}
	inputs := gatherInputs(e.Graph, act)

	e.Logger.Debug(ctx, "activity running", "activity_id", act.ID, "activity_name", act.Name)
	if err := act.Run(ctx, inputs); err != nil {
		e.Logger.Error(ctx, "activity failed", "activity_id", act.ID, "activity_name", act.Name, "error", err)
		e.Queue.Done()
		return taskgraph.NewActivityFailedError(act.Name, act.ID, err)
	}
	e.Logger.Debug(ctx, "activity completed", "activity_id", act.ID, "activity_name", act.Name)

	e.Queue.Done()

	if e.GCEnabled && act.Task != nil {
		reclaim.AfterCompletion(e.Graph, act.Task.TID)
	}
	return nil
}

// waitForRelated blocks until every upstream activity in act.Related has
// reached a terminal status. Per the Design Notes, this replaces the
// source's sleep-and-retry busy wait with a per-activity completion
// signal: under the thread-pool and cooperative models, a worker may
// dequeue a downstream activity before its upstream has finished (both are
// enqueued up front in topological order by collect), so the downstream
// must wait here rather than assume the input is already present.
func waitForRelated(ctx context.Context, g *taskgraph.DAG, act *taskgraph.Activity) error {
	for _, id := range act.Related {
		upstream, ok := g.ActivityByAnyID(id)
		if !ok {
			continue
		}
		if err := upstream.WaitCompletion(ctx); err != nil {
			return err
		}
	}
	return nil
}

// gatherInputs assembles an Activity's positional input tuple: iterate
// DependsOn in order, deduplicated by TaskSpec id; for each upstream
// TaskSpec, scan its node's activities and collect the result of every
// activity whose id appears in act.Related. null/unset results are skipped
// silently.
func gatherInputs(g *taskgraph.DAG, act *taskgraph.Activity) []any {
	var inputs []any
	seenDeps := make(map[string]bool, len(act.DependsOn))
	related := make(map[string]bool, len(act.Related))
	for _, id := range act.Related {
		related[id] = true
	}

	for _, dep := range act.DependsOn {
		if dep.Kind != taskgraph.ByTask || dep.Task == nil {
			continue
		}
		tid := dep.Task.TID
		if seenDeps[tid] {
			continue
		}
		seenDeps[tid] = true

		for _, upstream := range g.Activities(tid) {
			if !related[upstream.ID] {
				continue
			}
			if result, ok := upstream.Result(); ok && result != nil {
				inputs = append(inputs, result)
			}
		}
	}
	return inputs
}
