package pipeline

import (
	"context"

	"github.com/dagflow/dagflow/internal/queue"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Collect composes the pipeline if not already done, computes a
// topological order over its DAG, and enqueues every activity in that
// order, transitioning each to Queued. Grounded on
// original_source/pipeline.py's collect().
func (p *Pipeline) Collect(ctx context.Context) error {
	if len(p.DAG.NodeIDs()) == 0 {
		if err := p.Compose(nil); err != nil {
			return err
		}
	}

	p.mu.Lock()
	if p.queue == nil {
		q, err := queue.New(p.opts.QueueBackend, 0)
		if err != nil {
			p.mu.Unlock()
			return err
		}
		p.queue = q
	}
	q := p.queue
	p.mu.Unlock()

	order, err := p.DAG.TopologicalOrder()
	if err != nil {
		return err
	}

	for _, tid := range order {
		for _, act := range p.DAG.Activities(tid) {
			if err := q.Enqueue(ctx, act, true); err != nil {
				return err
			}
			act.SetStatus(taskgraph.StatusQueued)
		}
	}
	return nil
}
