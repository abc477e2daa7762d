package pipeline

import (
	"context"

	"github.com/dagflow/dagflow/internal/exec"
)

// Run collects the pipeline if needed and drains its queue under the
// configured execution backend. Grounded on original_source/pipeline.py's
// run(), which calls collect() internally when the queue is still empty.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	needsCollect := p.queue == nil || p.queue.Empty()
	p.mu.Unlock()

	if needsCollect {
		if err := p.Collect(ctx); err != nil {
			return err
		}
	}

	p.mu.Lock()
	q := p.queue
	p.mu.Unlock()

	ex := exec.New(p.DAG, q, p.opts.ExecMode, p.opts.Workers, p.opts.GCEnabled, p.opts.Logger)
	return ex.Run(ctx)
}
