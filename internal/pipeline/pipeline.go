// Package pipeline implements Pipeline.compose/collect/run (SPEC_FULL.md
// §4.2, §4.7): translating a list of step specifications, including nested
// pipelines, into a validated DAG, then draining it under a chosen
// execution backend. Grounded directly on original_source/pipeline.py's
// compose/collect/run/_process_dep/_get_task_data methods, restructured per
// the teacher's Prepare/Verify/Apply-style separation of concerns
// (internal/domain/pipeline/service.go in the reference pack).
package pipeline

import (
	"sync"

	"github.com/dagflow/dagflow/internal/exec"
	"github.com/dagflow/dagflow/internal/ids"
	"github.com/dagflow/dagflow/internal/ports"
	"github.com/dagflow/dagflow/internal/queue"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Options configures a Pipeline's execution backend.
type Options struct {
	QueueBackend string // see internal/queue backend names; default "default"
	ExecMode     exec.Mode
	Workers      int
	GCEnabled    bool
	Logger       ports.Logger
}

// Pipeline composes a list of steps (Activities, some of which may wrap a
// nested Pipeline via Activity.SubPipeline) into a DAG and drains it under a
// chosen concurrency model.
type Pipeline struct {
	PID   string
	Name  string
	Steps []*taskgraph.Activity
	DAG   *taskgraph.DAG
	opts  Options

	mu        sync.Mutex
	byName    map[string]*taskgraph.Activity
	scheduled map[string]struct{}
	queue     queue.Queue
}

// New constructs a Pipeline from a step list. The DAG is not built until
// Compose (directly, or indirectly via Collect/Run) is called.
func New(name string, steps []*taskgraph.Activity, opts Options) *Pipeline {
	if opts.QueueBackend == "" {
		opts.QueueBackend = queue.BackendDefault
	}
	return &Pipeline{
		PID:       ids.New(),
		Name:      name,
		Steps:     steps,
		DAG:       taskgraph.New(),
		opts:      opts,
		byName:    make(map[string]*taskgraph.Activity),
		scheduled: make(map[string]struct{}),
	}
}

// LastStepTaskSpec implements taskgraph.PipelineRef: it resolves to the
// TaskSpec of the pipeline's last step, recursing through a trailing
// nested pipeline if the last step itself wraps one.
func (p *Pipeline) LastStepTaskSpec() (*taskgraph.TaskSpec, bool) {
	if len(p.Steps) == 0 {
		return nil, false
	}
	last := p.Steps[len(p.Steps)-1]
	if last.SubPipeline != nil {
		return last.SubPipeline.LastStepTaskSpec()
	}
	if last.Task == nil {
		return nil, false
	}
	return last.Task, true
}

// ActivityByName implements taskgraph.PipelineRef, looking up an activity
// by name among this pipeline's own steps and, once Compose has merged
// them, the steps of its nested sub-pipelines. A name used by one of this
// pipeline's own steps takes precedence over the same name in a
// sub-pipeline.
func (p *Pipeline) ActivityByName(name string) (*taskgraph.Activity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.byName[name]
	return a, ok
}

// NodeActivities implements taskgraph.PipelineRef, returning the activities
// scheduled at the DAG node for the given TaskSpec id.
func (p *Pipeline) NodeActivities(tid string) []*taskgraph.Activity {
	return p.DAG.Activities(tid)
}

// HasActivity implements taskgraph.PipelineRef.
func (p *Pipeline) HasActivity(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.scheduled[id]
	return ok
}

// markScheduled records that act was scheduled within this pipeline's own
// steps, so NodeActivities results for a TaskSpec it shares with an
// unrelated branch or pipeline can be filtered back down to just the
// activities this pipeline actually owns.
func (p *Pipeline) markScheduled(act *taskgraph.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled[act.ID] = struct{}{}
}

// adoptScheduled merges another pipeline's scheduled-id set into this one,
// used when a sub-pipeline's steps are merged into the parent during compose.
func (p *Pipeline) adoptScheduled(sub *Pipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range sub.scheduled {
		p.scheduled[id] = struct{}{}
	}
}

// GetActivityByName looks up an activity by name, failing with NotFound.
func (p *Pipeline) GetActivityByName(name string) (*taskgraph.Activity, error) {
	a, ok := p.ActivityByName(name)
	if !ok {
		return nil, taskgraph.NewNotFoundError(name)
	}
	return a, nil
}

func (p *Pipeline) indexByName(act *taskgraph.Activity) {
	if act.Name == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byName[act.Name] = act
}
