package taskgraph

import (
	"context"
	"sync"

	"github.com/dagflow/dagflow/internal/ids"
)

// Status is a state in the Activity lifecycle: NotStarted -> Queued ->
// (Waiting, cooperative executor only) -> Running -> (Completed | Failed).
// Completed and Failed are terminal: there are no transitions out of either
// during a single run.
type Status string

const (
	StatusNotStarted Status = "NotStarted"
	StatusQueued     Status = "Queued"
	StatusWaiting    Status = "Waiting"
	StatusRunning    Status = "Running"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// DepRefKind tags a DepRef's resolution source, modeling the source's
// interchangeable name string / TaskSpec / Pipeline dependency references as
// a single variant (Design Notes §9).
type DepRefKind int

const (
	ByName DepRefKind = iota
	ByTask
	ByPipeline
)

// PipelineRef is the minimal surface compose needs from a nested pipeline,
// kept as an interface here so taskgraph does not import the pipeline
// package (which imports taskgraph to build on Pipeline/Activity/DAG).
type PipelineRef interface {
	LastStepTaskSpec() (*TaskSpec, bool)
	ActivityByName(name string) (*Activity, bool)
	NodeActivities(tid string) []*Activity
	// HasActivity reports whether the given activity id was actually
	// scheduled within this pipeline's own steps (including nested
	// sub-pipelines merged into it), as opposed to merely sharing a
	// DAG node with an activity that was. Used to filter a shared
	// TaskSpec's node activities down to the ones this pipeline
	// actually scheduled.
	HasActivity(id string) bool
}

// DepRef is an unresolved dependency reference as authored by the caller:
// by activity name, by a concrete TaskSpec, or by a nested pipeline (whose
// last step becomes the resolved TaskSpec once compose runs).
type DepRef struct {
	Kind     DepRefKind
	Name     string
	Task     *TaskSpec
	Pipeline PipelineRef
}

// ByNameRef builds a name-based dependency reference.
func ByNameRef(name string) DepRef { return DepRef{Kind: ByName, Name: name} }

// ByTaskRef builds a TaskSpec-based dependency reference.
func ByTaskRef(task *TaskSpec) DepRef { return DepRef{Kind: ByTask, Task: task} }

// ByPipelineRef builds a nested-pipeline dependency reference.
func ByPipelineRef(p PipelineRef) DepRef { return DepRef{Kind: ByPipeline, Pipeline: p} }

// Activity is a scheduling node: a TaskSpec plus bound keyword arguments,
// declared dependencies, runtime status, a result slot, and cross
// references ("related") to the specific upstream activity instances whose
// results feed it.
type Activity struct {
	ID             string
	Name           string
	Desc           string
	Task           *TaskSpec
	SubPipeline    PipelineRef // set instead of Task when this step wraps a nested pipeline, prior to compose
	Kwargs         map[string]any
	DependsOn      []DepRef
	SkipValidation bool
	Related        []string

	mu       sync.Mutex
	status   Status
	result   any
	hasRes   bool
	terminal chan struct{}
	closed   bool
	retry    int // reserved, unused: see SPEC_FULL.md §9
	timeout  int // reserved, unused: see SPEC_FULL.md §9
}

// NewActivity constructs an Activity in status NotStarted.
func NewActivity(name string, task *TaskSpec, kwargs map[string]any, dependsOn []DepRef) *Activity {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return &Activity{
		ID:        ids.New(),
		Name:      name,
		Task:      task,
		Kwargs:    kwargs,
		DependsOn: dependsOn,
		status:    StatusNotStarted,
		terminal:  make(chan struct{}),
	}
}

// Status returns the activity's current status.
func (a *Activity) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// SetStatus transitions the activity to the given status. Transitioning to
// a terminal status (Completed or Failed) releases anyone blocked in
// WaitCompletion, implementing the per-activity completion signal the
// Design Notes call for in place of busy-wait polling.
func (a *Activity) SetStatus(s Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
	if (s == StatusCompleted || s == StatusFailed) && !a.closed {
		a.closed = true
		close(a.terminal)
	}
}

// WaitCompletion blocks until the activity reaches a terminal status
// (Completed or Failed) or ctx is cancelled. It never polls: callers are
// released the instant SetStatus transitions the activity to a terminal
// state.
func (a *Activity) WaitCompletion(ctx context.Context) error {
	a.mu.Lock()
	ch := a.terminal
	a.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the activity's stored result and whether one is present.
func (a *Activity) Result() (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, a.hasRes
}

// SetResult stores the activity's result.
func (a *Activity) SetResult(v any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = v
	a.hasRes = true
}

// ClearResult releases the stored result, used by the reclamation pass.
func (a *Activity) ClearResult() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = nil
	a.hasRes = false
}

// Run invokes the activity's task against the assembled inputs, storing the
// result and transitioning to Completed on success or Failed on error.
func (a *Activity) Run(ctx context.Context, inputs []any) error {
	a.SetStatus(StatusRunning)
	result, err := a.Task.Run(ctx, inputs, a.Kwargs)
	if err != nil {
		a.SetStatus(StatusFailed)
		return err
	}
	a.SetResult(result)
	a.SetStatus(StatusCompleted)
	return nil
}

// AddRelated appends id to Related if not already present, preserving
// first-seen order.
func (a *Activity) AddRelated(id string) {
	for _, existing := range a.Related {
		if existing == id {
			return
		}
	}
	a.Related = append(a.Related, id)
}
