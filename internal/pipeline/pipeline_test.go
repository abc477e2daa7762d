package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/exec"
	"github.com/dagflow/dagflow/internal/queue"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

func task(t *testing.T, name string, fn func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error), in []reflect.Type, out reflect.Type) *taskgraph.TaskSpec {
	t.Helper()
	ts, err := taskgraph.NewTask(name, fn, in, out, "")
	require.NoError(t, err)
	return ts
}

// S1: a linear read -> head chain runs end to end under the sequential
// backend.
func TestPipelineRunsLinearChain(t *testing.T) {
	read := task(t, "read", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return []string{"a", "b", "c", "d"}, nil
	}, nil, reflect.TypeOf([]string{}))
	head := task(t, "head", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		rows := inputs[0].([]string)
		return rows[:2], nil
	}, []reflect.Type{reflect.TypeOf([]string{})}, reflect.TypeOf([]string{}))

	readAct := taskgraph.NewActivity("read", read, nil, nil)
	headAct := taskgraph.NewActivity("head", head, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(read)})

	p := New("linear", []*taskgraph.Activity{readAct, headAct}, Options{ExecMode: exec.Sequential})
	require.NoError(t, p.Run(context.Background()))

	result, ok := headAct.Result()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, result)
}

// S2: a two-source diamond runs under the thread-pool backend and the join
// step waits for both upstreams regardless of dequeue order.
func TestPipelineRunsDiamond(t *testing.T) {
	loadA := task(t, "load_a", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 4, nil }, nil, reflect.TypeOf(0))
	loadB := task(t, "load_b", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 5, nil }, nil, reflect.TypeOf(0))
	join := task(t, "join", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		sum := 0
		for _, in := range inputs {
			sum += in.(int)
		}
		return sum, nil
	}, []reflect.Type{reflect.TypeOf(0), reflect.TypeOf(0)}, reflect.TypeOf(0))

	aAct := taskgraph.NewActivity("load_a", loadA, nil, nil)
	bAct := taskgraph.NewActivity("load_b", loadB, nil, nil)
	joinAct := taskgraph.NewActivity("join", join, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(loadA), taskgraph.ByTaskRef(loadB)})

	p := New("diamond", []*taskgraph.Activity{aAct, bAct, joinAct}, Options{
		ExecMode:     exec.ThreadPool,
		Workers:      2,
		QueueBackend: queue.BackendMultiThreading,
	})
	require.NoError(t, p.Run(context.Background()))

	result, ok := joinAct.Result()
	require.True(t, ok)
	require.Equal(t, 9, result)
}

// S3: a nested sub-pipeline's last step is inlined as the dependency of a
// step in the outer pipeline.
func TestPipelineInlinesSubPipeline(t *testing.T) {
	seed := task(t, "seed", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 10, nil }, nil, reflect.TypeOf(0))
	double := task(t, "double", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return inputs[0].(int) * 2, nil
	}, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0))
	plusOne := task(t, "plus_one", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return inputs[0].(int) + 1, nil
	}, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0))

	seedAct := taskgraph.NewActivity("seed", seed, nil, nil)
	doubleAct := taskgraph.NewActivity("double", double, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(seed)})
	sub := New("inner", []*taskgraph.Activity{seedAct, doubleAct}, Options{ExecMode: exec.Sequential})

	subStep := taskgraph.NewActivity("", nil, nil, nil)
	subStep.SubPipeline = sub

	finalAct := taskgraph.NewActivity("final", plusOne, nil, []taskgraph.DepRef{taskgraph.ByPipelineRef(sub)})

	outer := New("outer", []*taskgraph.Activity{subStep, finalAct}, Options{ExecMode: exec.Sequential})
	require.NoError(t, outer.Run(context.Background()))

	result, ok := finalAct.Result()
	require.True(t, ok)
	require.Equal(t, 21, result)
}

// S4: composing a chain whose downstream input type is incompatible with
// the upstream's output type fails with a compatibility error instead of
// running.
func TestPipelineComposeFailsOnTypeMismatch(t *testing.T) {
	produce := task(t, "produce", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return "s", nil }, nil, reflect.TypeOf(""))
	consume := task(t, "consume", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return nil, nil }, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0))

	produceAct := taskgraph.NewActivity("produce", produce, nil, nil)
	consumeAct := taskgraph.NewActivity("consume", consume, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(produce)})

	p := New("mismatch", []*taskgraph.Activity{produceAct, consumeAct}, Options{ExecMode: exec.Sequential})
	err := p.Compose(nil)
	require.Error(t, err)

	var de *taskgraph.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, taskgraph.ErrCodeCompatibility, de.Code)
}

// S5: a cycle among activities fails compose with a circular-dependency
// error.
func TestPipelineComposeFailsOnCycle(t *testing.T) {
	a := task(t, "a", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 0, nil }, []reflect.Type{taskgraph.AnyType}, reflect.TypeOf(0))
	b := task(t, "b", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 0, nil }, []reflect.Type{taskgraph.AnyType}, reflect.TypeOf(0))

	aAct := taskgraph.NewActivity("a", a, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(b)})
	bAct := taskgraph.NewActivity("b", b, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(a)})
	aAct.SkipValidation = true
	bAct.SkipValidation = true

	p := New("cyclic", []*taskgraph.Activity{aAct, bAct}, Options{ExecMode: exec.Sequential})
	err := p.Compose(nil)
	require.Error(t, err)

	var de *taskgraph.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, taskgraph.ErrCodeCircular, de.Code)
}

// S6: with gc_enabled, an upstream's result is cleared once every
// downstream activity sharing its node has completed; without it, the
// result is retained.
func TestPipelineReclaimsResultsWhenGCEnabled(t *testing.T) {
	produce := task(t, "produce", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 7, nil }, nil, reflect.TypeOf(0))
	consume := task(t, "consume", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return inputs[0].(int) + 1, nil
	}, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0))

	produceAct := taskgraph.NewActivity("produce", produce, nil, nil)
	consumeAct := taskgraph.NewActivity("consume", consume, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(produce)})

	p := New("gc", []*taskgraph.Activity{produceAct, consumeAct}, Options{ExecMode: exec.Sequential, GCEnabled: true})
	require.NoError(t, p.Run(context.Background()))

	_, ok := produceAct.Result()
	require.False(t, ok, "producer result should have been reclaimed once its only consumer completed")

	result, ok := consumeAct.Result()
	require.True(t, ok)
	require.Equal(t, 8, result)
}

func TestPipelineRetainsResultsWhenGCDisabled(t *testing.T) {
	produce := task(t, "produce", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 7, nil }, nil, reflect.TypeOf(0))
	consume := task(t, "consume", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return inputs[0].(int) + 1, nil
	}, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0))

	produceAct := taskgraph.NewActivity("produce", produce, nil, nil)
	consumeAct := taskgraph.NewActivity("consume", consume, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(produce)})

	p := New("no-gc", []*taskgraph.Activity{produceAct, consumeAct}, Options{ExecMode: exec.Sequential, GCEnabled: false})
	require.NoError(t, p.Run(context.Background()))

	_, ok := produceAct.Result()
	require.True(t, ok, "producer result should be retained when GC is disabled")
}
