package exec

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/queue"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

func mustTask(t *testing.T, name string, fn func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error), in []reflect.Type, out reflect.Type) *taskgraph.TaskSpec {
	t.Helper()
	ts, err := taskgraph.NewTask(name, fn, in, out, "")
	require.NoError(t, err)
	return ts
}

func TestSequentialExecutorRunsLinearChain(t *testing.T) {
	read := mustTask(t, "read", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return []string{"r1", "r2", "r3", "r4"}, nil
	}, nil, reflect.TypeOf([]string{}))

	head := mustTask(t, "head", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		rows := inputs[0].([]string)
		n := kwargs["n"].(int)
		return rows[:n], nil
	}, []reflect.Type{reflect.TypeOf([]string{})}, reflect.TypeOf([]string{}))

	g := taskgraph.New()
	readAct := taskgraph.NewActivity("read", read, nil, nil)
	headAct := taskgraph.NewActivity("head", head, map[string]any{"n": 3}, []taskgraph.DepRef{taskgraph.ByTaskRef(read)})
	headAct.AddRelated(readAct.ID)

	g.AddActivity(read.TID, readAct)
	g.AddActivity(head.TID, headAct)
	require.NoError(t, g.AddEdge(read.TID, head.TID, headAct.ID))

	q := queue.NewSequential(0)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, readAct, true))
	require.NoError(t, q.Enqueue(ctx, headAct, true))
	readAct.SetStatus(taskgraph.StatusQueued)
	headAct.SetStatus(taskgraph.StatusQueued)

	ex := New(g, q, Sequential, 1, false, nil)
	require.NoError(t, ex.Run(ctx))

	result, ok := headAct.Result()
	require.True(t, ok)
	require.Equal(t, []string{"r1", "r2", "r3"}, result)
}

func TestExecutorWrapsCallableErrorAsActivityFailed(t *testing.T) {
	boom := mustTask(t, "boom", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	}, nil, reflect.TypeOf(0))

	g := taskgraph.New()
	act := taskgraph.NewActivity("boom", boom, nil, nil)
	g.AddActivity(boom.TID, act)

	q := queue.NewSequential(0)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, act, true))

	ex := New(g, q, Sequential, 1, false, nil)
	err := ex.Run(ctx)
	require.Error(t, err)

	var de *taskgraph.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, taskgraph.ErrCodeActivityFailed, de.Code)
	require.Equal(t, taskgraph.StatusFailed, act.Status())
}

func TestThreadPoolExecutorRunsDiamond(t *testing.T) {
	loadA := mustTask(t, "load_a", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 2, nil }, nil, reflect.TypeOf(0))
	loadB := mustTask(t, "load_b", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return 3, nil }, nil, reflect.TypeOf(0))
	join := mustTask(t, "join", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		sum := 0
		for _, in := range inputs {
			sum += in.(int)
		}
		return sum, nil
	}, []reflect.Type{reflect.TypeOf(0), reflect.TypeOf(0)}, reflect.TypeOf(0))

	g := taskgraph.New()
	aAct := taskgraph.NewActivity("load_a", loadA, nil, nil)
	bAct := taskgraph.NewActivity("load_b", loadB, nil, nil)
	joinAct := taskgraph.NewActivity("join", join, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(loadA), taskgraph.ByTaskRef(loadB)})
	joinAct.AddRelated(aAct.ID)
	joinAct.AddRelated(bAct.ID)

	g.AddActivity(loadA.TID, aAct)
	g.AddActivity(loadB.TID, bAct)
	g.AddActivity(join.TID, joinAct)
	require.NoError(t, g.AddEdge(loadA.TID, join.TID, joinAct.ID))
	require.NoError(t, g.AddEdge(loadB.TID, join.TID, joinAct.ID))

	q := queue.NewConcurrent(0)
	ctx := context.Background()
	// All three activities are enqueued up front in topological order, as
	// Pipeline.collect does; join's worker waits on the per-activity
	// completion signal of its related upstreams rather than assuming
	// they already ran (SPEC_FULL.md §5 ordering guarantee).
	for _, a := range []*taskgraph.Activity{aAct, bAct, joinAct} {
		require.NoError(t, q.Enqueue(ctx, a, true))
	}

	ex := New(g, q, ThreadPool, 2, false, nil)
	require.NoError(t, ex.Run(ctx))
	result, ok := joinAct.Result()
	require.True(t, ok)
	require.Equal(t, 5, result)
}
