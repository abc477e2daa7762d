package persist

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/exec"
	"github.com/dagflow/dagflow/internal/queue"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

func TestDumpEncodeDecodeRestoreRoundTrip(t *testing.T) {
	read, err := taskgraph.NewTask("read", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return 5, nil
	}, nil, reflect.TypeOf(0), "")
	require.NoError(t, err)
	double, err := taskgraph.NewTask("double", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return inputs[0].(int) * 2, nil
	}, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0), "")
	require.NoError(t, err)

	g := taskgraph.New()
	readAct := taskgraph.NewActivity("read", read, nil, nil)
	doubleAct := taskgraph.NewActivity("double", double, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(read)})
	doubleAct.AddRelated(readAct.ID)

	g.AddActivity(read.TID, readAct)
	g.AddActivity(double.TID, doubleAct)
	require.NoError(t, g.AddEdge(read.TID, double.TID, doubleAct.ID))

	snap := Dump(g)
	data, err := Encode(snap)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Register(read.Callable())
	reg.Register(double.Callable())

	restored, err := Restore(decoded, reg)
	require.NoError(t, err)

	order, err := restored.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 2)

	q := queue.NewSequential(0)
	ctx := context.Background()
	var restoredDouble *taskgraph.Activity
	for _, tid := range order {
		for _, a := range restored.Activities(tid) {
			require.NoError(t, q.Enqueue(ctx, a, true))
			if a.Name == "double" {
				restoredDouble = a
			}
		}
	}

	ex := exec.New(restored, q, exec.Sequential, 1, false, nil)
	require.NoError(t, ex.Run(ctx))

	result, ok := restoredDouble.Result()
	require.True(t, ok)
	require.Equal(t, 10, result)
}
