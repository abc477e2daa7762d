package main

import (
	"context"
	"math/rand"
	"reflect"

	"github.com/dagflow/dagflow/internal/persist"
	"github.com/dagflow/dagflow/internal/pipeline"
	"github.com/dagflow/dagflow/internal/taskgraph"
)

// buildDemoPipeline assembles a small read -> sample -> head chain
// exercising the context-aware variant (SPEC_FULL.md §9): "sample" draws
// from a shared *rand.Rand handle injected at construction rather than
// receiving it through depends_on. opts carries the execution backend
// (mode, worker count, queue backend, GC) selected by the caller, so a
// queue_backend set in the service config actually reaches the pipeline
// instead of always falling back to Options{}'s zero value.
func buildDemoPipeline(opts pipeline.Options) (*pipeline.Pipeline, error) {
	rng := rand.New(rand.NewSource(1))

	read, err := taskgraph.NewTask("read", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		return []int{10, 20, 30, 40, 50}, nil
	}, nil, reflect.TypeOf([]int{}), "reads a fixed in-memory dataset")
	if err != nil {
		return nil, err
	}

	sample, err := taskgraph.NewContextAwareTask("sample", rng, func(ctx context.Context, handle any, inputs []any, kwargs map[string]any) (any, error) {
		rows := inputs[0].([]int)
		r := handle.(*rand.Rand)
		out := make([]int, len(rows))
		copy(out, rows)
		r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out, nil
	}, []reflect.Type{reflect.TypeOf([]int{})}, reflect.TypeOf([]int{}), "shuffles rows using a shared rand source")
	if err != nil {
		return nil, err
	}

	head, err := taskgraph.NewTask("head", func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
		rows := inputs[0].([]int)
		n := kwargs["n"].(int)
		if n > len(rows) {
			n = len(rows)
		}
		return rows[:n], nil
	}, []reflect.Type{reflect.TypeOf([]int{})}, reflect.TypeOf([]int{}), "takes the first n rows")
	if err != nil {
		return nil, err
	}

	readAct := taskgraph.NewActivity("read", read, nil, nil)
	sampleAct := taskgraph.NewActivity("sample", sample, nil, []taskgraph.DepRef{taskgraph.ByTaskRef(read)})
	headAct := taskgraph.NewActivity("head", head, map[string]any{"n": 3}, []taskgraph.DepRef{taskgraph.ByTaskRef(sample)})

	return pipeline.New("demo", []*taskgraph.Activity{readAct, sampleAct, headAct}, opts), nil
}

// demoRegistry registers the demo pipeline's callables under their
// symbolic names, so a persisted snapshot of it can be reloaded by the
// trigger.
func demoRegistry(p *pipeline.Pipeline) *persist.Registry {
	reg := persist.NewRegistry()
	for _, act := range p.Steps {
		if act.Task != nil {
			reg.Register(act.Task.Callable())
		}
	}
	return reg
}
