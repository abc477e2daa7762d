package taskgraph

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dagflow/dagflow/internal/ids"
)

// Callable is the variant dispatch surface described in SPEC_FULL.md §4.8.
// It replaces the source's abstract Task class hierarchy (Task, SparkTask,
// ConditionalTask) with a single operation set; Plain, ContextAware, and
// Conditional wrappers implement it.
type Callable interface {
	// Run invokes the wrapped user function against the assembled
	// positional inputs and the Activity's bound keyword arguments.
	Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error)
	// InputTypes returns the declared parameter types, in order.
	InputTypes() []reflect.Type
	// OutputTypes returns the declared return type(s). Plain and
	// ContextAware callables return exactly one; Conditional returns the
	// types of both of its branches.
	OutputTypes() []reflect.Type
	// Name identifies the wrapped function for error messages.
	Name() string
}

// TaskSpec wraps a user callable together with its declared input type list
// and return type, and performs compatibility checks against other
// TaskSpecs. It is immutable once constructed.
type TaskSpec struct {
	TID  string
	Desc string
	fn   Callable
}

// NewTaskSpec constructs a TaskSpec from any Callable. Construction fails
// with MissingTypeHint if the callable declares no output type.
func NewTaskSpec(fn Callable, desc string) (*TaskSpec, error) {
	if fn == nil {
		return nil, NewValidationError("callable must not be nil", nil)
	}
	if len(fn.OutputTypes()) == 0 {
		return nil, NewMissingTypeHintError(fn.Name())
	}
	return &TaskSpec{TID: ids.New(), fn: fn, Desc: desc}, nil
}

// InputTypes returns the wrapped callable's declared parameter types.
func (t *TaskSpec) InputTypes() []reflect.Type { return t.fn.InputTypes() }

// OutputTypes returns the wrapped callable's declared return type(s).
func (t *TaskSpec) OutputTypes() []reflect.Type { return t.fn.OutputTypes() }

// Name returns the wrapped callable's name, used in error messages.
func (t *TaskSpec) Name() string { return t.fn.Name() }

// Callable returns the wrapped Callable itself, used by internal/persist to
// register a symbolic name -> implementation mapping for DAG
// reconstruction after a dump/load round trip.
func (t *TaskSpec) Callable() Callable { return t.fn }

// Run invokes the wrapped callable.
func (t *TaskSpec) Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	return t.fn.Run(ctx, inputs, kwargs)
}

// Validate checks that ts (the downstream TaskSpec) can legally consume the
// output of upstream. Per SPEC_FULL.md §4.1:
//   - if upstream's output is the universal/top type, validation fails: the
//     top type defeats checking.
//   - null/unit is always acceptable.
//   - comparison is by type identity, not structural subtyping.
func (ts *TaskSpec) Validate(upstream *TaskSpec) error {
	outputs := upstream.OutputTypes()
	for _, out := range outputs {
		if out == AnyType {
			return NewCompatibilityError(
				fmt.Sprintf("cannot check compatibility with previous task %s when return type is 'Any'", upstream.Name()),
				map[string]interface{}{"upstream": upstream.TID, "downstream": ts.TID},
			)
		}
	}

	inputs := ts.InputTypes()
	for _, out := range outputs {
		if out == UnitType {
			continue
		}
		if !containsType(inputs, out) {
			return NewCompatibilityError(
				fmt.Sprintf("validation failed: output of %s is incompatible with inputs from %s", upstream.Name(), ts.Name()),
				map[string]interface{}{"upstream": upstream.TID, "downstream": ts.TID},
			)
		}
	}
	return nil
}

// plainFunc implements Callable for an ordinary, single-output function.
type plainFunc struct {
	name        string
	fn          func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error)
	inputTypes  []reflect.Type
	outputTypes []reflect.Type
}

func (p *plainFunc) Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	return p.fn(ctx, inputs, kwargs)
}
func (p *plainFunc) InputTypes() []reflect.Type  { return p.inputTypes }
func (p *plainFunc) OutputTypes() []reflect.Type { return p.outputTypes }
func (p *plainFunc) Name() string                { return p.name }

// NewTask builds a plain TaskSpec. The Design Notes direct implementers
// without Python-style runtime annotation reflection to require input and
// output types as explicit constructor arguments.
func NewTask(name string, fn func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error), inputTypes []reflect.Type, outputType reflect.Type, desc string) (*TaskSpec, error) {
	return NewTaskSpec(&plainFunc{
		name:        name,
		fn:          fn,
		inputTypes:  inputTypes,
		outputTypes: []reflect.Type{outputType},
	}, desc)
}

// contextAwareFunc implements Callable for tasks that need a shared resource
// handle injected ahead of their positional inputs, generalizing the
// source's SparkTask (which injected the active SparkSession).
type contextAwareFunc struct {
	name        string
	handle      any
	fn          func(ctx context.Context, handle any, inputs []any, kwargs map[string]any) (any, error)
	inputTypes  []reflect.Type
	outputTypes []reflect.Type
}

func (c *contextAwareFunc) Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	return c.fn(ctx, c.handle, inputs, kwargs)
}
func (c *contextAwareFunc) InputTypes() []reflect.Type  { return c.inputTypes }
func (c *contextAwareFunc) OutputTypes() []reflect.Type { return c.outputTypes }
func (c *contextAwareFunc) Name() string                { return c.name }

// NewContextAwareTask builds a TaskSpec that receives a shared handle (a
// database connection, a client, a seeded random source, ...) as an
// argument on every invocation without that handle appearing in depends_on.
func NewContextAwareTask(name string, handle any, fn func(ctx context.Context, handle any, inputs []any, kwargs map[string]any) (any, error), inputTypes []reflect.Type, outputType reflect.Type, desc string) (*TaskSpec, error) {
	return NewTaskSpec(&contextAwareFunc{
		name:        name,
		handle:      handle,
		fn:          fn,
		inputTypes:  inputTypes,
		outputTypes: []reflect.Type{outputType},
	}, desc)
}

// conditionalFunc implements Callable for tasks that branch between two
// candidate callables based on a boolean predicate evaluated over the same
// inputs, generalizing the source's ConditionalTask.
type conditionalFunc struct {
	name       string
	predicate  func(ctx context.Context, inputs []any, kwargs map[string]any) (bool, error)
	whenTrue   func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error)
	whenFalse  func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error)
	inputTypes []reflect.Type
	trueType   reflect.Type
	falseType  reflect.Type
}

func (c *conditionalFunc) Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	ok, err := c.predicate(ctx, inputs, kwargs)
	if err != nil {
		return nil, err
	}
	if ok {
		return c.whenTrue(ctx, inputs, kwargs)
	}
	return c.whenFalse(ctx, inputs, kwargs)
}
func (c *conditionalFunc) InputTypes() []reflect.Type { return c.inputTypes }
func (c *conditionalFunc) OutputTypes() []reflect.Type {
	return []reflect.Type{c.trueType, c.falseType}
}
func (c *conditionalFunc) Name() string { return c.name }

// NewConditionalTask builds a TaskSpec that dispatches to one of two
// branch callables based on a boolean predicate. OutputTypes returns both
// branch return types; Validate (via TaskSpec.Validate) requires every
// branch's output to be satisfiable by the downstream's declared inputs.
func NewConditionalTask(name string, predicate func(ctx context.Context, inputs []any, kwargs map[string]any) (bool, error), whenTrue, whenFalse func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error), inputTypes []reflect.Type, trueType, falseType reflect.Type, desc string) (*TaskSpec, error) {
	return NewTaskSpec(&conditionalFunc{
		name:       name,
		predicate:  predicate,
		whenTrue:   whenTrue,
		whenFalse:  whenFalse,
		inputTypes: inputTypes,
		trueType:   trueType,
		falseType:  falseType,
	}, desc)
}
