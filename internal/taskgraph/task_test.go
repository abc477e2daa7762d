package taskgraph

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func identity(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	return inputs, nil
}

func TestNewTaskFailsWithoutOutputType(t *testing.T) {
	_, err := NewTaskSpec(&plainFunc{name: "broken", fn: identity}, "")
	require.Error(t, err)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ErrCodeMissingType, de.Code)
}

func TestValidateChainSucceeds(t *testing.T) {
	f, err := NewTask("f", identity, nil, reflect.TypeOf(0), "")
	require.NoError(t, err)

	g, err := NewTask("g", identity, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(""), "")
	require.NoError(t, err)

	require.NoError(t, g.Validate(f))
}

func TestValidateFailsOnTypeMismatch(t *testing.T) {
	f, err := NewTask("f", identity, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(0), "")
	require.NoError(t, err)

	g, err := NewTask("g", identity, []reflect.Type{reflect.TypeOf("")}, reflect.TypeOf(""), "")
	require.NoError(t, err)

	err = g.Validate(f)
	require.Error(t, err)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ErrCodeCompatibility, de.Code)
}

func TestValidateFailsWhenUpstreamIsAnyType(t *testing.T) {
	f, err := NewTask("f", identity, nil, AnyType, "")
	require.NoError(t, err)

	g, err := NewTask("g", identity, []reflect.Type{AnyType}, reflect.TypeOf(""), "")
	require.NoError(t, err)

	err = g.Validate(f)
	require.Error(t, err)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ErrCodeCompatibility, de.Code)
}

func TestValidateAllowsUnitOutput(t *testing.T) {
	f, err := NewTask("f", identity, nil, UnitType, "")
	require.NoError(t, err)

	g, err := NewTask("g", identity, []reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(""), "")
	require.NoError(t, err)

	require.NoError(t, g.Validate(f))
}

func TestConditionalTaskDispatchesOnPredicate(t *testing.T) {
	predicate := func(ctx context.Context, inputs []any, kwargs map[string]any) (bool, error) {
		return inputs[0].(int) > 0, nil
	}
	whenTrue := func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return "positive", nil }
	whenFalse := func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) { return "non-positive", nil }

	ts, err := NewConditionalTask("branch", predicate, whenTrue, whenFalse,
		[]reflect.Type{reflect.TypeOf(0)}, reflect.TypeOf(""), reflect.TypeOf(""), "")
	require.NoError(t, err)

	out, err := ts.Run(context.Background(), []any{5}, nil)
	require.NoError(t, err)
	require.Equal(t, "positive", out)

	out, err = ts.Run(context.Background(), []any{-1}, nil)
	require.NoError(t, err)
	require.Equal(t, "non-positive", out)
}
