package taskgraph

import "reflect"

// sentinel marker types used to represent the two special cases the
// compatibility checker treats specially: the universal/top type (Any, which
// defeats checking) and the null/unit type (always acceptable downstream).
type anySentinel struct{}
type unitSentinel struct{}

var (
	// AnyType is the universal/top type. A TaskSpec whose output type is
	// AnyType cannot be used as an upstream in compatibility validation.
	AnyType = reflect.TypeOf(anySentinel{})
	// UnitType represents "no meaningful return value". An upstream
	// declaring UnitType always satisfies any downstream input list; its
	// result is skipped during input assembly.
	UnitType = reflect.TypeOf(unitSentinel{})
)

func containsType(types []reflect.Type, target reflect.Type) bool {
	for _, t := range types {
		if t == target {
			return true
		}
	}
	return false
}
