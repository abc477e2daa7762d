// Package reclaim implements result reclamation (SPEC_FULL.md §4.6):
// after an activity completes, visit the upstream tasks and clear stored
// results for nodes whose every successor has completed. Grounded directly
// on original_source/pipeline.py's garbage_collection/_all_children_complete.
package reclaim

import "github.com/dagflow/dagflow/internal/taskgraph"

// AfterCompletion runs one reclamation pass following the completion of the
// activity at node completedTID. For each predecessor of completedTID, if
// every one of that predecessor's successor nodes has all of its activities
// in status Completed, every activity's result at the predecessor node is
// cleared.
//
// This guarantees an intermediate value remains alive exactly until the
// last downstream consumer has finished, and no longer. It is the caller's
// responsibility to gate this behind gc_enabled.
func AfterCompletion(g *taskgraph.DAG, completedTID string) {
	for _, pred := range g.Predecessors(completedTID) {
		if allChildrenComplete(g, pred) {
			for _, act := range g.Activities(pred) {
				act.ClearResult()
			}
		}
	}
}

// allChildrenComplete reports whether every successor node of tid has all
// of its activities in status Completed. A node with no successors (a
// terminal sink) is not considered here: reclamation is only ever invoked
// against the predecessors of a just-completed node, per the source's
// _all_children_complete semantics (SPEC_FULL.md §9 Open Questions).
func allChildrenComplete(g *taskgraph.DAG, tid string) bool {
	successors := g.Successors(tid)
	if len(successors) == 0 {
		return false
	}
	for _, succ := range successors {
		for _, act := range g.Activities(succ) {
			if act.Status() != taskgraph.StatusCompleted {
				return false
			}
		}
	}
	return true
}
