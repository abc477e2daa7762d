package pipeline

import (
	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Compose translates p.Steps into p.DAG: nested sub-pipeline steps are
// composed recursively and merged in, and every Activity's DependsOn
// entries are resolved to concrete TaskSpecs, validated for type
// compatibility, and turned into DAG edges. callerCtx is consulted when a
// dependency cannot be resolved against p's own steps — e.g. a sub-pipeline
// step depending on a sibling activity declared in the parent. Grounded on
// original_source/pipeline.py's compose()/_process_dep()/_get_task_data().
func (p *Pipeline) Compose(callerCtx taskgraph.PipelineRef) error {
	// Pass 1: schedule every step's node before resolving any dependency,
	// so a step may reference a sibling declared later in the list — the
	// only way a genuine cycle ever reaches TopologicalOrder for detection
	// instead of failing early as a spurious "not scheduled" error.
	var plain []*taskgraph.Activity
	for _, act := range p.Steps {
		if act.SubPipeline != nil {
			sub, ok := act.SubPipeline.(*Pipeline)
			if !ok {
				return taskgraph.NewDependencyError("sub-pipeline step does not reference a composable pipeline", map[string]interface{}{"activity_name": act.Name})
			}
			if err := sub.Compose(p); err != nil {
				return err
			}
			p.DAG.Merge(sub.DAG)
			for name, a := range sub.byName {
				if _, own := p.byName[name]; !own {
					p.byName[name] = a
				}
			}
			p.adoptScheduled(sub)
			continue
		}
		p.DAG.AddActivity(act.Task.TID, act)
		p.indexByName(act)
		p.markScheduled(act)
		plain = append(plain, act)
	}

	// Pass 2: resolve dependencies now that every sibling node exists.
	for _, act := range plain {
		for i, dep := range act.DependsOn {
			resolved, relatedIDs, err := resolveDep(p, callerCtx, dep)
			if err != nil {
				return err
			}
			if resolved.TID == act.Task.TID {
				return taskgraph.NewDependencyError("activity cannot depend on its own task", map[string]interface{}{"activity_name": act.Name, "task": resolved.Name()})
			}
			if !act.SkipValidation {
				if err := act.Task.Validate(resolved); err != nil {
					return err
				}
			}
			for _, id := range relatedIDs {
				act.AddRelated(id)
			}
			act.DependsOn[i] = taskgraph.ByTaskRef(resolved)

			// The dependency edge belongs wherever the upstream node actually
			// lives: usually this pipeline's own graph, but a sub-pipeline
			// composing against its parent's context may depend on a node
			// only the parent has scheduled so far.
			switch {
			case p.DAG.HasNode(resolved.TID):
				if err := p.DAG.AddEdge(resolved.TID, act.Task.TID, act.ID); err != nil {
					return err
				}
			default:
				parent, ok := callerCtx.(*Pipeline)
				if !ok || !parent.DAG.HasNode(resolved.TID) {
					return taskgraph.NewDependencyError("dependency task not scheduled on any reachable graph", map[string]interface{}{"task": resolved.Name()})
				}
				if err := parent.DAG.AddEdge(resolved.TID, act.Task.TID, act.ID); err != nil {
					return err
				}
			}
		}
	}

	return p.DAG.Validate()
}

// resolveDep dispatches a DepRef to a concrete TaskSpec plus the set of
// upstream activity ids it refers to, searching p's own steps first and
// falling back to callerCtx (the enclosing pipeline, when p is itself a
// sub-pipeline being composed).
func resolveDep(p *Pipeline, callerCtx taskgraph.PipelineRef, dep taskgraph.DepRef) (*taskgraph.TaskSpec, []string, error) {
	switch dep.Kind {
	case taskgraph.ByPipeline:
		ts, ok := dep.Pipeline.LastStepTaskSpec()
		if !ok {
			return nil, nil, taskgraph.NewDependencyError("referenced pipeline has no steps", nil)
		}
		acts := dep.Pipeline.NodeActivities(ts.TID)
		return ts, activityIDs(acts), nil

	case taskgraph.ByName:
		if act, ok := p.ActivityByName(dep.Name); ok {
			return act.Task, activityIDs(p.NodeActivities(act.Task.TID)), nil
		}
		if callerCtx != nil {
			if act, ok := callerCtx.ActivityByName(dep.Name); ok {
				return act.Task, activityIDs(callerCtx.NodeActivities(act.Task.TID)), nil
			}
		}
		return nil, nil, taskgraph.NewDependencyError("dependency name not found", map[string]interface{}{"name": dep.Name})

	case taskgraph.ByTask:
		if dep.Task == nil {
			return nil, nil, taskgraph.NewDependencyError("dependency task reference is nil", nil)
		}
		// A TaskSpec may be reused by activities in unrelated branches or
		// pipelines (spec.md §4.2, §8 "two activities share a TaskSpec");
		// filter each node's activities down to the ones actually scheduled
		// in the referencing scope, mirroring
		// original_source/pipeline.py's _proc_task_dep filtering candidate
		// activities against pipe.steps before returning them as related.
		if acts := filterScheduled(p, p.NodeActivities(dep.Task.TID)); len(acts) > 0 {
			return dep.Task, activityIDs(acts), nil
		}
		if callerCtx != nil {
			if acts := filterScheduled(callerCtx, callerCtx.NodeActivities(dep.Task.TID)); len(acts) > 0 {
				return dep.Task, activityIDs(acts), nil
			}
		}
		return nil, nil, taskgraph.NewDependencyError("dependency task not scheduled anywhere reachable", map[string]interface{}{"task": dep.Task.Name()})

	default:
		return nil, nil, taskgraph.NewDependencyError("unrecognized dependency reference kind", nil)
	}
}

// filterScheduled keeps only the activities that scope actually scheduled,
// dropping any that merely share a DAG node (same TaskSpec) by way of an
// unrelated branch or pipeline.
func filterScheduled(scope taskgraph.PipelineRef, acts []*taskgraph.Activity) []*taskgraph.Activity {
	out := make([]*taskgraph.Activity, 0, len(acts))
	for _, a := range acts {
		if scope.HasActivity(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

func activityIDs(acts []*taskgraph.Activity) []string {
	ids := make([]string, len(acts))
	for i, a := range acts {
		ids[i] = a.ID
	}
	return ids
}
