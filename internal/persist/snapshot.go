package persist

import (
	"bytes"
	"encoding/gob"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

func init() {
	// Kwargs values travel as interface{}; gob needs every concrete type
	// that can appear in one registered up front. Cover the scalar kinds a
	// kwargs map realistically holds.
	gob.Register("")
	gob.Register(0)
	gob.Register(0.0)
	gob.Register(false)
	gob.Register([]string{})
	gob.Register([]int{})
}

// ActivitySnapshot is the persisted shape of a single Activity: everything
// except its live Callable, which is resolved from a Registry at load time
// by TaskName.
type ActivitySnapshot struct {
	ID             string
	Name           string
	Desc           string
	TaskName       string
	TaskDesc       string
	Kwargs         map[string]interface{}
	DependsOn      []string // upstream TaskNames
	Related        []string // upstream Activity ids
	SkipValidation bool
}

// EdgeSnapshot is a persisted DAG edge, referencing nodes by TaskName
// rather than the ephemeral TaskSpec id assigned at compose time.
type EdgeSnapshot struct {
	From       string
	To         string
	ActivityID string
}

// Snapshot is the full persisted shape of a composed DAG.
type Snapshot struct {
	Nodes      []string
	Activities map[string][]ActivitySnapshot
	Edges      []EdgeSnapshot
}

// Dump captures g's current shape into a Snapshot. Node identity is
// re-keyed from the ephemeral TaskSpec id to the stable Callable name so
// the snapshot survives a process restart.
func Dump(g *taskgraph.DAG) *Snapshot {
	snap := &Snapshot{Activities: make(map[string][]ActivitySnapshot)}
	nameByTID := make(map[string]string)

	for _, tid := range g.NodeIDs() {
		acts := g.Activities(tid)
		if len(acts) == 0 {
			continue
		}
		name := acts[0].Task.Name()
		nameByTID[tid] = name
		snap.Nodes = append(snap.Nodes, name)

		for _, a := range acts {
			var depNames []string
			for _, dep := range a.DependsOn {
				if dep.Kind == taskgraph.ByTask && dep.Task != nil {
					depNames = append(depNames, dep.Task.Name())
				}
			}
			snap.Activities[name] = append(snap.Activities[name], ActivitySnapshot{
				ID:             a.ID,
				Name:           a.Name,
				Desc:           a.Desc,
				TaskName:       a.Task.Name(),
				TaskDesc:       a.Task.Desc,
				Kwargs:         a.Kwargs,
				DependsOn:      depNames,
				Related:        append([]string(nil), a.Related...),
				SkipValidation: a.SkipValidation,
			})
		}
	}

	for _, tid := range g.NodeIDs() {
		for _, succTID := range g.Successors(tid) {
			for _, act := range g.Activities(succTID) {
				for _, dep := range act.DependsOn {
					if dep.Kind == taskgraph.ByTask && dep.Task != nil && dep.Task.TID == tid {
						snap.Edges = append(snap.Edges, EdgeSnapshot{From: nameByTID[tid], To: nameByTID[succTID], ActivityID: act.ID})
					}
				}
			}
		}
	}

	return snap
}

// Encode gob-serializes a Snapshot.
func Encode(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a Snapshot previously produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Restore reconstructs a live DAG from a Snapshot, resolving each node's
// Callable from reg by the persisted TaskName. A name with no registered
// Callable fails with a NotFound error, since a stale or incomplete
// registry means the reconstructed graph could never actually run.
func Restore(snap *Snapshot, reg *Registry) (*taskgraph.DAG, error) {
	g := taskgraph.New()
	taskByName := make(map[string]*taskgraph.TaskSpec, len(snap.Nodes))

	for _, name := range snap.Nodes {
		callable, ok := reg.Lookup(name)
		if !ok {
			return nil, taskgraph.NewNotFoundError(name)
		}
		snaps := snap.Activities[name]
		desc := ""
		if len(snaps) > 0 {
			desc = snaps[0].TaskDesc
		}
		ts, err := taskgraph.NewTaskSpec(callable, desc)
		if err != nil {
			return nil, err
		}
		taskByName[name] = ts

		for _, as := range snaps {
			act := taskgraph.NewActivity(as.Name, ts, as.Kwargs, nil)
			act.ID = as.ID
			act.Desc = as.Desc
			act.SkipValidation = as.SkipValidation
			for _, id := range as.Related {
				act.AddRelated(id)
			}
			g.AddActivity(ts.TID, act)
		}
	}

	for _, name := range snap.Nodes {
		ts := taskByName[name]
		for _, as := range snap.Activities[name] {
			for _, depName := range as.DependsOn {
				depTask, ok := taskByName[depName]
				if !ok {
					return nil, taskgraph.NewNotFoundError(depName)
				}
				act, ok := g.ActivityByID(ts.TID, as.ID)
				if !ok {
					continue
				}
				act.DependsOn = append(act.DependsOn, taskgraph.ByTaskRef(depTask))
			}
		}
	}

	for _, e := range snap.Edges {
		from, ok := taskByName[e.From]
		if !ok {
			return nil, taskgraph.NewNotFoundError(e.From)
		}
		to, ok := taskByName[e.To]
		if !ok {
			return nil, taskgraph.NewNotFoundError(e.To)
		}
		if err := g.AddEdge(from.TID, to.TID, e.ActivityID); err != nil {
			return nil, err
		}
	}

	return g, nil
}
