package taskgraph

import "sync"

// Edge is a directed, keyed edge from an upstream TaskSpec node to a
// downstream TaskSpec node, keyed by the downstream Activity's id so that
// repeated instances of the same two tasks produce distinct parallel edges.
type Edge struct {
	From       string
	To         string
	ActivityID string
}

// DAG is a multi-edge directed graph whose node key is a TaskSpec id. Each
// node carries an attribute map id -> Activity; multiple distinct
// activities may share the same underlying TaskSpec and thus the same node.
type DAG struct {
	mu       sync.RWMutex
	order    []string                    // TaskSpec node ids, first-seen order
	nodes    map[string]map[string]*Activity // tid -> activity id -> Activity
	actOrder map[string][]string         // tid -> activity ids in insertion order
	forward  map[string][]Edge           // tid -> outgoing edges
	backward map[string][]Edge           // tid -> incoming edges
	byID     map[string]*Activity        // activity id -> Activity, across all nodes
}

// New returns an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]map[string]*Activity),
		actOrder: make(map[string][]string),
		forward:  make(map[string][]Edge),
		backward: make(map[string][]Edge),
		byID:     make(map[string]*Activity),
	}
}

// ActivityByAnyID looks up an activity by id regardless of which node it
// sits on. Used to resolve an Activity's Related ids to concrete Activity
// values, e.g. when waiting for upstream completion signals.
func (g *DAG) ActivityByAnyID(id string) (*Activity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	a, ok := g.byID[id]
	return a, ok
}

// HasNode reports whether tid has been added to the graph.
func (g *DAG) HasNode(tid string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[tid]
	return ok
}

// AddActivity adds an activity to the node keyed by tid, creating the node
// if it does not yet exist.
func (g *DAG) AddActivity(tid string, act *Activity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[tid]; !ok {
		g.nodes[tid] = make(map[string]*Activity)
		g.order = append(g.order, tid)
	}
	if _, exists := g.nodes[tid][act.ID]; !exists {
		g.actOrder[tid] = append(g.actOrder[tid], act.ID)
	}
	g.nodes[tid][act.ID] = act
	g.byID[act.ID] = act
}

// AddEdge adds a directed edge from the upstream node to the downstream
// node, keyed by the downstream activity's id. Both nodes must already
// exist or AddEdge fails with NotFound.
func (g *DAG) AddEdge(fromTID, toTID, activityID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[fromTID]; !ok {
		return NewNotFoundError(fromTID)
	}
	if _, ok := g.nodes[toTID]; !ok {
		return NewNotFoundError(toTID)
	}
	e := Edge{From: fromTID, To: toTID, ActivityID: activityID}
	g.forward[fromTID] = append(g.forward[fromTID], e)
	g.backward[toTID] = append(g.backward[toTID], e)
	return nil
}

// NodeIDs returns the TaskSpec node ids in first-seen order.
func (g *DAG) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Activities returns the activities stored at node tid, in insertion order.
func (g *DAG) Activities(tid string) []*Activity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := g.actOrder[tid]
	out := make([]*Activity, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[tid][id])
	}
	return out
}

// ActivityByID returns the activity with the given id at node tid.
func (g *DAG) ActivityByID(tid, activityID string) (*Activity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.nodes[tid]
	if !ok {
		return nil, false
	}
	a, ok := m[activityID]
	return a, ok
}

// Successors returns the unique set of node ids directly downstream of tid,
// in first-observed order.
func (g *DAG) Successors(tid string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return uniqueTargets(g.forward[tid], func(e Edge) string { return e.To })
}

// Predecessors returns the unique set of node ids directly upstream of tid,
// in first-observed order.
func (g *DAG) Predecessors(tid string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return uniqueTargets(g.backward[tid], func(e Edge) string { return e.From })
}

func uniqueTargets(edges []Edge, pick func(Edge) string) []string {
	seen := make(map[string]bool, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		v := pick(e)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Merge unions other into g: nodes keyed by the same TaskSpec id merge
// their activity attribute maps, and edges accumulate with their per
// activity keys. Grounded on the source's dag.merge(G, self.dag).
func (g *DAG) Merge(other *DAG) {
	if other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, tid := range other.order {
		if _, ok := g.nodes[tid]; !ok {
			g.nodes[tid] = make(map[string]*Activity)
			g.order = append(g.order, tid)
		}
		for _, actID := range other.actOrder[tid] {
			if _, exists := g.nodes[tid][actID]; !exists {
				g.actOrder[tid] = append(g.actOrder[tid], actID)
			}
			g.nodes[tid][actID] = other.nodes[tid][actID]
			g.byID[actID] = other.nodes[tid][actID]
		}
	}
	for tid, edges := range other.forward {
		g.forward[tid] = append(g.forward[tid], edges...)
	}
	for tid, edges := range other.backward {
		g.backward[tid] = append(g.backward[tid], edges...)
	}
}

// TopologicalOrder returns the graph's node ids in an order consistent with
// every edge (Kahn's algorithm), breaking ties by first-seen insertion
// order for determinism. Fails with CircularDependency if the graph
// contains a cycle.
func (g *DAG) TopologicalOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indegree := make(map[string]int, len(g.order))
	for _, tid := range g.order {
		indegree[tid] = 0
	}
	for tid := range g.backward {
		indegree[tid] = len(uniqueEdgeSources(g.backward[tid]))
	}

	var queue []string
	for _, tid := range g.order {
		if indegree[tid] == 0 {
			queue = append(queue, tid)
		}
	}

	var result []string
	remaining := indegree
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		result = append(result, n)

		for _, succ := range uniqueTargets(g.forward[n], func(e Edge) string { return e.To }) {
			remaining[succ]--
			if remaining[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(result) != len(g.order) {
		return nil, NewCircularDependencyError(cyclePath(g.order, result))
	}
	return result, nil
}

// Validate reports whether the graph is acyclic, failing with
// CircularDependency otherwise.
func (g *DAG) Validate() error {
	_, err := g.TopologicalOrder()
	return err
}

func uniqueEdgeSources(edges []Edge) map[string]bool {
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		seen[e.From] = true
	}
	return seen
}

func cyclePath(all, processed []string) []string {
	done := make(map[string]bool, len(processed))
	for _, id := range processed {
		done[id] = true
	}
	var remaining []string
	for _, id := range all {
		if !done[id] {
			remaining = append(remaining, id)
		}
	}
	return remaining
}
