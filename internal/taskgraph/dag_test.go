package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDAGTopologicalOrderRespectsEdges(t *testing.T) {
	g := New()
	a := NewActivity("a", nil, nil, nil)
	b := NewActivity("b", nil, nil, nil)
	c := NewActivity("c", nil, nil, nil)
	g.AddActivity("A", a)
	g.AddActivity("B", b)
	g.AddActivity("C", c)
	require.NoError(t, g.AddEdge("A", "B", b.ID))
	require.NoError(t, g.AddEdge("B", "C", c.ID))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, order)
}

func TestDAGDetectsCycle(t *testing.T) {
	g := New()
	a := NewActivity("a", nil, nil, nil)
	b := NewActivity("b", nil, nil, nil)
	g.AddActivity("A", a)
	g.AddActivity("B", b)
	require.NoError(t, g.AddEdge("A", "B", b.ID))
	require.NoError(t, g.AddEdge("B", "A", a.ID))

	_, err := g.TopologicalOrder()
	require.Error(t, err)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ErrCodeCircular, de.Code)
}

func TestDAGMergeUnionsNodesAndEdges(t *testing.T) {
	g1 := New()
	a := NewActivity("a", nil, nil, nil)
	b := NewActivity("b", nil, nil, nil)
	g1.AddActivity("A", a)
	g1.AddActivity("B", b)
	require.NoError(t, g1.AddEdge("A", "B", b.ID))

	g2 := New()
	c := NewActivity("c", nil, nil, nil)
	g2.AddActivity("B", c) // same node id as g1's B, different activity instance
	g2.AddActivity("C", NewActivity("d", nil, nil, nil))

	g1.Merge(g2)

	require.ElementsMatch(t, []string{"A", "B", "C"}, g1.NodeIDs())
	require.Len(t, g1.Activities("B"), 2)
	require.ElementsMatch(t, []string{"B"}, g1.Successors("A"))
}

func TestDAGPredecessorsAndSuccessorsAreUnique(t *testing.T) {
	g := New()
	a := NewActivity("a", nil, nil, nil)
	b1 := NewActivity("b1", nil, nil, nil)
	b2 := NewActivity("b2", nil, nil, nil)
	g.AddActivity("A", a)
	g.AddActivity("B", b1)
	g.AddActivity("B", b2)
	require.NoError(t, g.AddEdge("A", "B", b1.ID))
	require.NoError(t, g.AddEdge("A", "B", b2.ID))

	require.Equal(t, []string{"B"}, g.Successors("A"))
	require.Equal(t, []string{"A"}, g.Predecessors("B"))
}
