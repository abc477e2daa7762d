package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

func TestFactorySelectsBackend(t *testing.T) {
	q, err := New(BackendDefault, 0)
	require.NoError(t, err)
	_, ok := q.(*Concurrent)
	require.True(t, ok)

	q, err = New(BackendAsync, 0)
	require.NoError(t, err)
	_, ok = q.(*Cooperative)
	require.True(t, ok)

	q, err = New(BackendSequential, 0)
	require.NoError(t, err)
	_, ok = q.(*Sequential)
	require.True(t, ok)

	_, err = New("bogus", 0)
	require.Error(t, err)
}

func TestSequentialFIFOOrder(t *testing.T) {
	q := NewSequential(0)
	ctx := context.Background()
	a := taskgraph.NewActivity("a", nil, nil, nil)
	b := taskgraph.NewActivity("b", nil, nil, nil)
	require.NoError(t, q.Enqueue(ctx, a, true))
	require.NoError(t, q.Enqueue(ctx, b, true))

	first, ok, err := q.Dequeue(ctx, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a, first)

	second, ok, err := q.Dequeue(ctx, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b, second)
}

func TestConcurrentJoinBlocksUntilAllDone(t *testing.T) {
	q := NewConcurrent(0)
	ctx := context.Background()
	a := taskgraph.NewActivity("a", nil, nil, nil)
	require.NoError(t, q.Enqueue(ctx, a, true))

	joined := make(chan error, 1)
	go func() { joined <- q.Join(ctx) }()

	select {
	case <-joined:
		t.Fatal("join returned before Done was called")
	case <-time.After(20 * time.Millisecond):
	}

	_, _, err := q.Dequeue(ctx, true)
	require.NoError(t, err)
	q.Done()

	select {
	case err := <-joined:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("join did not unblock after Done")
	}
}

func TestCooperativeDequeueSuspendsWithoutPolling(t *testing.T) {
	q := NewCooperative(0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok, err := q.Dequeue(ctx, true)
	require.Error(t, err)
	require.False(t, ok)
}
