package grid

import (
	"context"
	"sync"
	"testing"

	"github.com/HoneyDrunkStudios/gridkernel/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(t *testing.T) *NodeContext {
	t.Helper()
	node, err := NewNodeContext("test-node", "1.0.0", "studio-a", "test", nil)
	require.NoError(t, err)
	return node
}

func TestNewRootIsRoot(t *testing.T) {
	root := NewRoot(testNode(t))

	assert.True(t, root.IsRoot())
	assert.True(t, root.CausationID().IsRoot())
	assert.NotEmpty(t, root.CorrelationID())
	assert.Equal(t, id.NodeID("test-node"), root.NodeID())
	assert.Equal(t, id.StudioID("studio-a"), root.StudioID())
	assert.Equal(t, id.Environment("test"), root.Environment())
	assert.False(t, root.CreatedAt().IsZero())
}

func TestCreateChildContextCausationChain(t *testing.T) {
	root := NewRoot(testNode(t))
	child := root.CreateChildContext("")

	assert.Equal(t, root.CorrelationID().String(), child.CausationID().String())
	assert.NotEqual(t, root.CorrelationID(), child.CorrelationID())
	assert.False(t, child.IsRoot())
}

func TestCreateChildContextNodeOverride(t *testing.T) {
	root := Restore("ABC123", "", testNode(t), Baggage{})

	child := root.CreateChildContext("payment-node")
	assert.Equal(t, id.CausationID("ABC123"), child.CausationID())
	assert.Equal(t, id.NodeID("payment-node"), child.NodeID())
	assert.NotEqual(t, root.CorrelationID(), child.CorrelationID())

	inherited := root.CreateChildContext("")
	assert.Equal(t, id.NodeID("test-node"), inherited.NodeID())
}

func TestCreateChildContextSharesBaggage(t *testing.T) {
	root := NewRoot(testNode(t))
	enriched, err := root.WithBaggage("tenant", "t1")
	require.NoError(t, err)

	child := enriched.CreateChildContext("")
	v, ok := child.Baggage().Get("tenant")
	assert.True(t, ok)
	assert.Equal(t, "t1", v)
}

func TestWithBaggageKeepsCausation(t *testing.T) {
	root := NewRoot(testNode(t))
	child := root.CreateChildContext("")

	enriched, err := child.WithBaggage("tenant", "t1")
	require.NoError(t, err)

	assert.Equal(t, child.CorrelationID(), enriched.CorrelationID())
	assert.Equal(t, child.CausationID(), enriched.CausationID())

	// parent untouched
	_, ok := child.Baggage().Get("tenant")
	assert.False(t, ok)
}

func TestWithBaggageEmptyKey(t *testing.T) {
	root := NewRoot(testNode(t))

	_, err := root.WithBaggage("", "v")
	assert.ErrorIs(t, err, ErrEmptyBaggageKey)
}

func TestCancellationInheritedByChildren(t *testing.T) {
	signal, cancel := context.WithCancel(context.Background())

	root := NewRoot(testNode(t)).WithCancellation(signal)
	child := root.CreateChildContext("")
	grandchild := child.CreateChildContext("")

	assert.NoError(t, grandchild.Err())

	cancel()

	<-grandchild.Done()
	assert.Error(t, grandchild.Err())
	assert.Error(t, child.Err())
	assert.Error(t, root.Err())
}

func TestChildCannotCancelParent(t *testing.T) {
	parentSignal, parentCancel := context.WithCancel(context.Background())
	defer parentCancel()

	root := NewRoot(testNode(t)).WithCancellation(parentSignal)

	childSignal, childCancel := context.WithCancel(parentSignal)
	child := root.CreateChildContext("").WithCancellation(childSignal)

	childCancel()

	assert.Error(t, child.Err())
	assert.NoError(t, root.Err())
}

func TestConcurrentFanOut(t *testing.T) {
	root := NewRoot(testNode(t))

	const branches = 16
	children := make([]*Context, branches)
	var wg sync.WaitGroup
	for i := 0; i < branches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			children[i] = root.CreateChildContext("")
		}(i)
	}
	wg.Wait()

	seen := make(map[id.CorrelationID]bool)
	for _, child := range children {
		assert.Equal(t, root.CorrelationID().String(), child.CausationID().String())
		assert.False(t, seen[child.CorrelationID()], "correlation ids must differ across siblings")
		seen[child.CorrelationID()] = true
	}
}

func TestCausationChainReconstructable(t *testing.T) {
	root := NewRoot(testNode(t))

	hops := []*Context{root}
	for i := 0; i < 5; i++ {
		hops = append(hops, hops[len(hops)-1].CreateChildContext(""))
	}

	// Walk backwards: each causation id is the previous hop's correlation id.
	for i := len(hops) - 1; i > 0; i-- {
		assert.Equal(t, hops[i-1].CorrelationID().String(), hops[i].CausationID().String())
	}
	assert.True(t, hops[0].IsRoot())
}
