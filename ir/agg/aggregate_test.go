package agg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlm-go/rvsdgc/ir/cfg"
)

// kinds flattens the tree into a pre-order kind sequence for shape
// assertions.
func kinds(n *Node) []Kind {
	out := []Kind{n.Kind}
	for _, c := range n.Children {
		out = append(out, kinds(c)...)
	}
	return out
}

func TestAggregateLinearChain(t *testing.T) {
	c := cfg.New(nil, nil)
	b1 := c.NewBlock()
	b2 := c.NewBlock()
	c.Entry.AddOutEdge(b1)
	b1.AddOutEdge(b2)
	b2.AddOutEdge(c.Exit)

	tree := Aggregate(c)
	require.NotNil(t, tree)
	assert.Equal(t, KindLinear, tree.Kind)

	flat := kinds(tree)
	var blocks, entries, exits int
	for _, k := range flat {
		switch k {
		case KindBlock:
			blocks++
		case KindEntry:
			entries++
		case KindExit:
			exits++
		case KindBranch, KindLoop:
			t.Fatalf("unexpected %v in a linear chain", k)
		}
	}
	assert.Equal(t, 2, blocks)
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, exits)
}

func TestAggregateBranch(t *testing.T) {
	c := cfg.New(nil, nil)
	split := c.NewBlock()
	alt1 := c.NewBlock()
	alt2 := c.NewBlock()
	join := c.NewBlock()
	c.Entry.AddOutEdge(split)
	split.AddOutEdge(alt1)
	split.AddOutEdge(alt2)
	alt1.AddOutEdge(join)
	alt2.AddOutEdge(join)
	join.AddOutEdge(c.Exit)

	tree := Aggregate(c)
	require.NotNil(t, tree)

	var branch *Node
	var find func(n *Node)
	find = func(n *Node) {
		if n.Kind == KindBranch {
			branch = n
		}
		for _, child := range n.Children {
			find(child)
		}
	}
	find(tree)

	require.NotNil(t, branch, "branch reduction applied")
	assert.Equal(t, KindBlock, branch.Head().Kind)
	assert.Len(t, branch.Alternatives(), 2)
}

func TestAggregateLoop(t *testing.T) {
	c := cfg.New(nil, nil)
	body := c.NewBlock()
	after := c.NewBlock()
	c.Entry.AddOutEdge(body)
	body.AddOutEdge(after)
	body.AddOutEdge(body)
	after.AddOutEdge(c.Exit)

	tree := Aggregate(c)
	require.NotNil(t, tree)

	var loop *Node
	var find func(n *Node)
	find = func(n *Node) {
		if n.Kind == KindLoop {
			loop = n
		}
		for _, child := range n.Children {
			find(child)
		}
	}
	find(tree)

	require.NotNil(t, loop, "loop reduction applied")
	assert.Equal(t, KindBlock, loop.Body().Kind)
}

func TestAggregateRejectsUnstructured(t *testing.T) {
	// Two blocks branching into each other never reduce.
	c := cfg.New(nil, nil)
	a := c.NewBlock()
	b := c.NewBlock()
	c.Entry.AddOutEdge(a)
	a.AddOutEdge(b)
	a.AddOutEdge(c.Exit)
	b.AddOutEdge(a)
	b.AddOutEdge(c.Exit)

	assert.PanicsWithError(t,
		"cfg did not reduce to a single aggregation node: not proper-structured",
		func() { Aggregate(c) })
}
