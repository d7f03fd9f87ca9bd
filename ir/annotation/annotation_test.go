package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlm-go/rvsdgc/ir/agg"
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

func i32(name string) *cfg.Variable {
	return cfg.NewVariable(name, types.Int(32))
}

func block(tacs ...*cfg.TAC) *agg.Node {
	bb := &cfg.BasicBlock{}
	for _, t := range tacs {
		bb.Append(t)
	}
	return aggBlock(bb)
}

func aggBlock(bb *cfg.BasicBlock) *agg.Node {
	// agg exposes no public leaf constructor for tests; go through a
	// minimal proper-structured CFG instead.
	c := cfg.New(nil, nil)
	n := c.NewBlock()
	n.Block.TACs = bb.TACs
	c.Entry.AddOutEdge(n)
	n.AddOutEdge(c.Exit)
	tree := agg.Aggregate(c)
	// tree = Linear(Entry, Linear(Block, Exit)) or a rotation of it; find
	// the block leaf.
	var found *agg.Node
	var walk func(x *agg.Node)
	walk = func(x *agg.Node) {
		if x.Kind == agg.KindBlock {
			found = x
		}
		for _, ch := range x.Children {
			walk(ch)
		}
	}
	walk(tree)
	return found
}

func TestAnnotateBlockTransfer(t *testing.T) {
	a, b, c := i32("a"), i32("b"), i32("c")
	// c = add(a, b); a = add(c, c)
	node := block(
		cfg.NewTAC(cfg.Operation{Kind: cfg.OpAdd}, []*cfg.Variable{a, b}, []*cfg.Variable{c}),
		cfg.NewTAC(cfg.Operation{Kind: cfg.OpAdd}, []*cfg.Variable{c, c}, []*cfg.Variable{a}),
	)

	bottom := NewVariableSet()
	bottom.Insert(a)
	dm := DemandMap{}
	top := annotate(node, bottom, dm)

	assert.True(t, top.Has(a), "a is read before being redefined")
	assert.True(t, top.Has(b))
	assert.False(t, top.Has(c), "c is defined before use")
}

func TestAnnotateAssignment(t *testing.T) {
	d, s := i32("d"), i32("s")
	node := block(cfg.NewAssignment(d, s))

	bottom := NewVariableSet()
	bottom.Insert(d)
	top := annotate(node, bottom, DemandMap{})

	assert.False(t, top.Has(d), "assignment kills its destination")
	assert.True(t, top.Has(s))
}

func TestAnnotateEntryExit(t *testing.T) {
	arg := i32("arg")
	res := i32("res")

	c := cfg.New([]*cfg.Variable{arg}, []*cfg.Variable{res})
	b := c.NewBlock()
	b.Block.Append(cfg.NewAssignment(res, arg))
	c.Entry.AddOutEdge(b)
	b.AddOutEdge(c.Exit)

	tree := agg.Aggregate(c)
	dm := Annotate(tree, nil)

	root := dm[tree]
	require.NotNil(t, root)
	assert.Equal(t, 0, len(root.Top), "arguments satisfy all demand")
	assert.Equal(t, 0, len(root.Bottom))
}

func TestAnnotateBranchCases(t *testing.T) {
	x, a, b, r := i32("x"), i32("a"), i32("b"), i32("r")

	c := cfg.New([]*cfg.Variable{x, a, b}, []*cfg.Variable{r})
	head := c.NewBlock()
	ctl := head.Block.AppendMatch(x, cfg.MatchMapping{0: 0}, 2)
	head.Block.AppendBranch(ctl, 2)
	alt0 := c.NewBlock()
	alt0.Block.Append(cfg.NewAssignment(r, a))
	alt1 := c.NewBlock()
	alt1.Block.Append(cfg.NewAssignment(r, b))
	join := c.NewBlock()

	c.Entry.AddOutEdge(head)
	head.AddOutEdge(alt0)
	head.AddOutEdge(alt1)
	alt0.AddOutEdge(join)
	alt1.AddOutEdge(join)
	join.AddOutEdge(c.Exit)

	tree := agg.Aggregate(c)
	dm := Annotate(tree, nil)

	var branch *agg.Node
	var walk func(n *agg.Node)
	walk = func(n *agg.Node) {
		if n.Kind == agg.KindBranch {
			branch = n
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(tree)
	require.NotNil(t, branch)

	d := dm[branch]
	require.NotNil(t, d)
	assert.True(t, d.CasesBottom.Has(r), "r is demanded at the join")
	assert.True(t, d.CasesTop.Has(a), "alternative 0 reads a")
	assert.True(t, d.CasesTop.Has(b), "alternative 1 reads b")
	assert.False(t, d.CasesTop.Has(r), "every alternative defines r")
}

func TestAnnotateLoopFixpoint(t *testing.T) {
	i, n := i32("i"), i32("n")

	c := cfg.New([]*cfg.Variable{i, n}, []*cfg.Variable{i})
	body := c.NewBlock()
	one := i32("one")
	cond := i32("cond")
	body.Block.AppendIntConstant(32, 1, one)
	body.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpAdd}, []*cfg.Variable{i, one}, []*cfg.Variable{i}))
	body.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpICmpULt}, []*cfg.Variable{i, n}, []*cfg.Variable{cond}))
	ctl := body.Block.AppendMatch(cond, cfg.MatchMapping{0: 0}, 2)
	body.Block.AppendBranch(ctl, 2)

	after := c.NewBlock()
	c.Entry.AddOutEdge(body)
	body.AddOutEdge(after)
	body.AddOutEdge(body)
	after.AddOutEdge(c.Exit)

	tree := agg.Aggregate(c)
	dm := Annotate(tree, nil)

	var loop *agg.Node
	var walk func(x *agg.Node)
	walk = func(x *agg.Node) {
		if x.Kind == agg.KindLoop {
			loop = x
		}
		for _, ch := range x.Children {
			walk(ch)
		}
	}
	walk(tree)
	require.NotNil(t, loop)

	d := dm[loop]
	require.NotNil(t, d)
	assert.True(t, d.Top.Has(i), "induction variable is carried by the loop")
	assert.True(t, d.Top.Has(n), "bound is live across iterations")
	assert.True(t, d.Top.Superset(d.Bottom), "loop top subsumes the demand below it")
}

func TestVariableSetOperations(t *testing.T) {
	a, b := i32("a"), i32("b")

	s := NewVariableSet()
	s.Insert(a)
	assert.True(t, s.Has(a))
	assert.False(t, s.Has(b))

	clone := s.Clone()
	clone.Insert(b)
	assert.False(t, s.Has(b), "clone is independent")

	assert.True(t, clone.Superset(s))
	assert.False(t, s.Superset(clone))
	assert.False(t, s.Equal(clone))

	s.Union(clone)
	assert.True(t, s.Equal(clone))

	s.Erase(a)
	assert.False(t, s.Has(a))
}
