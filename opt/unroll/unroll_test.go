package unroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// countedTheta builds a theta computing i = 0; do { i = i + 1 } while
// (i < n), with n loop-invariant: the canonical unrollable shape.
func countedTheta(m *rvsdg.Module, bound uint64) *rvsdg.Node {
	region := m.Graph
	i0 := rvsdg.NewIntConstant(region, 32, 0)
	n0 := rvsdg.NewIntConstant(region, 32, bound)

	theta := rvsdg.NewTheta(region)
	iArg, _ := theta.AddLoopVar(types.Int(32), i0)
	nArg, _ := theta.AddLoopVar(types.Int(32), n0)

	body := theta.Body()
	one := rvsdg.NewIntConstant(body, 32, 1)
	next := rvsdg.NewBinary(body, cfg.OpAdd, 32, iArg, one)
	cmp := rvsdg.NewBinary(body, cfg.OpICmpULt, 32, next, nArg)
	pred := rvsdg.NewMatch(body, cmp, cfg.MatchMapping{1: 1}, 0, 2)

	theta.SetPredicate(pred)
	theta.SetLoopResult(types.Int(32), next)
	theta.SetLoopResult(types.Int(32), nArg)
	return theta
}

func gammasAndThetas(region *rvsdg.Region) (gammas, thetas []*rvsdg.Node) {
	for _, n := range region.Nodes {
		switch n.Kind {
		case rvsdg.NodeGamma:
			gammas = append(gammas, n)
		case rvsdg.NodeTheta:
			thetas = append(thetas, n)
		}
	}
	return
}

func TestUnrollCountedLoop(t *testing.T) {
	m := rvsdg.NewModule("unroll.ll", "", "")
	theta := countedTheta(m, 10)
	out := theta.Outputs[0]
	m.Graph.AddResult(types.Int(32), out)
	require.NoError(t, m.Check())

	Run(m, 4)

	gammas, thetas := gammasAndThetas(m.Graph)
	require.Len(t, gammas, 2, "an unrolled gamma and a remainder gamma")
	assert.Empty(t, thetas, "the original theta is gone")

	unrolled, remainder := gammas[0], gammas[1]

	_, unrolledThetas := gammasAndThetas(unrolled.Subregions[1])
	require.Len(t, unrolledThetas, 1)
	_, skipNodes := gammasAndThetas(unrolled.Subregions[0])
	assert.Empty(t, skipNodes)

	_, remainderThetas := gammasAndThetas(remainder.Subregions[1])
	require.Len(t, remainderThetas, 1)

	// The unrolled body holds four copies of the add.
	adds := 0
	for _, n := range unrolledThetas[0].Body().Nodes {
		if n.Kind == rvsdg.NodeSimple && n.Op.Kind == cfg.OpAdd {
			adds++
		}
	}
	assert.Equal(t, 4, adds)

	// The graph result now comes from the remainder gamma.
	result := m.Graph.Results[0].Origin
	resultOut, ok := result.(*rvsdg.Output)
	require.True(t, ok)
	assert.Same(t, remainder, resultOut.Node)

	assert.NoError(t, m.Check())
}

func TestUnrollFactorBelowTwoIsNoop(t *testing.T) {
	m := rvsdg.NewModule("noop.ll", "", "")
	theta := countedTheta(m, 10)
	m.Graph.AddResult(types.Int(32), theta.Outputs[0])

	Run(m, 1)

	_, thetas := gammasAndThetas(m.Graph)
	assert.Len(t, thetas, 1, "factor < 2 disables unrolling")
}

func TestUnrollSkipsNonCountedLoops(t *testing.T) {
	m := rvsdg.NewModule("skip.ll", "", "")
	region := m.Graph

	// A loop whose predicate is not shaped as a bounded count: it compares
	// two values that both change every iteration.
	a0 := rvsdg.NewIntConstant(region, 32, 0)
	b0 := rvsdg.NewIntConstant(region, 32, 100)
	theta := rvsdg.NewTheta(region)
	aArg, _ := theta.AddLoopVar(types.Int(32), a0)
	bArg, _ := theta.AddLoopVar(types.Int(32), b0)

	body := theta.Body()
	one := rvsdg.NewIntConstant(body, 32, 1)
	aNext := rvsdg.NewBinary(body, cfg.OpAdd, 32, aArg, one)
	bNext := rvsdg.NewBinary(body, cfg.OpSub, 32, bArg, one)
	cmp := rvsdg.NewBinary(body, cfg.OpICmpULt, 32, aNext, bNext)
	pred := rvsdg.NewMatch(body, cmp, cfg.MatchMapping{1: 1}, 0, 2)
	theta.SetPredicate(pred)
	theta.SetLoopResult(types.Int(32), aNext)
	theta.SetLoopResult(types.Int(32), bNext)
	m.Graph.AddResult(types.Int(32), theta.Outputs[0])

	Run(m, 4)

	_, thetas := gammasAndThetas(m.Graph)
	assert.Len(t, thetas, 1, "bound is not loop-invariant; unrolling is a no-op")
}

func TestUnrollSkipsNestedThetas(t *testing.T) {
	m := rvsdg.NewModule("nested.ll", "", "")
	theta := countedTheta(m, 10)

	// Plant an inner loop: the outer theta is no longer unrollable.
	inner := rvsdg.NewTheta(theta.Body())
	inner.SetPredicate(rvsdg.NewMatch(inner.Body(),
		rvsdg.NewIntConstant(inner.Body(), 1, 0), cfg.MatchMapping{1: 1}, 0, 2))
	m.Graph.AddResult(types.Int(32), theta.Outputs[0])

	Run(m, 4)

	_, thetas := gammasAndThetas(m.Graph)
	assert.Len(t, thetas, 1, "a loop containing a loop is left alone")
}
