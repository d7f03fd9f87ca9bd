package normalform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

func newAlloca(region *rvsdg.Region) (*rvsdg.Output, *rvsdg.Output) {
	n := rvsdg.NewSimple(region, cfg.Operation{Kind: cfg.OpAlloca, ElemType: types.Int(32)})
	return n.AddOutput(types.Pointer(types.Int(32))), n.AddOutput(types.Memory())
}

func newStore(region *rvsdg.Region, addr, value, state rvsdg.Origin) *rvsdg.Output {
	n := rvsdg.NewSimple(region, cfg.Operation{Kind: cfg.OpStore})
	n.AddInput(addr.Type(), addr)
	n.AddInput(value.Type(), value)
	n.AddInput(types.Memory(), state)
	return n.AddOutput(types.Memory())
}

func newLoad(region *rvsdg.Region, addr rvsdg.Origin, states ...rvsdg.Origin) *rvsdg.Node {
	n := rvsdg.NewSimple(region, cfg.Operation{Kind: cfg.OpLoad})
	n.AddInput(addr.Type(), addr)
	for _, s := range states {
		n.AddInput(types.Memory(), s)
	}
	n.AddOutput(types.Int(32))
	return n
}

func TestLoadMux(t *testing.T) {
	m := rvsdg.NewModule("loadmux.ll", "", "")
	region := m.Graph

	pa, sa := newAlloca(region)
	_, sb := newAlloca(region)
	mux := rvsdg.NewMemStateMux(region, []rvsdg.Origin{sa, sb})
	load := newLoad(region, pa, mux)

	m.NormalForm(cfg.OpLoad).EnableLoadMux = true
	Run(m)

	require.Len(t, load.Inputs, 3, "the mux is bypassed into a multi-state load")
	assert.Equal(t, rvsdg.Origin(sa), load.Inputs[1].Origin)
	assert.Equal(t, rvsdg.Origin(sb), load.Inputs[2].Origin)
}

func TestMultipleOrigin(t *testing.T) {
	m := rvsdg.NewModule("multiorigin.ll", "", "")
	region := m.Graph

	pa, sa := newAlloca(region)
	load := newLoad(region, pa, sa, sa, sa)

	m.NormalForm(cfg.OpLoad).EnableMultipleOrigin = true
	Run(m)

	require.Len(t, load.Inputs, 2, "duplicate states deduplicate")
	assert.Equal(t, rvsdg.Origin(sa), load.Inputs[1].Origin)
}

func TestLoadAlloca(t *testing.T) {
	m := rvsdg.NewModule("loadalloca.ll", "", "")
	region := m.Graph

	pa, sa := newAlloca(region)
	_, sb := newAlloca(region)
	load := newLoad(region, pa, sa, sb)

	m.NormalForm(cfg.OpLoad).EnableLoadAlloca = true
	Run(m)

	require.Len(t, load.Inputs, 2, "the unrelated alloca's state is dropped")
	assert.Equal(t, rvsdg.Origin(sa), load.Inputs[1].Origin)
}

func TestLoadStoreState(t *testing.T) {
	m := rvsdg.NewModule("loadstorestate.ll", "", "")
	region := m.Graph

	pa, sa := newAlloca(region)
	pb, sb := newAlloca(region)
	value := rvsdg.NewIntConstant(region, 32, 1)
	s1 := newStore(region, pa, value, sa)
	s2 := newStore(region, pb, value, sb)
	load := newLoad(region, pa, s1, s2)

	m.NormalForm(cfg.OpLoad).EnableLoadStoreState = true
	Run(m)

	require.Len(t, load.Inputs, 2, "the state of the store to the other alloca is dropped")
	assert.Equal(t, rvsdg.Origin(s1), load.Inputs[1].Origin)
}

// TestLoadStoreAllocaThroughMux is the E6 scenario: two stores on distinct
// allocas whose states are muxed and then read by one load.
func TestLoadStoreAllocaThroughMux(t *testing.T) {
	m := rvsdg.NewModule("e6.ll", "", "")
	region := m.Graph

	pa, sa := newAlloca(region)
	pb, sb := newAlloca(region)
	value := rvsdg.NewIntConstant(region, 32, 1)
	s1 := newStore(region, pa, value, sa)
	s2 := newStore(region, pb, value, sb)
	mux := rvsdg.NewMemStateMux(region, []rvsdg.Origin{s1, s2})
	load := newLoad(region, pa, mux)

	m.NormalForm(cfg.OpLoad).EnableLoadStoreAlloca = true
	Run(m)

	require.Len(t, load.Inputs, 2)
	assert.Equal(t, rvsdg.Origin(s1), load.Inputs[1].Origin,
		"the load depends only on the state matching its address")
}

func TestRulesDisabledByDefault(t *testing.T) {
	m := rvsdg.NewModule("disabled.ll", "", "")
	region := m.Graph

	pa, sa := newAlloca(region)
	_, sb := newAlloca(region)
	load := newLoad(region, pa, sa, sb)

	Run(m)

	assert.Len(t, load.Inputs, 3, "no rule fires unless enabled")
}

func TestFoldBinaryConstants(t *testing.T) {
	m := rvsdg.NewModule("fold.ll", "", "")
	region := m.Graph

	a := rvsdg.NewIntConstant(region, 32, 40)
	b := rvsdg.NewIntConstant(region, 32, 2)
	sum := rvsdg.NewBinary(region, cfg.OpAdd, 32, a, b)
	region.AddResult(types.Int(32), sum)

	Run(m)

	out, ok := region.Results[0].Origin.(*rvsdg.Output)
	require.True(t, ok)
	require.Equal(t, cfg.OpIntConst, out.Node.Op.Kind)
	assert.Equal(t, uint64(42), out.Node.Op.IntValue)
}

func TestFoldRespectsFrozenNormalForm(t *testing.T) {
	m := rvsdg.NewModule("frozen.ll", "", "")
	region := m.Graph

	a := rvsdg.NewIntConstant(region, 32, 40)
	b := rvsdg.NewIntConstant(region, 32, 2)
	sum := rvsdg.NewBinary(region, cfg.OpAdd, 32, a, b)
	region.AddResult(types.Int(32), sum)

	m.NormalForm(cfg.OpAdd).Mutable = false
	Run(m)

	out, ok := region.Results[0].Origin.(*rvsdg.Output)
	require.True(t, ok)
	assert.Equal(t, cfg.OpAdd, out.Node.Op.Kind, "frozen normal forms do not rewrite")
}

func TestFoldMasksToWidth(t *testing.T) {
	m := rvsdg.NewModule("mask.ll", "", "")
	region := m.Graph

	a := rvsdg.NewIntConstant(region, 8, 200)
	b := rvsdg.NewIntConstant(region, 8, 100)
	sum := rvsdg.NewBinary(region, cfg.OpAdd, 8, a, b)
	region.AddResult(types.Int(8), sum)

	Run(m)

	out, ok := region.Results[0].Origin.(*rvsdg.Output)
	require.True(t, ok)
	require.Equal(t, cfg.OpIntConst, out.Node.Op.Kind)
	assert.Equal(t, uint64(44), out.Node.Op.IntValue, "300 truncated to 8 bits")
}
