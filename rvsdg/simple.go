package rvsdg

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// NewIntConstant creates an integer constant node and returns its output.
func NewIntConstant(region *Region, bits uint32, value uint64) *Output {
	n := NewSimple(region, cfg.Operation{Kind: cfg.OpIntConst, Bits: bits, IntValue: value})
	return n.AddOutput(types.Int(bits))
}

// NewBinary creates a binary arithmetic or comparison node over two
// same-width integer operands and returns its output. Comparisons produce
// a 1-bit result.
func NewBinary(region *Region, kind cfg.OpKind, bits uint32, a, b Origin) *Output {
	n := NewSimple(region, cfg.Operation{Kind: kind, Bits: bits})
	n.AddInput(a.Type(), a)
	n.AddInput(b.Type(), b)
	if kind.IsIntCompare() || kind.IsFloatCompare() {
		return n.AddOutput(types.Int(1))
	}
	return n.AddOutput(types.Int(bits))
}

// NewMatch creates a match node mapping an integer discriminant to one of
// alternatives control values and returns its control-typed output.
func NewMatch(region *Region, input Origin, mapping cfg.MatchMapping, deflt, alternatives uint32) *Output {
	n := NewSimple(region, cfg.Operation{
		Kind:         cfg.OpMatch,
		Mapping:      mapping,
		Alternatives: alternatives,
		Default:      deflt,
	})
	n.AddInput(input.Type(), input)
	return n.AddOutput(types.Control(alternatives))
}

// NewUndef creates an undef constant of type t and returns its output.
func NewUndef(region *Region, t types.Type) *Output {
	n := NewSimple(region, cfg.Operation{Kind: cfg.OpUndefConst})
	return n.AddOutput(t)
}

// NewMemStateMux creates a memory-state mux node merging the given state
// origins into one and returns its output.
func NewMemStateMux(region *Region, states []Origin) *Output {
	n := NewSimple(region, cfg.Operation{Kind: cfg.OpMemStateMux})
	for _, s := range states {
		n.AddInput(types.Memory(), s)
	}
	return n.AddOutput(types.Memory())
}
