package cfg

import "github.com/jlm-go/rvsdgc/ir/types"

// AppendMatch appends a `match` TAC computing a control-typed predicate from
// an integer input according to mapping (unmapped values select the default
// alternative, numbered alternatives-1), and returns the fresh control
// variable it produces.
func (b *BasicBlock) AppendMatch(input *Variable, mapping MatchMapping, alternatives uint32) *Variable {
	ctl := NewVariable("#ctl#", types.Control(alternatives))
	b.Append(&TAC{
		Op:      Operation{Kind: OpMatch, Mapping: mapping, Alternatives: alternatives, Default: alternatives - 1},
		Inputs:  []*Variable{input},
		Results: []*Variable{ctl},
	})
	return ctl
}

// AppendBranch appends the terminating `branch` TAC consuming a control
// value produced by AppendMatch; successors must equal the owning node's
// eventual out-edge count (spec §3 invariant).
func (b *BasicBlock) AppendBranch(ctl *Variable, successors uint32) {
	b.Append(&TAC{
		Op:     Operation{Kind: OpBranch, Successors: successors},
		Inputs: []*Variable{ctl},
	})
}

// AppendIntConstant appends an `int_const` TAC assigning value into a
// variable of the given bit width.
func (b *BasicBlock) AppendIntConstant(bits uint32, value uint64, into *Variable) {
	b.Append(&TAC{
		Op:      Operation{Kind: OpIntConst, Bits: bits, IntValue: value},
		Results: []*Variable{into},
	})
}

// AppendAssignment appends an `assignment(dest, src)` TAC.
func (b *BasicBlock) AppendAssignment(dest, src *Variable) {
	b.Append(NewAssignment(dest, src))
}
