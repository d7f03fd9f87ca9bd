package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// NewPhi opens a mutually recursive binding group and adds it to region.
// The subregion's arguments are captured context variables followed by one
// recursive-reference placeholder per binding; its results are the bound
// values in the same order; the node exports one output per binding.
func NewPhi(region *Region) *Node {
	n := newNode(NodePhi)
	n.Subregions = []*Region{NewRegion(n)}
	region.AddNode(n)
	return n
}

// AddPhiContextVar binds a value captured from the enclosing region into
// the phi's subregion. All context vars must be added before the first
// recursion var.
func (n *Node) AddPhiContextVar(t types.Type, outerOrigin Origin) *Argument {
	n.AddInput(t, outerOrigin)
	n.NumContextVars++
	return n.Subregions[0].AddArgument(t)
}

// AddRecVar adds one binding of the recursion group: a placeholder argument
// through which the group's members reference this binding, and the node
// output under which the finished binding is exported.
func (n *Node) AddRecVar(t types.Type) (*Argument, *Output) {
	arg := n.Subregions[0].AddArgument(t)
	out := n.AddOutput(t)
	return arg, out
}

// SetRecResult appends the subregion result carrying one binding's value,
// in the order the recursion vars were added.
func (n *Node) SetRecResult(t types.Type, value Origin) *Result {
	return n.Subregions[0].AddResult(t, value)
}

// RecArguments returns the recursive-reference placeholder arguments, i.e.
// every subregion argument after the context vars.
func (n *Node) RecArguments() []*Argument {
	return n.Subregions[0].Arguments[n.NumContextVars:]
}
