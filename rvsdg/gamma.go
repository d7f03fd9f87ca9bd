package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// NewGamma opens a multi-way conditional node with k alternatives and
// adds it to region. predicate must be a control-typed origin carrying a
// match result; one alternative is selected per evaluation.
func NewGamma(region *Region, predicate Origin, k int) *Node {
	n := newNode(NodeGamma)
	n.AddInput(predicate.Type(), predicate)
	n.Subregions = make([]*Region, k)
	for i := range n.Subregions {
		n.Subregions[i] = NewRegion(n)
	}
	region.AddNode(n)
	return n
}

// Alternatives returns the gamma's k subregions.
func (n *Node) Alternatives() []*Region { return n.Subregions }

// AddEntryVar adds an entry-var: one node input bound to outerOrigin, and
// a matching argument of the same type in every alternative subregion.
// Returns the per-alternative arguments in subregion order.
func (n *Node) AddEntryVar(t types.Type, outerOrigin Origin) []*Argument {
	n.AddInput(t, outerOrigin)
	args := make([]*Argument, len(n.Subregions))
	for i, sub := range n.Subregions {
		args[i] = sub.AddArgument(t)
	}
	return args
}

// AddExitVar adds an exit-var: one result per alternative (perAlternative,
// in subregion order) and a matching gamma output merging them.
func (n *Node) AddExitVar(t types.Type, perAlternative []Origin) *Output {
	for i, sub := range n.Subregions {
		sub.AddResult(t, perAlternative[i])
	}
	return n.AddOutput(t)
}
