package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// NewDelta opens a global value definition node named name with linkage
// and declared value type t, and adds it to region. The subregion
// computes the initial value; the node's single output is the global's
// address.
func NewDelta(region *Region, name string, linkage types.Linkage, t types.Type, constant bool) *Node {
	n := newNode(NodeDelta)
	n.Name = name
	n.Linkage = linkage
	n.DeltaType = t
	n.Constant = constant
	n.Subregions = []*Region{NewRegion(n)}
	n.AddOutput(types.Pointer(t))
	region.AddNode(n)
	return n
}

// AddDeltaContextVar binds a value captured from the enclosing region into
// the delta's subregion, mirroring the lambda's AddContextVar.
func (n *Node) AddDeltaContextVar(t types.Type, outerOrigin Origin) *Argument {
	n.AddInput(t, outerOrigin)
	n.NumContextVars++
	return n.Subregions[0].AddArgument(t)
}

// SetInitialValue sets the delta subregion's single result: the global's
// initial value.
func (n *Node) SetInitialValue(t types.Type, value Origin) *Result {
	return n.Subregions[0].AddResult(t, value)
}
