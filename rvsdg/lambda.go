package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// NewLambda opens a function abstraction node named name with linkage and
// funcType (a pointer-to-function type), and adds it to region.
func NewLambda(region *Region, name string, linkage types.Linkage, funcType types.Type) *Node {
	n := newNode(NodeLambda)
	n.Name = name
	n.Linkage = linkage
	n.FuncType = funcType
	n.Subregions = []*Region{NewRegion(n)}
	n.AddOutput(funcType)
	region.AddNode(n)
	return n
}

// AddContextVar binds a value captured from the enclosing region: a node
// input fed by outerOrigin, and a matching subregion argument. Context
// vars must all be added before AddParameter.
func (n *Node) AddContextVar(t types.Type, outerOrigin Origin) *Argument {
	n.AddInput(t, outerOrigin)
	n.NumContextVars++
	return n.Subregions[0].AddArgument(t)
}

// AddParameter adds a formal argument of type t to the lambda's body.
func (n *Node) AddParameter(t types.Type) *Argument {
	return n.Subregions[0].AddArgument(t)
}

// Parameters returns the lambda's formal arguments, i.e. every subregion
// argument after the context vars.
func (n *Node) Parameters() []*Argument {
	return n.Subregions[0].Arguments[n.NumContextVars:]
}

// SetResult appends one of the lambda's region results, in the order the
// enclosing function-type's return values are declared.
func (n *Node) SetResult(t types.Type, value Origin) *Result {
	return n.Subregions[0].AddResult(t, value)
}

// Output returns the lambda's single function-value output.
func (n *Node) Output() *Output { return n.Outputs[0] }
