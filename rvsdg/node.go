package rvsdg

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// NodeKind discriminates the one simple and five structural node shapes.
type NodeKind int

const (
	NodeSimple NodeKind = iota
	NodeGamma
	NodeTheta
	NodeLambda
	NodeDelta
	NodePhi
)

func (k NodeKind) String() string {
	switch k {
	case NodeSimple:
		return "simple"
	case NodeGamma:
		return "gamma"
	case NodeTheta:
		return "theta"
	case NodeLambda:
		return "lambda"
	case NodeDelta:
		return "delta"
	case NodePhi:
		return "phi"
	default:
		return "unknown"
	}
}

// Node is a single graph vertex: a simple operation with typed ports, or
// a structural node owning one or more subregions. A region exclusively
// owns its nodes.
type Node struct {
	Kind   NodeKind
	Region *Region // the region this node lives in; nil until added

	// NodeSimple
	Op      cfg.Operation
	Inputs  []*Input
	Outputs []*Output

	// NodeGamma: Inputs[0] is the predicate; Inputs[1:] are entry-vars;
	// Outputs are exit-vars; Subregions holds k >= 2 alternatives, each
	// with one Argument per entry-var and one Result per exit-var.
	Subregions []*Region

	// NodeTheta: single subregion in Subregions[0]; Inputs/Outputs are
	// loop-vars; the subregion's Results[0] is the repeat predicate and
	// Results[1:] are the loop-vars' updated values, parallel to the
	// subregion's Arguments.
	//
	// NodeLambda: single subregion in Subregions[0] whose arguments are
	// context-vars (Inputs) followed by formal parameters; Outputs[0]
	// is the function value. Name/Linkage/FuncType describe the binding.
	//
	// NodeDelta: single subregion computing the initial value;
	// Outputs[0] is the global's address. DeltaType/Constant/Linkage
	// describe the binding.
	//
	// NodePhi: single subregion whose arguments are context-vars
	// followed by one recursive-reference placeholder per binding, and
	// whose results are the bound values in the same order; Outputs
	// holds one exported value per binding.

	Name      string
	Linkage   types.Linkage
	FuncType  types.Type
	DeltaType types.Type
	Constant  bool

	NumContextVars int // NodeLambda, NodeDelta, NodePhi: prefix length of Subregions[0].Arguments
}

func newNode(kind NodeKind) *Node {
	return &Node{Kind: kind}
}

// AddInput appends a new input port of type t bound to origin.
func (n *Node) AddInput(t types.Type, origin Origin) *Input {
	in := &Input{Node: n, Index: len(n.Inputs), Typ: t, Origin: origin}
	n.Inputs = append(n.Inputs, in)
	return in
}

// AddOutput appends a new output port of type t.
func (n *Node) AddOutput(t types.Type) *Output {
	out := &Output{Node: n, Index: len(n.Outputs), Typ: t}
	n.Outputs = append(n.Outputs, out)
	return out
}

// NewSimple builds a simple node for op and adds it to region.
func NewSimple(region *Region, op cfg.Operation) *Node {
	n := newNode(NodeSimple)
	n.Op = op
	region.AddNode(n)
	return n
}
