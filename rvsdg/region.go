// Package rvsdg implements the regionalised value-state dependence graph
// data model: regions of simple and structural nodes connected by typed
// ports, plus the five structural kinds (gamma, theta, lambda, delta, phi).
package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// Origin is a non-owning reference to whatever produces a value: either
// another node's output, or an argument of the enclosing region. Values
// are never materialised as named variables; they are identified purely
// by (node, output-index) or (region, argument-index).
type Origin interface {
	Type() types.Type
}

// Argument is one entry in a region's ordered argument list: a value
// supplied by the enclosing context (a structural node's corresponding
// input). The top-level region's arguments are the module's imports.
type Argument struct {
	Region *Region
	Index  int
	Typ    types.Type
}

func (a *Argument) Type() types.Type { return a.Typ }

// Result is one entry in a region's ordered result list: a value handed
// back to the enclosing context. Its Origin's type must equal Typ.
type Result struct {
	Region *Region
	Index  int
	Typ    types.Type
	Origin Origin
}

// Region holds an ordered list of arguments, an ordered list of results,
// and an ordered set of nodes. A region is exclusively owned by the
// structural node it is a subregion of, or by nothing (the top-level
// region of a module).
type Region struct {
	Owner     *Node
	Arguments []*Argument
	Results   []*Result
	Nodes     []*Node
}

// NewRegion allocates an empty region owned by owner (nil for a
// top-level region).
func NewRegion(owner *Node) *Region {
	return &Region{Owner: owner}
}

// AddArgument appends a new argument of type t and returns it.
func (r *Region) AddArgument(t types.Type) *Argument {
	a := &Argument{Region: r, Index: len(r.Arguments), Typ: t}
	r.Arguments = append(r.Arguments, a)
	return a
}

// AddResult appends a new result of type t fed by origin and returns it.
func (r *Region) AddResult(t types.Type, origin Origin) *Result {
	res := &Result{Region: r, Index: len(r.Results), Typ: t, Origin: origin}
	r.Results = append(r.Results, res)
	return res
}

// AddNode appends n to the region's owned node list and claims ownership.
func (r *Region) AddNode(n *Node) {
	n.Region = r
	r.Nodes = append(r.Nodes, n)
}

// RemoveNode drops n from the region's owned node list.
func (r *Region) RemoveNode(n *Node) {
	for i, m := range r.Nodes {
		if m == n {
			r.Nodes = append(r.Nodes[:i], r.Nodes[i+1:]...)
			return
		}
	}
}
