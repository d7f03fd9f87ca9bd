// Package ipgraph implements the inter-procedural graph and LLIR module
// container of spec §3 ("LLIR module"): an ordered collection of function
// and data nodes, each with an out-dependency set on other nodes, with
// strongly-connected-component discovery over that dependency relation
// (grounded on original_source/libjlm/include/jlm/ir/ipgraph.hpp).
package ipgraph

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// NodeKind discriminates function nodes from data nodes.
type NodeKind int

const (
	NodeFunction NodeKind = iota
	NodeData
)

// Node is one vertex of the inter-procedural graph: a function node (name,
// function type, linkage, optional CFG body) or a data node (name, pointer
// type, linkage, constant flag, optional initialiser).
//
// Value is the typed variable under which this node's address is referenced
// from CFG code; TACs that mention the global use exactly this handle, which
// is how the RVSDG builder recognises inter-procedural references without a
// back-pointer from the variable to the node.
type Node struct {
	Kind    NodeKind
	Name    string
	Linkage types.Linkage
	Value   *cfg.Variable

	// NodeFunction
	FuncType types.Type
	Body     *cfg.Cfg // nil for a declaration-only function node

	// NodeData
	DataType    types.Type // always a pointer type
	Constant    bool
	Initialiser []*cfg.TAC // nil for a declaration-only data node; the last TAC computes the initial value

	deps     map[*Node]bool
	depOrder []*Node
}

// NewFunction creates a function node; body may be nil for a declaration.
// funcType must agree with the body's entry arguments and exit results,
// including any threaded memory/loop state types the ingress appended.
func NewFunction(name string, funcType types.Type, linkage types.Linkage, body *cfg.Cfg) *Node {
	return &Node{
		Kind:     NodeFunction,
		Name:     name,
		Linkage:  linkage,
		FuncType: funcType,
		Body:     body,
		Value:    cfg.NewVariable(name, types.Pointer(funcType)),
	}
}

// NewData creates a data node; pointerType must be a pointer to the global's
// value type, and initialiser may be nil for a declaration.
func NewData(name string, pointerType types.Type, linkage types.Linkage, constant bool, initialiser []*cfg.TAC) *Node {
	return &Node{
		Kind:        NodeData,
		Name:        name,
		Linkage:     linkage,
		DataType:    pointerType,
		Constant:    constant,
		Initialiser: initialiser,
		Value:       cfg.NewVariable(name, pointerType),
	}
}

// DependsOn records that n has an out-dependency on other (spec §3 "Each
// IPG node carries an unordered set of out-dependencies on other IPG
// nodes").
func (n *Node) DependsOn(other *Node) {
	if n.deps == nil {
		n.deps = map[*Node]bool{}
	}
	if !n.deps[other] {
		n.depOrder = append(n.depOrder, other)
	}
	n.deps[other] = true
}

// Dependencies returns n's out-dependency set in first-recorded order, so
// traversals over the relation are reproducible.
func (n *Node) Dependencies() []*Node {
	return append([]*Node(nil), n.depOrder...)
}

// HasDependency reports whether n depends on other.
func (n *Node) HasDependency(other *Node) bool {
	return n.deps != nil && n.deps[other]
}

// SelfRecursive reports whether n depends on itself (spec §3).
func (n *Node) SelfRecursive() bool {
	return n.deps != nil && n.deps[n]
}

// IPG is the ordered inter-procedural graph.
type IPG struct {
	Nodes []*Node
}

// Add appends a node to the IPG, preserving insertion order.
func (g *IPG) Add(n *Node) { g.Nodes = append(g.Nodes, n) }

// Module is a named container holding an IPG (spec §3 "LLIR module"),
// together with the target metadata the egress collaborator expects to find
// on the RVSDG module it is handed.
type Module struct {
	Name         string
	TargetTriple string
	DataLayout   string
	IPG          IPG
}

// New creates an empty, named module.
func New(name, targetTriple, dataLayout string) *Module {
	return &Module{Name: name, TargetTriple: targetTriple, DataLayout: dataLayout}
}

// StronglyConnectedComponents runs Tarjan's algorithm over the IPG's
// dependency relation and returns its SCCs in the order they are closed off:
// a component is emitted only after every component it depends on, so
// iterating the result converts dependencies before their dependants (spec
// §3 "The IPG exposes strongly-connected-component discovery over this
// dependency relation").
func (g *IPG) StronglyConnectedComponents() [][]*Node {
	idx := 0
	indices := map[*Node]int{}
	low := map[*Node]int{}
	onStack := map[*Node]bool{}
	var stack []*Node
	var sccs [][]*Node

	var strongconnect func(v *Node)
	strongconnect = func(v *Node) {
		indices[v] = idx
		low[v] = idx
		idx++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range v.Dependencies() {
			if _, visited := indices[w]; !visited {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if indices[w] < low[v] {
					low[v] = indices[w]
				}
			}
		}

		if low[v] == indices[v] {
			var scc []*Node
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.Nodes {
		if _, visited := indices[n]; !visited {
			strongconnect(n)
		}
	}
	return sccs
}
