// Package build constructs an RVSDG module from an LLIR module: every
// function CFG is restructured, aggregated and annotated, then translated
// into a lambda node; globals become deltas, declarations become imports,
// and mutually recursive inter-procedural groups become phi nodes
// (spec §4.4).
package build

import (
	"fmt"
	"sort"

	"github.com/jlm-go/rvsdgc/ir/agg"
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/diag"
	"github.com/jlm-go/rvsdgc/ir/ipgraph"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// scope maps LLIR global variables to the RVSDG origins under which they
// are visible at one region level. Binding order is tracked so context
// variables are materialised deterministically.
type scope struct {
	values map[*cfg.Variable]rvsdg.Origin
	order  []*cfg.Variable
}

func newScope() *scope {
	return &scope{values: map[*cfg.Variable]rvsdg.Origin{}}
}

func (s *scope) bind(v *cfg.Variable, o rvsdg.Origin) {
	if _, ok := s.values[v]; !ok {
		s.order = append(s.order, v)
	}
	s.values[v] = o
}

// referenced returns, in binding order, every scope variable mentioned by
// the given TAC input sets.
func (s *scope) referenced(used map[*cfg.Variable]bool) []*cfg.Variable {
	var out []*cfg.Variable
	for _, v := range s.order {
		if used[v] {
			out = append(out, v)
		}
	}
	return out
}

// Module translates an LLIR module into an RVSDG module.
func Module(m *ipgraph.Module) (*rvsdg.Module, error) {
	out := rvsdg.NewModule(m.Name, m.TargetTriple, m.DataLayout)
	sc := newScope()

	position := map[*ipgraph.Node]int{}
	for i, n := range m.IPG.Nodes {
		position[n] = i
	}

	for _, scc := range m.IPG.StronglyConnectedComponents() {
		if len(scc) == 1 && !scc[0].SelfRecursive() {
			if err := convertNode(scc[0], out, out.Graph, sc); err != nil {
				return nil, err
			}
			continue
		}
		if err := convertRecursionGroup(scc, position, out, sc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// convertNode translates one non-recursive IPG node into region, binding
// its value into sc.
func convertNode(n *ipgraph.Node, m *rvsdg.Module, region *rvsdg.Region, sc *scope) error {
	switch n.Kind {
	case ipgraph.NodeFunction:
		if n.Body == nil {
			if region != m.Graph {
				return diag.Translation(n.Name, fmt.Errorf("function declaration inside a recursion group"))
			}
			sc.bind(n.Value, m.AddImport(n.Name, n.Value.Type))
			return nil
		}
		lambda, err := convertFunction(n, region, sc)
		if err != nil {
			return err
		}
		sc.bind(n.Value, lambda.Output())
		return nil

	case ipgraph.NodeData:
		if n.Initialiser == nil {
			if region != m.Graph {
				return diag.Translation(n.Name, fmt.Errorf("data declaration inside a recursion group"))
			}
			sc.bind(n.Value, m.AddImport(n.Name, n.Value.Type))
			return nil
		}
		delta, err := convertData(n, region, sc)
		if err != nil {
			return err
		}
		sc.bind(n.Value, delta.Outputs[0])
		return nil

	default:
		return diag.Translation(n.Name, fmt.Errorf("unknown IPG node kind %d", n.Kind))
	}
}

// convertData translates a global definition into a delta node whose
// subregion computes the initial value.
func convertData(n *ipgraph.Node, region *rvsdg.Region, sc *scope) (*rvsdg.Node, error) {
	if len(n.Initialiser) == 0 {
		return nil, diag.Translation(n.Name, fmt.Errorf("global definition carries no initialiser"))
	}
	valueType := n.DataType.Elem()
	delta := rvsdg.NewDelta(region, n.Name, n.Linkage, valueType, n.Constant)

	used := map[*cfg.Variable]bool{}
	for _, t := range n.Initialiser {
		for _, in := range t.Inputs {
			used[in] = true
		}
	}

	vmap := map[*cfg.Variable]rvsdg.Origin{}
	for _, g := range sc.referenced(used) {
		vmap[g] = delta.AddDeltaContextVar(g.Type, sc.values[g])
	}

	sub := delta.Subregions[0]
	for _, t := range n.Initialiser {
		if t.IsAssignment() {
			vmap[t.Dest()] = valueOf(sub, vmap, t.Src())
			continue
		}
		node := rvsdg.NewSimple(sub, t.Op)
		for _, in := range t.Inputs {
			node.AddInput(in.Type, valueOf(sub, vmap, in))
		}
		for _, r := range t.Results {
			vmap[r] = node.AddOutput(r.Type)
		}
	}

	last := n.Initialiser[len(n.Initialiser)-1]
	if len(last.Results) != 1 {
		return nil, diag.Translation(n.Name, fmt.Errorf("initialiser does not compute a single value"))
	}
	result := last.Results[0]
	if !result.Type.Equal(valueType) {
		return nil, diag.Translation(n.Name,
			fmt.Errorf("initialiser computes %s, global holds %s", result.Type, valueType))
	}
	delta.SetInitialValue(valueType, vmap[result])
	return delta, nil
}

// convertRecursionGroup translates one non-trivial IPG SCC into a phi node
// binding the group's members mutually recursively.
func convertRecursionGroup(scc []*ipgraph.Node, position map[*ipgraph.Node]int, m *rvsdg.Module, sc *scope) error {
	members := append([]*ipgraph.Node(nil), scc...)
	sort.Slice(members, func(i, j int) bool { return position[members[i]] < position[members[j]] })

	inGroup := map[*ipgraph.Node]bool{}
	for _, n := range members {
		inGroup[n] = true
	}

	used := map[*cfg.Variable]bool{}
	for _, n := range members {
		collectUsed(n, used)
	}
	for _, n := range members {
		delete(used, n.Value) // satisfied by recursion vars, not context vars
	}

	phi := rvsdg.NewPhi(m.Graph)
	inner := newScope()
	for _, g := range sc.referenced(used) {
		inner.bind(g, phi.AddPhiContextVar(g.Type, sc.values[g]))
	}

	outputs := make([]*rvsdg.Output, len(members))
	for i, n := range members {
		if (n.Kind == ipgraph.NodeFunction && n.Body == nil) ||
			(n.Kind == ipgraph.NodeData && n.Initialiser == nil) {
			return diag.Translation(n.Name, fmt.Errorf("declaration inside a recursion group"))
		}
		arg, out := phi.AddRecVar(n.Value.Type)
		inner.bind(n.Value, arg)
		outputs[i] = out
	}

	for _, n := range members {
		if err := convertNode(n, m, phi.Subregions[0], inner); err != nil {
			return err
		}
		phi.SetRecResult(n.Value.Type, inner.values[n.Value])
	}

	for i, n := range members {
		sc.bind(n.Value, outputs[i])
	}
	return nil
}

// collectUsed gathers every variable a node's code reads.
func collectUsed(n *ipgraph.Node, used map[*cfg.Variable]bool) {
	if n.Kind == ipgraph.NodeData {
		for _, t := range n.Initialiser {
			for _, in := range t.Inputs {
				used[in] = true
			}
		}
		return
	}
	if n.Body == nil {
		return
	}
	for _, node := range n.Body.Nodes {
		if node.Kind != cfg.NodeBlock {
			continue
		}
		for _, t := range node.Block.TACs {
			for _, in := range t.Inputs {
				used[in] = true
			}
		}
	}
	for _, v := range n.Body.Exit.Exit.Results {
		used[v] = true
	}
}

// aggregate wraps agg.Aggregate, converting its not-proper-structured panic
// into the fatal invariant error the pipeline driver expects.
func aggregate(c *cfg.Cfg) (tree *agg.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ae, ok := r.(*agg.AggregationError); ok {
				err = diag.Invariant("cfg-proper-structured", ae)
				return
			}
			panic(r)
		}
	}()
	return agg.Aggregate(c), nil
}

// valueOf resolves v in vmap, synthesising an undef constant in region for
// variables read before any definition.
func valueOf(region *rvsdg.Region, vmap map[*cfg.Variable]rvsdg.Origin, v *cfg.Variable) rvsdg.Origin {
	if o, ok := vmap[v]; ok {
		return o
	}
	o := rvsdg.NewUndef(region, v.Type)
	vmap[v] = o
	return o
}
