// Package steensgaard implements a unification-based, flow- and
// context-insensitive, field-insensitive points-to analysis over an RVSDG
// module (spec §4.7), grounded on
// original_source/libjlm/src/opt/alias-analyses/steensgaard.cpp. The
// union-find universe is an arena of integer-indexed locations; no raw
// references outlive the analysis.
package steensgaard

import (
	"fmt"

	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/diag"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// Analysis holds the union-find arena: each location is an index with a
// parent, a rank, and an optional points-to successor.
type Analysis struct {
	module *rvsdg.Module

	parent   []int
	rank     []int
	pointsTo []int // -1 when unset
	labels   []string

	origins map[rvsdg.Origin]int
	any     int

	warnings       diag.Warnings
	warnedVariadic bool
}

const none = -1

// New prepares an analysis of m.
func New(m *rvsdg.Module) *Analysis {
	a := &Analysis{module: m, origins: map[rvsdg.Origin]int{}}
	a.any = a.newLocation("ANY")
	return a
}

// Run performs the analysis and returns the resulting points-to graph.
func Run(m *rvsdg.Module) (*Graph, error) {
	a := New(m)
	a.Analyze()
	return a.Graph()
}

// Warnings returns the analysis limitations encountered (spec §7).
func (a *Analysis) Warnings() []diag.Warning { return a.warnings.Items() }

func (a *Analysis) newLocation(label string) int {
	id := len(a.parent)
	a.parent = append(a.parent, id)
	a.rank = append(a.rank, 0)
	a.pointsTo = append(a.pointsTo, none)
	a.labels = append(a.labels, label)
	return id
}

// find returns x's set representative, path-compressing as it walks.
func (a *Analysis) find(x int) int {
	for a.parent[x] != x {
		a.parent[x] = a.parent[a.parent[x]]
		x = a.parent[x]
	}
	return x
}

// merge unions the sets of x and y by rank and returns the new root.
func (a *Analysis) merge(x, y int) int {
	x, y = a.find(x), a.find(y)
	if x == y {
		return x
	}
	if a.rank[x] < a.rank[y] {
		x, y = y, x
	}
	a.parent[y] = x
	if a.rank[x] == a.rank[y] {
		a.rank[x]++
	}
	return x
}

// join is the symmetric merge of spec §4.7: union the two sets and
// recursively join their points-to successors so every set keeps at most
// one successor.
func (a *Analysis) join(x, y int) int {
	if x == none {
		return y
	}
	if y == none {
		return x
	}
	rx, ry := a.find(x), a.find(y)
	if rx == ry {
		return rx
	}
	px, py := a.pointsTo[rx], a.pointsTo[ry]
	root := a.merge(rx, ry)
	a.pointsTo[root] = a.join(px, py)
	return root
}

// loc returns the location for origin o, creating one on first sight. One
// location exists per registered origin; most rules register pointer-typed
// origins only, but the load and store rules also register the loaded or
// stored value whatever its type.
func (a *Analysis) loc(o rvsdg.Origin) int {
	if id, ok := a.origins[o]; ok {
		return id
	}
	id := a.newLocation(describeOrigin(a.module, o, len(a.parent)))
	a.origins[o] = id
	return id
}

// pointsToOf returns the successor of o's set, or none.
func (a *Analysis) pointsToOf(id int) int { return a.pointsTo[a.find(id)] }

// setOrJoinPointsTo implements the load/store asymmetry: an unset
// successor is claimed, an existing one is joined with target.
func (a *Analysis) setOrJoinPointsTo(id, target int) {
	root := a.find(id)
	if a.pointsTo[root] == none {
		a.pointsTo[root] = target
		return
	}
	a.join(a.pointsTo[root], target)
}

// Analyze processes the whole module top-down, descending into every
// subregion.
func (a *Analysis) Analyze() {
	for _, arg := range a.module.Graph.Arguments {
		if arg.Typ.IsPointer() {
			a.loc(arg)
		}
	}
	a.analyzeRegion(a.module.Graph)
}

func (a *Analysis) analyzeRegion(region *rvsdg.Region) {
	rvsdg.TopDown(region, func(n *rvsdg.Node) {
		switch n.Kind {
		case rvsdg.NodeSimple:
			a.analyzeSimple(n)
		case rvsdg.NodeLambda:
			a.analyzeLambda(n)
		case rvsdg.NodeDelta:
			a.analyzeDelta(n)
		case rvsdg.NodeGamma:
			a.analyzeGamma(n)
		case rvsdg.NodeTheta:
			a.analyzeTheta(n)
		case rvsdg.NodePhi:
			a.analyzePhi(n)
		}
	})
}

func (a *Analysis) analyzeSimple(n *rvsdg.Node) {
	switch n.Op.Kind {
	case cfg.OpAlloca, cfg.OpMalloc:
		a.loc(n.Outputs[0])

	case cfg.OpLoad:
		// The loaded value gets a location even when it is not a pointer,
		// so a class's pointees are visible in the dump (spec E1).
		addr := a.loc(n.Inputs[0].Origin)
		value := a.loc(n.Outputs[0])
		a.setOrJoinPointsTo(addr, value)

	case cfg.OpStore:
		addr := a.loc(n.Inputs[0].Origin)
		value := a.loc(n.Inputs[1].Origin)
		a.setOrJoinPointsTo(addr, value)

	case cfg.OpGetElementPtr:
		a.join(a.loc(n.Inputs[0].Origin), a.loc(n.Outputs[0]))

	case cfg.OpBitcast:
		if n.Inputs[0].Origin.Type().IsPointer() && n.Outputs[0].Typ.IsPointer() {
			a.join(a.loc(n.Inputs[0].Origin), a.loc(n.Outputs[0]))
		}

	case cfg.OpPtrNullConst:
		a.loc(n.Outputs[0])

	case cfg.OpUndefConst:
		if len(n.Outputs) == 1 && n.Outputs[0].Typ.IsPointer() {
			a.loc(n.Outputs[0])
		}

	case cfg.OpBitsToPtr:
		// Unsound escape: the value may carry any address (spec §9).
		a.warnings.Add("steensgaard", "bits-to-pointer conversion: result may point anywhere")
		a.join(a.loc(n.Outputs[0]), a.any)

	case cfg.OpCall:
		a.analyzeCall(n)

	case cfg.OpSelect, cfg.OpPhi:
		// The result is one of the operands; unify with all of them.
		if len(n.Outputs) == 1 && n.Outputs[0].Typ.IsPointer() {
			result := a.loc(n.Outputs[0])
			for _, in := range n.Inputs {
				if in.Origin.Type().IsPointer() {
					a.join(result, a.loc(in.Origin))
				}
			}
		}

	default:
		for _, out := range n.Outputs {
			if out.Typ.IsPointer() {
				a.warnings.Add("steensgaard",
					"unmodelled pointer-producing operation %s", n.Op.Kind)
				a.join(a.loc(out), a.any)
			}
		}
	}
}

func (a *Analysis) analyzeCall(n *rvsdg.Node) {
	if lambda := rvsdg.TraceCallee(n.Inputs[0].Origin); lambda != nil {
		a.analyzeDirectCall(n, lambda)
		return
	}
	a.analyzeIndirectCall(n)
}

func (a *Analysis) analyzeDirectCall(call, lambda *rvsdg.Node) {
	params := lambda.Parameters()
	if len(call.Inputs)-1 > len(params) && !a.warnedVariadic {
		// Variadic excess arguments are not tracked (spec §9).
		a.warnings.Add("steensgaard", "variadic call arguments to %s are not tracked", lambda.Name)
		a.warnedVariadic = true
	}
	for i := 1; i < len(call.Inputs) && i-1 < len(params); i++ {
		arg := call.Inputs[i].Origin
		if !arg.Type().IsPointer() {
			continue
		}
		a.join(a.loc(arg), a.loc(params[i-1]))
	}

	results := lambda.Subregions[0].Results
	for i, out := range call.Outputs {
		if !out.Typ.IsPointer() || i >= len(results) {
			continue
		}
		a.join(a.loc(out), a.loc(results[i].Origin))
	}
}

func (a *Analysis) analyzeIndirectCall(call *rvsdg.Node) {
	for _, in := range call.Inputs[1:] {
		if !in.Origin.Type().IsPointer() {
			continue
		}
		a.setOrJoinPointsTo(a.loc(in.Origin), a.any)
	}
	for _, out := range call.Outputs {
		if !out.Typ.IsPointer() {
			continue
		}
		a.setOrJoinPointsTo(a.loc(out), a.any)
	}
}

func (a *Analysis) analyzeLambda(n *rvsdg.Node) {
	body := n.Subregions[0]
	for i := 0; i < n.NumContextVars; i++ {
		if !n.Inputs[i].Typ.IsPointer() {
			continue
		}
		a.join(a.loc(n.Inputs[i].Origin), a.loc(body.Arguments[i]))
	}
	for _, p := range n.Parameters() {
		if p.Typ.IsPointer() {
			a.loc(p)
		}
	}
	a.analyzeRegion(body)
	a.loc(n.Outputs[0])
}

func (a *Analysis) analyzeDelta(n *rvsdg.Node) {
	body := n.Subregions[0]
	for i := 0; i < n.NumContextVars; i++ {
		if !n.Inputs[i].Typ.IsPointer() {
			continue
		}
		a.join(a.loc(n.Inputs[i].Origin), a.loc(body.Arguments[i]))
	}
	a.analyzeRegion(body)

	deltaLoc := a.loc(n.Outputs[0])
	if body.Results[0].Origin.Type().IsPointer() {
		valueLoc := a.loc(body.Results[0].Origin)
		a.setOrJoinPointsTo(deltaLoc, valueLoc)
	}
}

func (a *Analysis) analyzeGamma(n *rvsdg.Node) {
	for i := 1; i < len(n.Inputs); i++ {
		if !n.Inputs[i].Typ.IsPointer() {
			continue
		}
		origin := a.loc(n.Inputs[i].Origin)
		for _, sub := range n.Subregions {
			a.join(a.loc(sub.Arguments[i-1]), origin)
		}
	}
	for _, sub := range n.Subregions {
		a.analyzeRegion(sub)
	}
	for i, out := range n.Outputs {
		if !out.Typ.IsPointer() {
			continue
		}
		outLoc := a.loc(out)
		for _, sub := range n.Subregions {
			a.join(outLoc, a.loc(sub.Results[i].Origin))
		}
	}
}

func (a *Analysis) analyzeTheta(n *rvsdg.Node) {
	body := n.Subregions[0]
	for i, in := range n.Inputs {
		if !in.Typ.IsPointer() {
			continue
		}
		a.join(a.loc(body.Arguments[i]), a.loc(in.Origin))
	}
	a.analyzeRegion(body)
	for i, in := range n.Inputs {
		if !in.Typ.IsPointer() {
			continue
		}
		origin := a.loc(body.Results[i+1].Origin)
		a.join(origin, a.loc(body.Arguments[i]))
		a.join(origin, a.loc(n.Outputs[i]))
	}
}

// analyzePhi handles a mutually recursive binding group conservatively: the
// group's bindings may reference each other in ways the unification rules
// do not model, so every pointer-typed recursion value escapes to anyloc
// (spec §7 "Analysis limitations").
func (a *Analysis) analyzePhi(n *rvsdg.Node) {
	a.warnings.Add("steensgaard", "mutually recursive binding group analysed conservatively")
	body := n.Subregions[0]
	for i := 0; i < n.NumContextVars; i++ {
		if !n.Inputs[i].Typ.IsPointer() {
			continue
		}
		a.join(a.loc(n.Inputs[i].Origin), a.loc(body.Arguments[i]))
	}
	for _, arg := range n.RecArguments() {
		if arg.Typ.IsPointer() {
			a.join(a.loc(arg), a.any)
		}
	}
	a.analyzeRegion(body)
	for _, out := range n.Outputs {
		if out.Typ.IsPointer() {
			a.join(a.loc(out), a.any)
		}
	}
}

// describeOrigin builds a human-readable, run-stable label for a location.
// The trailing ordinal keeps labels of structurally identical origins
// distinct.
func describeOrigin(m *rvsdg.Module, o rvsdg.Origin, ordinal int) string {
	switch v := o.(type) {
	case *rvsdg.Output:
		n := v.Node
		if n.Kind == rvsdg.NodeSimple {
			return fmt.Sprintf("%s:o%d#%d", n.Op.Kind, v.Index, ordinal)
		}
		if n.Name != "" {
			return fmt.Sprintf("%s[%s]:o%d#%d", n.Kind, n.Name, v.Index, ordinal)
		}
		return fmt.Sprintf("%s:o%d#%d", n.Kind, v.Index, ordinal)
	case *rvsdg.Argument:
		if v.Region.Owner == nil {
			if name := m.ImportName(v); name != "" {
				return fmt.Sprintf("import[%s]#%d", name, ordinal)
			}
			return fmt.Sprintf("import:a%d#%d", v.Index, ordinal)
		}
		owner := v.Region.Owner
		if owner.Name != "" {
			return fmt.Sprintf("%s[%s]:a%d#%d", owner.Kind, owner.Name, v.Index, ordinal)
		}
		return fmt.Sprintf("%s:a%d#%d", owner.Kind, v.Index, ordinal)
	default:
		return fmt.Sprintf("loc#%d", ordinal)
	}
}
