// Package annotation computes demand sets over an aggregation tree: a
// two-pass backward dataflow that, for every tree node, records which
// variables must be live entering it (Top) given which variables must be
// live leaving it (Bottom). Grounded on
// original_source/src/libjlm/ir/annotation.cpp.
package annotation

import "github.com/jlm-go/rvsdgc/ir/agg"

// Demand holds the variable sets attached to every aggregation node.
// CasesTop/CasesBottom are populated on branch nodes only: CasesBottom is
// the demand shared by every alternative's exit, CasesTop the union of the
// alternatives' entry demands.
type Demand struct {
	Top    VariableSet
	Bottom VariableSet

	CasesTop    VariableSet
	CasesBottom VariableSet
}

// DemandMap is the result of Annotate: one Demand per visited tree node.
type DemandMap map[*agg.Node]*Demand

// Annotate runs the backward dataflow over root, seeding the bottom of the
// whole tree with liveAtExit (normally empty: nothing is demanded past the
// program's own exit node, which computes its own demand from its result
// variables). It returns the completed demand map.
func Annotate(root *agg.Node, liveAtExit VariableSet) DemandMap {
	memo := DemandMap{}
	if liveAtExit == nil {
		liveAtExit = NewVariableSet()
	}
	annotate(root, liveAtExit, memo)
	return memo
}

// annotate computes and memoises node's Top set given an incoming Bottom,
// and returns that Top. A node already memoised with an identical Bottom is
// not re-descended into: its cached Top is reused (annotation.cpp skips
// re-annotation by comparing the memoised bottom against the incoming
// demand, not by a separate visited flag).
func annotate(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	if d, ok := memo[node]; ok && d.Bottom.Equal(bottom) {
		return d.Top
	}

	switch node.Kind {
	case agg.KindEntry:
		return annotateEntry(node, bottom, memo)
	case agg.KindExit:
		return annotateExit(node, bottom, memo)
	case agg.KindBlock:
		return annotateBlock(node, bottom, memo)
	case agg.KindLinear:
		return annotateLinear(node, bottom, memo)
	case agg.KindBranch:
		return annotateBranch(node, bottom, memo)
	case agg.KindLoop:
		return annotateLoop(node, bottom, memo)
	default:
		return bottom
	}
}

// annotateEntry: the function's formal arguments are provided by the entry
// itself, so they are removed from the incoming demand.
func annotateEntry(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	top := bottom.Clone()
	for _, v := range node.Entry.Arguments {
		top.Erase(v)
	}
	memo[node] = &Demand{Top: top, Bottom: bottom}
	return top
}

// annotateExit: the exit node demands its declared result variables on top
// of whatever the context already demands.
func annotateExit(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	top := bottom.Clone()
	for _, v := range node.Exit.Results {
		top.Insert(v)
	}
	memo[node] = &Demand{Top: top, Bottom: bottom}
	return top
}

// annotateBlock walks the block's TACs backward: live-before = (live-after
// minus this TAC's results) union this TAC's inputs. Assignments are
// special-cased since the variable they write is modelled as their first
// input rather than a result.
func annotateBlock(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	live := bottom.Clone()
	tacs := node.Block.TACs
	for i := len(tacs) - 1; i >= 0; i-- {
		t := tacs[i]
		if t.IsAssignment() {
			live.Erase(t.Dest())
			live.Insert(t.Src())
			continue
		}
		for _, r := range t.Results {
			live.Erase(r)
		}
		for _, v := range t.Inputs {
			live.Insert(v)
		}
	}
	memo[node] = &Demand{Top: live, Bottom: bottom}
	return live
}

// annotateLinear(a, b): annotate b first using the given bottom, then
// annotate a using b's top as a's bottom.
func annotateLinear(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	a, b := node.Children[0], node.Children[1]
	bTop := annotate(b, bottom, memo)
	top := annotate(a, bTop, memo)
	memo[node] = &Demand{Top: top, Bottom: bottom}
	return top
}

// annotateBranch: every alternative is annotated against the same given
// bottom (the join point's demand is identical down every arm); the union
// of their tops becomes the demand entering the head.
func annotateBranch(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	casesTop := NewVariableSet()
	for _, alt := range node.Alternatives() {
		altTop := annotate(alt, bottom, memo)
		casesTop.Union(altTop)
	}
	top := annotate(node.Head(), casesTop, memo)
	memo[node] = &Demand{
		Top:         top,
		Bottom:      bottom,
		CasesTop:    casesTop,
		CasesBottom: bottom.Clone(),
	}
	return top
}

// annotateLoop: whatever the body demands on one iteration must already be
// live entering the loop, since any iteration may be the last. The body is
// annotated once, its entry demand is unioned into the loop's exit demand,
// and the body is re-annotated against the widened set; two iterations
// suffice. The loop's top is the widened set, which contains its bottom, so
// every variable live after the loop is carried by a loop variable.
func annotateLoop(node *agg.Node, bottom VariableSet, memo DemandMap) VariableSet {
	body := node.Body()

	demand := bottom.Clone()
	bodyTop := annotate(body, demand.Clone(), memo)
	if !demand.Equal(bodyTop) {
		demand.Union(bodyTop)
		annotate(body, demand.Clone(), memo)
	}
	memo[node] = &Demand{Top: demand, Bottom: bottom}
	return demand
}
