package agg

import "github.com/jlm-go/rvsdgc/ir/cfg"

func isLoop(n *cfg.Node) bool {
	return n.NInEdges() == 2 && n.NOutEdges() == 2 && n.HasSelfLoopEdge()
}

func isBranch(split *cfg.Node) bool {
	if split.NOutEdges() < 2 {
		return false
	}
	first := split.OutEdge(0).Sink
	if first.NOutEdges() != 1 {
		return false
	}
	join := first.OutEdge(0).Sink
	for _, e := range split.OutEdges() {
		alt := e.Sink
		if alt.NInEdges() != 1 || alt.NOutEdges() != 1 || alt.OutEdge(0).Sink != join {
			return false
		}
	}
	return true
}

func isLinear(n *cfg.Node) bool {
	if n.NOutEdges() != 1 {
		return false
	}
	return n.OutEdge(0).Sink.NInEdges() == 1
}

// reduceLinear collapses A -> B (B's sole predecessor is A) into one fresh
// block inheriting A's in-edges and B's out-edges (spec §4.2 "Linear").
func reduceLinear(entry *cfg.Node, toVisit map[*cfg.Node]bool, nodes map[*cfg.Node]*Node) *cfg.Node {
	exit := entry.OutEdge(0).Sink

	owner := entry.Owner()
	reduction := owner.NewBlock()
	entry.DivertInEdges(reduction)
	for _, e := range exit.OutEdges() {
		reduction.AddOutEdge(e.Sink)
	}
	exit.RemoveOutEdges()

	nodes[reduction] = NewLinear(nodes[entry], nodes[exit])
	delete(nodes, entry)
	delete(nodes, exit)
	delete(toVisit, entry)
	delete(toVisit, exit)
	toVisit[reduction] = true

	return reduction
}

// reduceLoop drops a loop head's self-loop edge and collapses it into a
// fresh block with the loop's single remaining out-edge (spec §4.2 "Loop").
func reduceLoop(n *cfg.Node, toVisit map[*cfg.Node]bool, nodes map[*cfg.Node]*Node) *cfg.Node {
	owner := n.Owner()
	reduction := owner.NewBlock()

	for _, e := range n.OutEdges() {
		if e.IsSelfLoop() {
			n.RemoveOutEdge(e.Index)
			break
		}
	}
	reduction.AddOutEdge(n.OutEdge(0).Sink)
	n.RemoveOutEdges()
	n.DivertInEdges(reduction)

	nodes[reduction] = NewLoop(nodes[n])
	delete(nodes, n)
	delete(toVisit, n)
	toVisit[reduction] = true

	return reduction
}

// reduceBranch collapses a head and its k single-entry/single-exit
// alternatives, each converging on a shared join, into a fresh block with a
// single out-edge to that join (spec §4.2 "Branch").
func reduceBranch(split *cfg.Node, toVisit map[*cfg.Node]bool, nodes map[*cfg.Node]*Node) *cfg.Node {
	join := split.OutEdge(0).Sink.OutEdge(0).Sink

	owner := split.Owner()
	reduction := owner.NewBlock()
	split.DivertInEdges(reduction)
	for _, e := range split.OutEdges() {
		e.Sink.RemoveOutEdges()
	}
	reduction.AddOutEdge(join)

	branch := NewBranch(nodes[split])
	for _, e := range split.OutEdges() {
		alt := e.Sink
		branch.Children = append(branch.Children, nodes[alt])
		delete(nodes, alt)
		delete(toVisit, alt)
	}

	nodes[reduction] = branch
	delete(nodes, split)
	delete(toVisit, split)
	toVisit[reduction] = true

	return reduction
}

func reduce(n *cfg.Node, toVisit map[*cfg.Node]bool, nodes map[*cfg.Node]*Node) bool {
	switch {
	case isLoop(n):
		reduceLoop(n, toVisit, nodes)
		return true
	case isBranch(n):
		reduceBranch(n, toVisit, nodes)
		return true
	case isLinear(n):
		reduceLinear(n, toVisit, nodes)
		return true
	default:
		return false
	}
}

// Aggregate collapses a proper-structured CFG into a single aggregation
// tree by iterated reduction, tried in priority order {loop, branch,
// linear} until one node remains (spec §4.2). It panics with an
// *AggregationError if the CFG is not reducible to a single node — this can
// only happen if the CFG was not actually proper-structured, which
// restructure.Restructure guarantees for its own output.
func Aggregate(c *cfg.Cfg) *Node {
	toVisit := map[*cfg.Node]bool{}
	nodes := map[*cfg.Node]*Node{}

	for _, n := range c.Nodes {
		switch n.Kind {
		case cfg.NodeBlock:
			nodes[n] = newBlock(n.Block)
		case cfg.NodeEntry:
			nodes[n] = newEntry(n.Entry)
		case cfg.NodeExit:
			nodes[n] = newExit(n.Exit)
		}
		toVisit[n] = true
	}

	for len(toVisit) > 1 {
		progressed := false
		candidates := make([]*cfg.Node, 0, len(toVisit))
		for n := range toVisit {
			candidates = append(candidates, n)
		}
		for _, n := range candidates {
			if !toVisit[n] {
				continue // consumed by an earlier reduction this pass
			}
			if reduce(n, toVisit, nodes) {
				progressed = true
				break
			}
		}
		if !progressed {
			panic(&AggregationError{Remaining: len(toVisit)})
		}
	}

	for _, n := range nodes {
		return n
	}
	return nil
}

// AggregationError reports that aggregation could not reduce the CFG to a
// single tree node, which signals the input was not proper-structured.
type AggregationError struct {
	Remaining int
}

func (e *AggregationError) Error() string {
	return "cfg did not reduce to a single aggregation node: not proper-structured"
}
