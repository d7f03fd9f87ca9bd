package restructure

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// findHeadBranch walks the linear chain from start looking for the first
// branching block, or end if the chain reaches it first (spec §4.1.2).
func findHeadBranch(start, end *cfg.Node) *cfg.Node {
	for {
		if start.IsBranch() || start == end {
			return start
		}
		start = start.OutEdge(0).Sink
	}
}

// findDominatorGraph returns every node reachable from edge's sink whose
// every in-edge is already accounted for by this traversal (spec §4.1.2
// "dominator graph"): edge.Sink itself, plus everything beneath it that
// cannot be reached except through edge and the edges this traversal has
// already admitted.
func findDominatorGraph(edge *cfg.Edge) map[*cfg.Node]bool {
	nodes := map[*cfg.Node]bool{}
	admittedEdges := map[*cfg.Edge]bool{edge: true}

	queue := []*cfg.Node{edge.Sink}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if nodes[n] {
			continue
		}

		accept := true
		for _, in := range n.InEdges() {
			if !admittedEdges[in] {
				accept = false
				break
			}
		}
		if !accept {
			continue
		}

		nodes[n] = true
		for _, out := range n.OutEdges() {
			admittedEdges[out] = true
			queue = append(queue, out.Sink)
		}
	}
	return nodes
}

// RestructureBranches turns every branch reachable between start and end
// into a single-entry single-exit branch, introducing a dispatcher block
// when the branch has more than one continuation point (spec §4.1.2).
func RestructureBranches(start, end *cfg.Node) {
	head := findHeadBranch(start, end)
	if head == end {
		return
	}

	var af []*cfg.Edge
	for _, e := range head.OutEdges() {
		af = append(af, e)
	}

	allBranchNodes := map[*cfg.Node]bool{}
	branchNodes := make([]map[*cfg.Node]bool, len(af))
	for i, e := range af {
		b := findDominatorGraph(e)
		branchNodes[i] = b
		for n := range b {
			allBranchNodes[n] = true
		}
	}

	cpoints := newOrderedNodeSet()
	branchOutEdges := make([]*orderedEdgeSet, len(af))
	for i := range af {
		branchOutEdges[i] = newOrderedEdgeSet()
		if len(branchNodes[i]) == 0 {
			branchOutEdges[i].add(af[i])
			cpoints.add(af[i].Sink)
			continue
		}
		for n := range branchNodes[i] {
			for _, out := range n.OutEdges() {
				if !allBranchNodes[out.Sink] {
					branchOutEdges[i].add(out)
					cpoints.add(out.Sink)
				}
			}
		}
	}

	owner := head.Owner()

	if cpoints.len() == 1 {
		cpoint := cpoints.order[0]
		for i, e := range af {
			if e.Sink == cpoint {
				e.Split()
				continue
			}
			if branchOutEdges[i].len() == 1 {
				RestructureBranches(e.Sink, branchOutEdges[i].order[0].Source)
				continue
			}
			relay := owner.NewBlock()
			relay.AddOutEdge(cpoint)
			for _, oe := range branchOutEdges[i].order {
				oe.Divert(relay)
			}
			RestructureBranches(e.Sink, relay)
		}
		RestructureBranches(cpoint, end)
		return
	}

	nbits := bitsFor(cpoints.len())
	p := cfg.NewVariable("#p#", types.Int(nbits))
	vt := owner.NewBlock()
	mapping := cfg.MatchMapping{}
	for n := 0; n < cpoints.len()-1; n++ {
		mapping[uint64(n)] = uint32(n)
	}
	ctl := vt.Block.AppendMatch(p, mapping, uint32(cpoints.len()))
	vt.Block.AppendBranch(ctl, uint32(cpoints.len()))
	for _, cp := range cpoints.order {
		vt.AddOutEdge(cp)
	}

	for i, e := range af {
		if branchOutEdges[i].len() == 1 {
			boe := branchOutEdges[i].order[0]
			assign := owner.NewBlock()
			assign.Block.AppendIntConstant(nbits, uint64(cpoints.index[boe.Sink]), p)
			assign.AddOutEdge(vt)
			boe.Divert(assign)
			if boe != e {
				RestructureBranches(e.Sink, assign)
			}
			continue
		}

		relay := owner.NewBlock()
		relay.AddOutEdge(vt)
		for _, oe := range branchOutEdges[i].order {
			assign := owner.NewBlock()
			assign.Block.AppendIntConstant(nbits, uint64(cpoints.index[oe.Sink]), p)
			assign.AddOutEdge(relay)
			oe.Divert(assign)
		}
		RestructureBranches(e.Sink, relay)
	}

	RestructureBranches(vt, end)
}
