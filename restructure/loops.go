package restructure

import (
	"math"

	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// BackEdge records a repeat edge introduced (or recognised) while
// restructuring loops, consumed later by the RVSDG builder to recognise
// loops. Index is the source-local out-edge index the repeat edge held when
// it was recognised, i.e. the branch alternative of the tail block that
// re-enters the loop; the builder uses it to orient the loop predicate.
type BackEdge struct {
	Source *cfg.Node
	Sink   *cfg.Node
	Index  int
}

// findSCCs runs Tarjan's algorithm from entry, not descending past exit,
// returning every non-trivial SCC (size > 1, or a self-looping singleton)
// reachable from entry (spec §4.1.1, grounded on
// original_source/src/jlm2rvsdg/restructuring.cpp's strongconnect/find_sccs).
func findSCCs(entry, exit *cfg.Node) [][]*cfg.Node {
	type info struct{ idx, low int }
	index := 0
	infoOf := map[*cfg.Node]*info{}
	onStack := map[*cfg.Node]bool{}
	var stack []*cfg.Node
	var sccs [][]*cfg.Node

	var strongconnect func(n *cfg.Node)
	strongconnect = func(n *cfg.Node) {
		self := &info{idx: index, low: index}
		infoOf[n] = self
		index++
		stack = append(stack, n)
		onStack[n] = true

		if n != exit {
			for _, e := range n.OutEdges() {
				succ := e.Sink
				if infoOf[succ] == nil {
					strongconnect(succ)
					if infoOf[succ].low < self.low {
						self.low = infoOf[succ].low
					}
				} else if onStack[succ] {
					if infoOf[succ].idx < self.low {
						self.low = infoOf[succ].idx
					}
				}
			}
		}

		if self.low == self.idx {
			var scc []*cfg.Node
			for {
				top := len(stack) - 1
				w := stack[top]
				stack = stack[:top]
				onStack[w] = false
				scc = append(scc, w)
				if w == n {
					break
				}
			}
			if len(scc) != 1 || scc[0].HasSelfLoopEdge() {
				sccs = append(sccs, scc)
			}
		}
	}

	strongconnect(entry)
	return sccs
}

// findEntriesAndExits computes AE/VE/AX/VX/AR for one SCC (spec §4.1.1).
func findEntriesAndExits(scc []*cfg.Node) (ae *orderedEdgeSet, ve *orderedNodeSet, ax *orderedEdgeSet, vx *orderedNodeSet, ar *orderedEdgeSet) {
	in := nodeSet(scc)
	ae, ve, ax, vx, ar = newOrderedEdgeSet(), newOrderedNodeSet(), newOrderedEdgeSet(), newOrderedNodeSet(), newOrderedEdgeSet()

	for _, node := range scc {
		for _, e := range node.InEdges() {
			if !in[e.Source] {
				ae.add(e)
				ve.add(node)
			}
		}
		for _, e := range node.OutEdges() {
			if !in[e.Sink] {
				ax.add(e)
				vx.add(e.Sink)
			}
		}
	}

	for _, node := range scc {
		for _, e := range node.OutEdges() {
			if ve.has(e.Sink) {
				ar.add(e)
			}
		}
	}

	return
}

func bitsFor(n int) uint32 {
	if n < 1 {
		n = 1
	}
	bits := uint32(math.Ceil(math.Log2(float64(n))))
	if bits < 1 {
		bits = 1
	}
	return bits
}

// RestructureLoops turns every (reducible or irreducible) loop reachable
// between entry and exit into a tail-controlled dispatcher loop, recording
// every back-edge it recognises or introduces (spec §4.1.1).
func RestructureLoops(entry, exit *cfg.Node) []BackEdge {
	var backEdges []BackEdge
	restructureLoops(entry, exit, &backEdges)
	return backEdges
}

func restructureLoops(entry, exit *cfg.Node, backEdges *[]BackEdge) {
	sccs := findSCCs(entry, exit)

	for _, scc := range sccs {
		ae, ve, ax, vx, ar := findEntriesAndExits(scc)

		// Fast path: the loop already has the single-entry/single-exit/
		// single-repeat shape and the repeat and exit edges share a source.
		if ae.len() == 1 && ar.len() == 1 && ax.len() == 1 && ar.order[0].Source == ax.order[0].Source {
			r := ar.order[0]
			*backEdges = append(*backEdges, BackEdge{Source: r.Source, Sink: r.Sink, Index: r.Index})
			r.Source.RemoveOutEdge(r.Index)
			restructureLoops(ae.order[0].Sink, ax.order[0].Source, backEdges)
			continue
		}

		restructureLoopGeneral(entry.Owner(), ae, ve, ax, vx, ar, backEdges)
	}
}

func restructureLoopGeneral(owner *cfg.Cfg, ae *orderedEdgeSet, ve *orderedNodeSet, ax *orderedEdgeSet, vx *orderedNodeSet, ar *orderedEdgeSet, backEdges *[]BackEdge) {
	nbits := bitsFor(max(ve.len(), vx.len()))
	qType := types.Int(nbits)
	rType := types.Int(1)
	q := cfg.NewVariable("#q#", qType)
	r := cfg.NewVariable("#r#", rType)

	vt := owner.NewBlock()
	ctl := vt.Block.AppendMatch(r, cfg.MatchMapping{0: 0}, 2)
	vt.Block.AppendBranch(ctl, 2)

	// Loop entries: dispatch on q to the correct original entry point.
	var newVE *cfg.Node
	if ve.len() > 1 {
		newVE = owner.NewBlock()
		mapping := cfg.MatchMapping{}
		for n := 0; n < ve.len()-1; n++ {
			mapping[uint64(n)] = uint32(n)
		}
		ctl := newVE.Block.AppendMatch(q, mapping, uint32(ve.len()))
		newVE.Block.AppendBranch(ctl, uint32(ve.len()))
		for _, e := range ae.order {
			assign := owner.NewBlock()
			assign.Block.AppendIntConstant(nbits, uint64(ve.index[e.Sink]), q)
			assign.AddOutEdge(newVE)
			e.Divert(assign)
		}
		for _, v := range ve.order {
			newVE.AddOutEdge(v)
		}
	} else {
		newVE = ve.order[0]
	}

	// Loop exits: dispatch on q to the correct original exit point.
	var newVX *cfg.Node
	if vx.len() > 1 {
		newVX = owner.NewBlock()
		mapping := cfg.MatchMapping{}
		for n := 0; n < vx.len()-1; n++ {
			mapping[uint64(n)] = uint32(n)
		}
		ctl := newVX.Block.AppendMatch(q, mapping, uint32(vx.len()))
		newVX.Block.AppendBranch(ctl, uint32(vx.len()))
		for _, v := range vx.order {
			newVX.AddOutEdge(v)
		}
	} else {
		newVX = vx.order[0]
	}

	for _, e := range ax.order {
		assign := owner.NewBlock()
		assign.Block.AppendIntConstant(1, 0, r)
		if vx.len() > 1 {
			assign.Block.AppendIntConstant(nbits, uint64(vx.index[e.Sink]), q)
		}
		assign.AddOutEdge(vt)
		e.Divert(assign)
	}

	for _, e := range ar.order {
		assign := owner.NewBlock()
		assign.Block.AppendIntConstant(1, 1, r)
		if ve.len() > 1 {
			assign.Block.AppendIntConstant(nbits, uint64(ve.index[e.Sink]), q)
		}
		assign.AddOutEdge(vt)
		e.Divert(assign)
	}

	vt.AddOutEdge(newVX)
	*backEdges = append(*backEdges, BackEdge{Source: vt, Sink: newVE, Index: 1})

	restructureLoops(newVE, vt, backEdges)
}
