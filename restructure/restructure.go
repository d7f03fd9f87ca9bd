// Package restructure implements spec §4.1: turning an arbitrary
// closed, valid CFG into a proper-structured CFG by first restructuring
// loops (Tarjan SCC decomposition + dispatcher synthesis) and then
// restructuring branches (head-branch/dominator-graph decomposition),
// grounded on original_source/src/jlm2rvsdg/restructuring.cpp.
package restructure

import "github.com/jlm-go/rvsdgc/ir/cfg"

// Restructure rewrites c in place into a proper-structured CFG and returns
// the set of back-edges the loop pass recognised or introduced. Loop
// back-edges are held out of the graph while branches are restructured (so
// that branch restructuring never has to reason about cycles) and spliced
// back in once both passes are complete (spec §4.1 "Back-edges introduced
// during loop restructuring are returned as an auxiliary set").
func Restructure(c *cfg.Cfg) ([]BackEdge, error) {
	if err := c.CheckValid(); err != nil {
		return nil, err
	}

	backEdges := RestructureLoops(c.Entry, c.Exit)
	RestructureBranches(c.Entry, c.Exit)

	for i := range backEdges {
		backEdges[i].Source.AddOutEdge(backEdges[i].Sink)
	}

	return backEdges, nil
}
