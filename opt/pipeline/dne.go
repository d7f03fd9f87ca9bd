package pipeline

import "github.com/jlm-go/rvsdgc/rvsdg"

// dne removes nodes none of whose outputs are consumed, innermost regions
// first, iterating until a region is stable so whole dead chains collapse.
// Top-level nodes are module exports and are never removed.
func dne(m *rvsdg.Module) {
	var clean func(region *rvsdg.Region, root bool)
	clean = func(region *rvsdg.Region, root bool) {
		for {
			changed := false
			users := rvsdg.Users(region)
			resultOrigins := map[rvsdg.Origin]bool{}
			for _, res := range region.Results {
				resultOrigins[res.Origin] = true
			}
			used := func(n *rvsdg.Node) bool {
				for _, out := range n.Outputs {
					if len(users[out]) > 0 || resultOrigins[out] {
						return true
					}
				}
				return false
			}
			rvsdg.TopDown(region, func(n *rvsdg.Node) {
				for _, sub := range n.Subregions {
					clean(sub, false)
				}
				if root || used(n) {
					return
				}
				rvsdg.RemoveNode(n)
				changed = true
			})
			if !changed {
				return
			}
		}
	}
	clean(m.Graph, true)
}
