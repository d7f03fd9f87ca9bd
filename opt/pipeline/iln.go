package pipeline

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// inline replaces direct calls with a copy of the callee's body. A call is
// inlinable when the callee lambda captures no context variables (its body
// references nothing that would have to be re-routed into the call site)
// and is not part of a recursion group.
func inline(m *rvsdg.Module) {
	var walk func(region *rvsdg.Region, enclosing *rvsdg.Node)
	walk = func(region *rvsdg.Region, enclosing *rvsdg.Node) {
		rvsdg.TopDown(region, func(n *rvsdg.Node) {
			for _, sub := range n.Subregions {
				next := enclosing
				if n.Kind == rvsdg.NodeLambda {
					next = n
				}
				walk(sub, next)
			}
			if n.Kind == rvsdg.NodeSimple && n.Op.Kind == cfg.OpCall {
				inlineCall(region, n, enclosing)
			}
		})
	}
	walk(m.Graph, nil)
}

func inlineCall(region *rvsdg.Region, call, enclosing *rvsdg.Node) {
	callee := rvsdg.TraceCallee(call.Inputs[0].Origin)
	if callee == nil || callee == enclosing || callee.NumContextVars > 0 {
		return
	}
	if callee.Region.Owner != nil && callee.Region.Owner.Kind == rvsdg.NodePhi {
		return
	}
	body := callee.Subregions[0]
	params := callee.Parameters()
	if len(call.Inputs)-1 != len(params) {
		return // variadic call sites keep the call node
	}

	sub := rvsdg.Substitution{}
	for i, p := range params {
		sub[p] = call.Inputs[i+1].Origin
	}
	rvsdg.CopyRegionContents(body, region, sub)

	for i, out := range call.Outputs {
		if i >= len(body.Results) {
			break
		}
		rvsdg.Divert(region, out, sub.Resolve(body.Results[i].Origin))
	}
	rvsdg.RemoveNode(call)
}
