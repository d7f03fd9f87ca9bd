package pipeline

import "github.com/jlm-go/rvsdgc/rvsdg"

// pull moves pure computations whose only consumers are one gamma's entry
// vars into that gamma's subregions, so each alternative only evaluates
// them when it is actually selected.
func pull(m *rvsdg.Module) {
	eachRegion(m, func(region *rvsdg.Region) {
		rvsdg.TopDown(region, func(n *rvsdg.Node) {
			if n.Kind == rvsdg.NodeGamma {
				pullGamma(region, n)
			}
		})
	})
}

func pullGamma(region *rvsdg.Region, gamma *rvsdg.Node) {
	for {
		users := rvsdg.Users(region)
		var candidate *rvsdg.Node
		for i := 1; i < len(gamma.Inputs); i++ {
			n, ok := producerIn(region, gamma.Inputs[i].Origin)
			if !ok || n.Kind != rvsdg.NodeSimple || !pureOp(n.Op.Kind) {
				continue
			}
			if onlyFeedsEntryVars(users, n, gamma) {
				candidate = n
				break
			}
		}
		if candidate == nil {
			return
		}

		// Route the candidate's operands in through fresh entry vars, then
		// materialise a copy per alternative.
		operandArgs := make([][]*rvsdg.Argument, len(candidate.Inputs))
		for i, in := range candidate.Inputs {
			operandArgs[i] = gamma.AddEntryVar(in.Typ, in.Origin)
		}
		copies := make([]*rvsdg.Node, len(gamma.Subregions))
		for s, sub := range gamma.Subregions {
			c := rvsdg.NewSimple(sub, candidate.Op)
			for i, in := range candidate.Inputs {
				c.AddInput(in.Typ, operandArgs[i][s])
			}
			for _, out := range candidate.Outputs {
				c.AddOutput(out.Typ)
			}
			copies[s] = c
		}

		// Divert each affected entry var's per-alternative argument to the
		// local copy and retire the entry var itself.
		for i := len(gamma.Inputs) - 1; i >= 1; i-- {
			out, ok := gamma.Inputs[i].Origin.(*rvsdg.Output)
			if !ok || out.Node != candidate {
				continue
			}
			for s, sub := range gamma.Subregions {
				rvsdg.Divert(sub, sub.Arguments[i-1], copies[s].Outputs[out.Index])
			}
			removeEntryVar(gamma, i)
		}
		rvsdg.RemoveNode(candidate)
	}
}

// removeEntryVar drops gamma input i and the corresponding argument of
// every alternative, renumbering the survivors.
func removeEntryVar(gamma *rvsdg.Node, i int) {
	gamma.Inputs = append(gamma.Inputs[:i], gamma.Inputs[i+1:]...)
	for j := i; j < len(gamma.Inputs); j++ {
		gamma.Inputs[j].Index = j
	}
	for _, sub := range gamma.Subregions {
		sub.Arguments = append(sub.Arguments[:i-1], sub.Arguments[i:]...)
		for j := i - 1; j < len(sub.Arguments); j++ {
			sub.Arguments[j].Index = j
		}
	}
}

func producerIn(region *rvsdg.Region, o rvsdg.Origin) (*rvsdg.Node, bool) {
	out, ok := o.(*rvsdg.Output)
	if !ok || out.Node.Region != region {
		return nil, false
	}
	return out.Node, true
}

// onlyFeedsEntryVars reports whether every consumer of n's outputs is an
// entry var input of gamma.
func onlyFeedsEntryVars(users map[rvsdg.Origin][]*rvsdg.Input, n, gamma *rvsdg.Node) bool {
	for _, out := range n.Outputs {
		for _, in := range users[out] {
			if in.Node != gamma || in.Index == 0 {
				return false
			}
		}
	}
	// A result of the enclosing region could also consume it; Users covers
	// node inputs only, so check region results explicitly.
	for _, res := range n.Region.Results {
		for _, out := range n.Outputs {
			if res.Origin == out {
				return false
			}
		}
	}
	return true
}
