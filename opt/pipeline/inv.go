package pipeline

import "github.com/jlm-go/rvsdgc/rvsdg"

// invariance redirects users of structurally invariant values past their
// enclosing gamma or theta: a theta output whose loop result is the
// argument itself never changes, and a gamma output whose every
// alternative returns the same entry var just forwards its origin.
func invariance(m *rvsdg.Module) {
	eachRegion(m, func(region *rvsdg.Region) {
		rvsdg.TopDown(region, func(n *rvsdg.Node) {
			switch n.Kind {
			case rvsdg.NodeTheta:
				invariantTheta(region, n)
			case rvsdg.NodeGamma:
				invariantGamma(region, n)
			}
		})
	})
}

func invariantTheta(region *rvsdg.Region, theta *rvsdg.Node) {
	body := theta.Body()
	for i, in := range theta.Inputs {
		if body.Results[i+1].Origin == body.Arguments[i] {
			rvsdg.Divert(region, theta.Outputs[i], in.Origin)
		}
	}
}

func invariantGamma(region *rvsdg.Region, gamma *rvsdg.Node) {
	for i, out := range gamma.Outputs {
		entry := -1
		for s, sub := range gamma.Subregions {
			arg, ok := sub.Results[i].Origin.(*rvsdg.Argument)
			if !ok || arg.Region != sub {
				entry = -1
				break
			}
			if s == 0 {
				entry = arg.Index
			} else if arg.Index != entry {
				entry = -1
				break
			}
		}
		if entry >= 0 {
			rvsdg.Divert(region, out, gamma.Inputs[entry+1].Origin)
		}
	}
}
