package pipeline

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// invert performs theta-gamma inversion: a tail-controlled loop whose body
// is a condition plus a single gamma on that condition is rewritten into a
// gamma guarding a loop, so the condition is evaluated before the first
// iteration. Thetas that do not have that exact shape are left alone.
func invert(m *rvsdg.Module) {
	eachRegion(m, func(region *rvsdg.Region) {
		rvsdg.TopDown(region, func(n *rvsdg.Node) {
			if n.Kind == rvsdg.NodeTheta {
				invertTheta(region, n)
			}
		})
	})
}

// invertible captures the analysed loop shape: the pure condition closure
// ending in the predicate match, and the single gamma doing the work.
type invertible struct {
	condition []*rvsdg.Node // topologically ordered, ends with the match
	match     *rvsdg.Node
	gamma     *rvsdg.Node
}

func analyzeInvertible(theta *rvsdg.Node) *invertible {
	body := theta.Body()

	match, ok := bodyProducer(body, theta.Predicate().Origin)
	if !ok || match.Kind != rvsdg.NodeSimple || match.Op.Kind != cfg.OpMatch {
		return nil
	}

	// Gather the pure closure computing the predicate.
	inCondition := map[*rvsdg.Node]bool{}
	var condition []*rvsdg.Node
	var gather func(n *rvsdg.Node) bool
	gather = func(n *rvsdg.Node) bool {
		if inCondition[n] {
			return true
		}
		if n.Kind != rvsdg.NodeSimple || !pureOp(n.Op.Kind) {
			return false
		}
		for _, in := range n.Inputs {
			p, isNode := bodyProducer(body, in.Origin)
			if !isNode {
				if arg, isArg := in.Origin.(*rvsdg.Argument); !isArg || arg.Region != body {
					return false
				}
				continue
			}
			if !gather(p) {
				return false
			}
		}
		inCondition[n] = true
		condition = append(condition, n)
		return true
	}
	if !gather(match) {
		return nil
	}

	// The rest of the body must be exactly one two-way gamma on the match.
	var gamma *rvsdg.Node
	for _, n := range body.Nodes {
		if inCondition[n] {
			continue
		}
		if n.Kind != rvsdg.NodeGamma || gamma != nil {
			return nil
		}
		gamma = n
	}
	if gamma == nil || len(gamma.Subregions) != 2 || gamma.Inputs[0].Origin != match.Outputs[0] {
		return nil
	}

	// Gamma entries must come straight from loop-var arguments, and the
	// not-taken alternative must pass every loop var through unchanged.
	entryArg := make([]*rvsdg.Argument, len(gamma.Inputs))
	for i := 1; i < len(gamma.Inputs); i++ {
		arg, isArg := gamma.Inputs[i].Origin.(*rvsdg.Argument)
		if !isArg || arg.Region != body {
			return nil
		}
		entryArg[i] = arg
	}
	for i, res := range body.Results {
		if i == 0 {
			continue
		}
		switch o := res.Origin.(type) {
		case *rvsdg.Argument:
			if o.Region != body {
				return nil
			}
		case *rvsdg.Output:
			if o.Node != gamma {
				return nil
			}
			skip, isArg := gamma.Subregions[0].Results[o.Index].Origin.(*rvsdg.Argument)
			if !isArg || skip.Region != gamma.Subregions[0] ||
				entryArg[skip.Index+1] != body.Arguments[i-1] {
				return nil
			}
		default:
			return nil
		}
	}

	return &invertible{condition: condition, match: match, gamma: gamma}
}

func bodyProducer(body *rvsdg.Region, o rvsdg.Origin) (*rvsdg.Node, bool) {
	out, ok := o.(*rvsdg.Output)
	if !ok || out.Node.Region != body {
		return nil, false
	}
	return out.Node, true
}

// copyCondition re-emits the condition closure into dst, resolving origins
// through sub, and returns the copied match output.
func copyCondition(iv *invertible, dst *rvsdg.Region, sub rvsdg.Substitution) *rvsdg.Output {
	var predicate *rvsdg.Output
	for _, n := range iv.condition {
		c := rvsdg.NewSimple(dst, n.Op)
		for _, in := range n.Inputs {
			c.AddInput(in.Typ, sub.Resolve(in.Origin))
		}
		for _, out := range n.Outputs {
			sub[out] = c.AddOutput(out.Typ)
		}
		if n == iv.match {
			predicate = c.Outputs[0]
		}
	}
	return predicate
}

func invertTheta(region *rvsdg.Region, theta *rvsdg.Node) {
	iv := analyzeInvertible(theta)
	if iv == nil {
		return
	}
	body := theta.Body()

	// Evaluate the condition against the loop's initial values.
	outerSub := rvsdg.Substitution{}
	for i, arg := range body.Arguments {
		outerSub[arg] = theta.Inputs[i].Origin
	}
	entryPred := copyCondition(iv, region, outerSub)

	ngamma := rvsdg.NewGamma(region, entryPred, 2)
	evs := make([][]*rvsdg.Argument, len(theta.Inputs))
	for i, in := range theta.Inputs {
		evs[i] = ngamma.AddEntryVar(in.Typ, in.Origin)
	}

	ntheta := rvsdg.NewTheta(ngamma.Subregions[1])
	nargs := make([]*rvsdg.Argument, len(theta.Inputs))
	for i, in := range theta.Inputs {
		arg, _ := ntheta.AddLoopVar(in.Typ, evs[i][1])
		nargs[i] = arg
	}

	// The taken alternative's work runs first.
	takenSub := rvsdg.Substitution{}
	for j, arg := range iv.gamma.Subregions[1].Arguments {
		src := iv.gamma.Inputs[j+1].Origin.(*rvsdg.Argument)
		takenSub[arg] = nargs[src.Index]
	}
	rvsdg.CopyRegionContents(iv.gamma.Subregions[1], ntheta.Body(), takenSub)

	// Post-iteration value of every loop var.
	post := make([]rvsdg.Origin, len(theta.Inputs))
	for i := range theta.Inputs {
		switch o := body.Results[i+1].Origin.(type) {
		case *rvsdg.Argument:
			post[i] = nargs[o.Index]
		case *rvsdg.Output:
			post[i] = takenSub.Resolve(iv.gamma.Subregions[1].Results[o.Index].Origin)
		}
	}

	// Then the condition is re-evaluated on the new values.
	condSub := rvsdg.Substitution{}
	for i, arg := range body.Arguments {
		condSub[arg] = post[i]
	}
	nextPred := copyCondition(iv, ntheta.Body(), condSub)

	ntheta.SetPredicate(nextPred)
	for i, in := range theta.Inputs {
		ntheta.SetLoopResult(in.Typ, post[i])
	}

	for i, out := range theta.Outputs {
		xv := ngamma.AddExitVar(out.Typ, []rvsdg.Origin{evs[i][0], ntheta.Outputs[i]})
		rvsdg.Divert(region, out, xv)
	}
	rvsdg.RemoveNode(theta)
}
