package pipeline

import "github.com/jlm-go/rvsdgc/rvsdg"

// push hoists loop-invariant pure computations out of theta bodies: a node
// whose inputs are all invariant loop-var arguments (or which has no
// inputs) computes the same value on every iteration, so it is evaluated
// once before the loop and re-enters the body through a fresh invariant
// loop var.
func push(m *rvsdg.Module) {
	eachRegion(m, func(region *rvsdg.Region) {
		rvsdg.TopDown(region, func(n *rvsdg.Node) {
			if n.Kind == rvsdg.NodeTheta {
				pushTheta(region, n)
			}
		})
	})
}

func pushTheta(region *rvsdg.Region, theta *rvsdg.Node) {
	body := theta.Body()

	invariant := func(o rvsdg.Origin) (rvsdg.Origin, bool) {
		arg, ok := o.(*rvsdg.Argument)
		if !ok || arg.Region != body {
			return nil, false
		}
		if body.Results[arg.Index+1].Origin != arg {
			return nil, false
		}
		return theta.Inputs[arg.Index].Origin, true
	}

	for {
		changed := false
		rvsdg.TopDown(body, func(n *rvsdg.Node) {
			if n.Kind != rvsdg.NodeSimple || !pureOp(n.Op.Kind) {
				return
			}
			outer := make([]rvsdg.Origin, len(n.Inputs))
			for i, in := range n.Inputs {
				o, ok := invariant(in.Origin)
				if !ok {
					return
				}
				outer[i] = o
			}

			hoisted := rvsdg.NewSimple(region, n.Op)
			for i, in := range n.Inputs {
				hoisted.AddInput(in.Typ, outer[i])
			}
			for _, out := range n.Outputs {
				h := hoisted.AddOutput(out.Typ)
				arg, _ := theta.AddLoopVar(out.Typ, h)
				theta.SetLoopResult(out.Typ, arg)
				rvsdg.Divert(body, out, arg)
			}
			rvsdg.RemoveNode(n)
			changed = true
		})
		if !changed {
			return
		}
	}
}
