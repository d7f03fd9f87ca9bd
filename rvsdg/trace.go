package rvsdg

// TraceCallee resolves a function operand through region boundaries —
// context variables, loop and entry vars, recursion results — to the
// lambda node defining it. Returns nil when the value cannot be pinned to
// a single lambda (an indirect call).
func TraceCallee(o Origin) *Node {
	seen := map[Origin]bool{}
	for {
		if seen[o] {
			return nil
		}
		seen[o] = true

		switch v := o.(type) {
		case *Output:
			n := v.Node
			switch n.Kind {
			case NodeLambda:
				if v == n.Outputs[0] {
					return n
				}
				return nil
			case NodePhi:
				o = n.Subregions[0].Results[v.Index].Origin
			default:
				return nil
			}

		case *Argument:
			owner := v.Region.Owner
			if owner == nil {
				return nil // import
			}
			switch owner.Kind {
			case NodeLambda, NodeDelta:
				if v.Index >= owner.NumContextVars {
					return nil
				}
				o = owner.Inputs[v.Index].Origin
			case NodePhi:
				if v.Index < owner.NumContextVars {
					o = owner.Inputs[v.Index].Origin
				} else {
					o = owner.Subregions[0].Results[v.Index-owner.NumContextVars].Origin
				}
			case NodeTheta:
				o = owner.Inputs[v.Index].Origin
			case NodeGamma:
				o = owner.Inputs[v.Index+1].Origin
			default:
				return nil
			}

		default:
			return nil
		}
	}
}
