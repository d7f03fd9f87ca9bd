package pipeline

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// cne merges structurally identical pure simple nodes within each region:
// same operation, same input origins. Later duplicates are diverted onto
// the first occurrence and removed.
func cne(m *rvsdg.Module) {
	eachRegion(m, cneRegion)
}

func cneRegion(region *rvsdg.Region) {
	for {
		changed := false
		var kept []*rvsdg.Node
		rvsdg.TopDown(region, func(n *rvsdg.Node) {
			if n.Kind != rvsdg.NodeSimple || !pureOp(n.Op.Kind) {
				return
			}
			for _, k := range kept {
				if !congruent(k, n) {
					continue
				}
				for i, out := range n.Outputs {
					rvsdg.Divert(region, out, k.Outputs[i])
				}
				rvsdg.RemoveNode(n)
				changed = true
				return
			}
			kept = append(kept, n)
		})
		if !changed {
			return
		}
	}
}

// congruent reports whether two simple nodes compute the same value: equal
// operations over identical origins.
func congruent(a, b *rvsdg.Node) bool {
	if !sameOperation(a.Op, b.Op) || len(a.Inputs) != len(b.Inputs) || len(a.Outputs) != len(b.Outputs) {
		return false
	}
	for i := range a.Inputs {
		if a.Inputs[i].Origin != b.Inputs[i].Origin {
			return false
		}
	}
	for i := range a.Outputs {
		if !a.Outputs[i].Typ.Equal(b.Outputs[i].Typ) {
			return false
		}
	}
	return true
}

func sameOperation(a, b cfg.Operation) bool {
	if a.Kind != b.Kind || a.Bits != b.Bits || a.IntValue != b.IntValue ||
		a.FloatValue != b.FloatValue || a.Alternatives != b.Alternatives ||
		a.Default != b.Default || a.Successors != b.Successors || a.Variadic != b.Variadic {
		return false
	}
	if !a.ElemType.Equal(b.ElemType) {
		return false
	}
	if len(a.Mapping) != len(b.Mapping) {
		return false
	}
	for value, alt := range a.Mapping {
		if other, ok := b.Mapping[value]; !ok || other != alt {
			return false
		}
	}
	return true
}
