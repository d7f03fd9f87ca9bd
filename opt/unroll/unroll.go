// Package unroll implements loop unrolling (spec §4.6): a counted theta is
// split into a gamma holding an F-stepped copy of the loop and a gamma
// holding a remainder loop, grounded on original_source/src/opt/unroll.cpp.
package unroll

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// Run unrolls every applicable theta in the module by factor. Factors below
// two disable the pass. Binary-operation normal forms are frozen for the
// duration so the arithmetic the rewrite inserts is not pre-folded.
func Run(m *rvsdg.Module, factor int) {
	if factor < 2 {
		return
	}

	frozen := freezeBinaryNormalForms(m)
	defer thawBinaryNormalForms(m, frozen)

	unrollRegion(m.Graph, factor)
}

func freezeBinaryNormalForms(m *rvsdg.Module) map[cfg.OpKind]bool {
	state := map[cfg.OpKind]bool{}
	for k := cfg.OpAdd; k <= cfg.OpXor; k++ {
		nf := m.NormalForm(k)
		state[k] = nf.Mutable
		nf.Mutable = false
	}
	return state
}

func thawBinaryNormalForms(m *rvsdg.Module, state map[cfg.OpKind]bool) {
	for k, mutable := range state {
		m.NormalForm(k).Mutable = mutable
	}
}

// unrollRegion applies unrolling bottom-up over a topdown traversal:
// subregions first, so an inner loop never sees an outer rewrite mid-way.
func unrollRegion(region *rvsdg.Region, factor int) {
	rvsdg.TopDown(region, func(n *rvsdg.Node) {
		for _, sub := range n.Subregions {
			unrollRegion(sub, factor)
		}
		if n.Kind == rvsdg.NodeTheta {
			unrollTheta(n, factor)
		}
	})
}

// unrollInfo captures the shape check of spec §4.6: a comparison between a
// loop-invariant bound and an induction variable stepped by an add.
type unrollInfo struct {
	eqop  bool // non-strict comparison: iteration count is r+1
	nbits uint32
	min   *rvsdg.Argument // theta argument the induction add steps
	max   *rvsdg.Argument // theta argument holding the invariant bound
}

func containsTheta(region *rvsdg.Region) bool {
	for _, n := range region.Nodes {
		if n.Kind == rvsdg.NodeTheta {
			return true
		}
		for _, sub := range n.Subregions {
			if containsTheta(sub) {
				return true
			}
		}
	}
	return false
}

func isGreaterOp(k cfg.OpKind) bool {
	return k == cfg.OpICmpUGe || k == cfg.OpICmpUGt || k == cfg.OpICmpSGe || k == cfg.OpICmpSGt
}

func isEqCmp(k cfg.OpKind) bool {
	return k == cfg.OpICmpUGe || k == cfg.OpICmpSGe || k == cfg.OpICmpULe || k == cfg.OpICmpSLe
}

func isCompare(k cfg.OpKind) bool {
	return isGreaterOp(k) || k == cfg.OpICmpULt || k == cfg.OpICmpULe || k == cfg.OpICmpSLt || k == cfg.OpICmpSLe
}

// isInvariant reports whether a theta argument's value is carried through
// every iteration unchanged: its loop result originates from the argument
// itself.
func isInvariant(theta *rvsdg.Node, arg *rvsdg.Argument) bool {
	return theta.Body().Results[arg.Index+1].Origin == arg
}

func simpleProducer(o rvsdg.Origin) *rvsdg.Node {
	if out, ok := o.(*rvsdg.Output); ok && out.Node.Kind == rvsdg.NodeSimple {
		return out.Node
	}
	return nil
}

// isApplicable checks the theta against the unrolling preconditions and
// extracts the induction shape, or returns nil when unrolling must be a
// no-op.
func isApplicable(theta *rvsdg.Node) *unrollInfo {
	if containsTheta(theta.Body()) {
		return nil
	}

	match := simpleProducer(theta.Predicate().Origin)
	if match == nil || match.Op.Kind != cfg.OpMatch {
		return nil
	}
	cmp := simpleProducer(match.Inputs[0].Origin)
	if cmp == nil || !isCompare(cmp.Op.Kind) || len(cmp.Inputs) != 2 {
		return nil
	}

	maxIn, minIn := cmp.Inputs[1], cmp.Inputs[0]
	if isGreaterOp(cmp.Op.Kind) {
		maxIn, minIn = cmp.Inputs[0], cmp.Inputs[1]
	}

	maxArg, ok := maxIn.Origin.(*rvsdg.Argument)
	if !ok || maxArg.Region != theta.Body() || !isInvariant(theta, maxArg) {
		return nil
	}

	add := simpleProducer(minIn.Origin)
	if add == nil || add.Op.Kind != cfg.OpAdd || len(add.Inputs) != 2 {
		return nil
	}
	minOrigin, stepOrigin := add.Inputs[0].Origin, add.Inputs[1].Origin
	if simpleProducer(minOrigin) != nil {
		minOrigin, stepOrigin = stepOrigin, minOrigin
	}
	minArg, ok := minOrigin.(*rvsdg.Argument)
	if !ok || minArg.Region != theta.Body() {
		return nil
	}
	// The step must be loop-invariant: an invariant loop var or a constant.
	if stepArg, isArg := stepOrigin.(*rvsdg.Argument); isArg {
		if stepArg.Region != theta.Body() || !isInvariant(theta, stepArg) {
			return nil
		}
	} else if p := simpleProducer(stepOrigin); p == nil || p.Op.Kind != cfg.OpIntConst {
		return nil
	}

	if !maxArg.Typ.IsInt() {
		return nil
	}
	return &unrollInfo{
		eqop:  isEqCmp(cmp.Op.Kind),
		nbits: maxArg.Typ.Bits(),
		min:   minArg,
		max:   maxArg,
	}
}

func newControlMatch(region *rvsdg.Region, cmp rvsdg.Origin) *rvsdg.Output {
	return rvsdg.NewMatch(region, cmp, cfg.MatchMapping{1: 1}, 0, 2)
}

// unrollTheta rewrites one theta per spec §4.6. The original theta's
// outputs are diverted to the remainder gamma's exit vars and the theta is
// removed.
func unrollTheta(theta *rvsdg.Node, factor int) {
	ti := isApplicable(theta)
	if ti == nil {
		return
	}
	region := theta.Region
	nbits := ti.nbits
	uf64 := uint64(factor)

	minOrigin := theta.Inputs[ti.min.Index].Origin
	maxOrigin := theta.Inputs[ti.max.Index].Origin

	one := rvsdg.NewIntConstant(region, nbits, 1)
	uf := rvsdg.NewIntConstant(region, nbits, uf64)
	var r rvsdg.Origin = rvsdg.NewBinary(region, cfg.OpSub, nbits, maxOrigin, minOrigin)
	if ti.eqop {
		r = rvsdg.NewBinary(region, cfg.OpAdd, nbits, r, one)
	}
	cmp := rvsdg.NewBinary(region, cfg.OpICmpSGe, nbits, r, uf)
	pred := newControlMatch(region, cmp)

	smap := rvsdg.Substitution{}

	// Unrolled gamma: alternative 1 runs a theta stepping by factor.
	{
		ngamma := rvsdg.NewGamma(region, pred, 2)
		ntheta := rvsdg.NewTheta(ngamma.Subregions[1])

		skip := rvsdg.Substitution{}  // alternative 0: loop not taken
		taken := rvsdg.Substitution{} // alternative 1: inside the new theta
		for i, in := range theta.Inputs {
			args := ngamma.AddEntryVar(in.Typ, in.Origin)
			arg, _ := ntheta.AddLoopVar(in.Typ, args[1])
			skip[theta.Outputs[i]] = args[0]
			taken[theta.Body().Arguments[i]] = arg
		}

		for it := 0; it < factor-1; it++ {
			rvsdg.CopyRegionContents(theta.Body(), ntheta.Body(), taken)
			next := rvsdg.Substitution{}
			for i, arg := range theta.Body().Arguments {
				next[arg] = taken.Resolve(theta.Body().Results[i+1].Origin)
			}
			taken = next
		}
		rvsdg.CopyRegionContents(theta.Body(), ntheta.Body(), taken)

		// New loop condition: the trip counter decrements by factor.
		evr := ngamma.AddEntryVar(one.Typ, r)
		lvrArg, lvrOut := ntheta.AddLoopVar(one.Typ, evr[1])
		innerUf := rvsdg.NewIntConstant(ntheta.Body(), nbits, uf64)
		sub := rvsdg.NewBinary(ntheta.Body(), cfg.OpSub, nbits, lvrArg, innerUf)
		innerCmp := rvsdg.NewBinary(ntheta.Body(), cfg.OpICmpSGe, nbits, sub, innerUf)
		innerPred := newControlMatch(ntheta.Body(), innerCmp)

		ntheta.SetPredicate(innerPred)
		for i := range theta.Inputs {
			origin := taken.Resolve(theta.Body().Results[i+1].Origin)
			ntheta.SetLoopResult(theta.Inputs[i].Typ, origin)
		}
		ntheta.SetLoopResult(one.Typ, sub)

		for i, out := range theta.Outputs {
			xv := ngamma.AddExitVar(out.Typ, []rvsdg.Origin{skip[out], ntheta.Outputs[i]})
			smap[out] = xv
		}
		r = ngamma.AddExitVar(one.Typ, []rvsdg.Origin{evr[0], lvrOut})
	}

	zero := rvsdg.NewIntConstant(region, nbits, 0)
	cmp = rvsdg.NewBinary(region, cfg.OpICmpSGt, nbits, r, zero)
	pred = newControlMatch(region, cmp)

	// Remainder gamma: alternative 1 runs the leftover iterations one at a
	// time.
	{
		ngamma := rvsdg.NewGamma(region, pred, 2)
		ntheta := rvsdg.NewTheta(ngamma.Subregions[1])

		skip := rvsdg.Substitution{}
		taken := rvsdg.Substitution{}
		for i, in := range theta.Inputs {
			args := ngamma.AddEntryVar(in.Typ, smap.Resolve(theta.Outputs[i]))
			arg, _ := ntheta.AddLoopVar(in.Typ, args[1])
			skip[theta.Outputs[i]] = args[0]
			taken[theta.Body().Arguments[i]] = arg
		}

		rvsdg.CopyRegionContents(theta.Body(), ntheta.Body(), taken)

		evr := ngamma.AddEntryVar(zero.Typ, r)
		lvrArg, _ := ntheta.AddLoopVar(zero.Typ, evr[1])
		innerZero := rvsdg.NewIntConstant(ntheta.Body(), nbits, 0)
		innerOne := rvsdg.NewIntConstant(ntheta.Body(), nbits, 1)
		sub := rvsdg.NewBinary(ntheta.Body(), cfg.OpSub, nbits, lvrArg, innerOne)
		innerCmp := rvsdg.NewBinary(ntheta.Body(), cfg.OpICmpSGt, nbits, sub, innerZero)
		innerPred := newControlMatch(ntheta.Body(), innerCmp)

		ntheta.SetPredicate(innerPred)
		for i := range theta.Inputs {
			origin := taken.Resolve(theta.Body().Results[i+1].Origin)
			ntheta.SetLoopResult(theta.Inputs[i].Typ, origin)
		}
		ntheta.SetLoopResult(zero.Typ, sub)

		for i, out := range theta.Outputs {
			xv := ngamma.AddExitVar(out.Typ, []rvsdg.Origin{skip[out], ntheta.Outputs[i]})
			smap[out] = xv
		}
	}

	for _, out := range theta.Outputs {
		rvsdg.Divert(region, out, smap.Resolve(out))
	}
	rvsdg.RemoveNode(theta)
}
