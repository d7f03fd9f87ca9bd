// Package normalform implements the reduction pass: node-normal-form
// simplification for memory operations (the load rewrite rules of spec
// §4.5) plus integer constant folding for binary operations. Which rules
// fire is controlled by the normal-form flag set the module carries per
// operation kind, grounded on original_source/include/jlm/ir/operators/
// load.hpp.
package normalform

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// Run rewrites the module to normal form, applying every enabled rule to a
// fixed point.
func Run(m *rvsdg.Module) {
	for {
		if !sweep(m, m.Graph) {
			return
		}
	}
}

func sweep(m *rvsdg.Module, region *rvsdg.Region) bool {
	changed := false
	rvsdg.TopDown(region, func(n *rvsdg.Node) {
		for _, sub := range n.Subregions {
			if sweep(m, sub) {
				changed = true
			}
		}
		if n.Kind != rvsdg.NodeSimple {
			return
		}
		switch {
		case n.Op.Kind == cfg.OpLoad:
			if normalizeLoad(m, n) {
				changed = true
			}
		case n.Op.Kind.IsBinaryArithmetic():
			if foldBinary(m, n) {
				changed = true
			}
		}
	})
	return changed
}

// normalizeLoad applies the enabled load reductions to n until none fires.
// A load node's inputs are the address followed by its memory states; its
// single output is the loaded value.
func normalizeLoad(m *rvsdg.Module, n *rvsdg.Node) bool {
	nf := m.NormalForm(cfg.OpLoad)
	if !nf.Mutable {
		return false
	}

	changed := false
	for {
		fired := false
		if nf.EnableLoadMux && reduceLoadMux(n) {
			fired = true
		}
		if nf.EnableMultipleOrigin && reduceMultipleOrigin(n) {
			fired = true
		}
		if nf.EnableLoadAlloca && reduceLoadAlloca(n) {
			fired = true
		}
		if nf.EnableLoadStoreState && reduceLoadStoreState(n) {
			fired = true
		}
		if nf.EnableLoadStoreAlloca && reduceLoadStoreAlloca(n) {
			fired = true
		}
		if !fired {
			return changed
		}
		changed = true
	}
}

func loadStates(n *rvsdg.Node) []rvsdg.Origin {
	states := make([]rvsdg.Origin, 0, len(n.Inputs)-1)
	for _, in := range n.Inputs[1:] {
		states = append(states, in.Origin)
	}
	return states
}

// setLoadStates replaces n's state inputs, keeping the address input. At
// least one state is always retained so the load stays ordered against
// memory.
func setLoadStates(n *rvsdg.Node, states []rvsdg.Origin) {
	addr := n.Inputs[0]
	n.Inputs = []*rvsdg.Input{addr}
	for _, s := range states {
		n.AddInput(s.Type(), s)
	}
}

// producer returns the node producing o, or nil if o is a region argument.
func producer(o rvsdg.Origin) *rvsdg.Node {
	if out, ok := o.(*rvsdg.Output); ok {
		return out.Node
	}
	return nil
}

// allocaAddress returns the alloca node whose address output is o, or nil.
func allocaAddress(o rvsdg.Origin) *rvsdg.Node {
	n := producer(o)
	if n != nil && n.Kind == rvsdg.NodeSimple && n.Op.Kind == cfg.OpAlloca &&
		len(n.Outputs) > 0 && o == n.Outputs[0] {
		return n
	}
	return nil
}

// allocaOwner walks a state origin back through stores to the alloca whose
// memory it tracks: a state produced by an alloca belongs to that alloca,
// and a state produced by a store belongs to whatever alloca the store's
// address resolves to. Returns nil when the chain leaves provable ground.
func allocaOwner(o rvsdg.Origin) *rvsdg.Node {
	for {
		n := producer(o)
		if n == nil || n.Kind != rvsdg.NodeSimple {
			return nil
		}
		switch n.Op.Kind {
		case cfg.OpAlloca:
			return n
		case cfg.OpStore:
			if a := allocaAddress(n.Inputs[0].Origin); a != nil {
				return a
			}
			return nil
		default:
			return nil
		}
	}
}

// reduceLoadMux: load(addr, [mux(s1..sn)]) => load(addr, [s1..sn]).
func reduceLoadMux(n *rvsdg.Node) bool {
	if len(n.Inputs) != 2 {
		return false
	}
	mux := producer(n.Inputs[1].Origin)
	if mux == nil || mux.Kind != rvsdg.NodeSimple || mux.Op.Kind != cfg.OpMemStateMux {
		return false
	}
	states := make([]rvsdg.Origin, 0, len(mux.Inputs))
	for _, in := range mux.Inputs {
		states = append(states, in.Origin)
	}
	if len(states) == 0 {
		return false
	}
	setLoadStates(n, states)
	return true
}

// reduceMultipleOrigin deduplicates state inputs sharing an origin.
func reduceMultipleOrigin(n *rvsdg.Node) bool {
	states := loadStates(n)
	seen := map[rvsdg.Origin]bool{}
	kept := states[:0]
	for _, s := range states {
		if seen[s] {
			continue
		}
		seen[s] = true
		kept = append(kept, s)
	}
	if len(kept) == len(n.Inputs)-1 {
		return false
	}
	setLoadStates(n, kept)
	return true
}

// reduceLoadAlloca: when the address is an alloca, states produced directly
// by other allocas cannot alias it and are dropped.
func reduceLoadAlloca(n *rvsdg.Node) bool {
	addr := allocaAddress(n.Inputs[0].Origin)
	if addr == nil {
		return false
	}
	return dropStates(n, func(s rvsdg.Origin) bool {
		p := producer(s)
		return p != nil && p.Kind == rvsdg.NodeSimple && p.Op.Kind == cfg.OpAlloca && p != addr
	})
}

// reduceLoadStoreState: a state produced by a store whose address is
// provably distinct from the load's address (both are distinct allocas) is
// dropped.
func reduceLoadStoreState(n *rvsdg.Node) bool {
	addr := allocaAddress(n.Inputs[0].Origin)
	if addr == nil {
		return false
	}
	return dropStates(n, func(s rvsdg.Origin) bool {
		p := producer(s)
		if p == nil || p.Kind != rvsdg.NodeSimple || p.Op.Kind != cfg.OpStore {
			return false
		}
		stored := allocaAddress(p.Inputs[0].Origin)
		return stored != nil && stored != addr
	})
}

// reduceLoadStoreAlloca: follows each state (looking through one mux) back
// through store chains to its owning alloca and drops states owned by an
// alloca other than the load's. This is the rule that untangles a load
// from a mux over unrelated stores.
func reduceLoadStoreAlloca(n *rvsdg.Node) bool {
	addr := allocaAddress(n.Inputs[0].Origin)
	if addr == nil {
		return false
	}
	unrelated := func(s rvsdg.Origin) bool {
		owner := allocaOwner(s)
		return owner != nil && owner != addr
	}

	changed := dropStates(n, unrelated)

	// Look through a mux whose operands are partially unrelated.
	for i := 1; i < len(n.Inputs); i++ {
		mux := producer(n.Inputs[i].Origin)
		if mux == nil || mux.Kind != rvsdg.NodeSimple || mux.Op.Kind != cfg.OpMemStateMux {
			continue
		}
		var kept []rvsdg.Origin
		for _, in := range mux.Inputs {
			if !unrelated(in.Origin) {
				kept = append(kept, in.Origin)
			}
		}
		if len(kept) == len(mux.Inputs) || len(kept) == 0 {
			continue
		}
		if len(kept) == 1 {
			n.Inputs[i].Origin = kept[0]
		} else {
			n.Inputs[i].Origin = rvsdg.NewMemStateMux(n.Region, kept)
		}
		changed = true
	}
	return changed
}

// dropStates removes every state input matching drop, always retaining at
// least one state.
func dropStates(n *rvsdg.Node, drop func(rvsdg.Origin) bool) bool {
	states := loadStates(n)
	var kept []rvsdg.Origin
	for _, s := range states {
		if !drop(s) {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(states) {
		return false
	}
	if len(kept) == 0 {
		kept = states[:1]
	}
	setLoadStates(n, kept)
	return true
}

// foldBinary folds a binary arithmetic node over two integer constants
// into a single constant, unless the kind's normal form is frozen.
func foldBinary(m *rvsdg.Module, n *rvsdg.Node) bool {
	if !m.NormalForm(n.Op.Kind).Mutable {
		return false
	}
	if len(n.Inputs) != 2 || len(n.Outputs) != 1 || !n.Outputs[0].Typ.IsInt() {
		return false
	}
	a := producer(n.Inputs[0].Origin)
	b := producer(n.Inputs[1].Origin)
	if a == nil || b == nil ||
		a.Kind != rvsdg.NodeSimple || a.Op.Kind != cfg.OpIntConst ||
		b.Kind != rvsdg.NodeSimple || b.Op.Kind != cfg.OpIntConst {
		return false
	}

	bits := n.Outputs[0].Typ.Bits()
	x, y := a.Op.IntValue, b.Op.IntValue
	var value uint64
	switch n.Op.Kind {
	case cfg.OpAdd:
		value = x + y
	case cfg.OpSub:
		value = x - y
	case cfg.OpMul:
		value = x * y
	case cfg.OpAnd:
		value = x & y
	case cfg.OpOr:
		value = x | y
	case cfg.OpXor:
		value = x ^ y
	case cfg.OpShl:
		value = x << (y % 64)
	case cfg.OpLShr:
		value = x >> (y % 64)
	case cfg.OpUDiv:
		if y == 0 {
			return false
		}
		value = x / y
	case cfg.OpURem:
		if y == 0 {
			return false
		}
		value = x % y
	default:
		return false
	}
	if bits < 64 {
		value &= (1 << bits) - 1
	}

	region := n.Region
	folded := rvsdg.NewIntConstant(region, bits, value)
	moveBefore(region, folded.Node, n)
	rvsdg.Divert(region, n.Outputs[0], folded)
	rvsdg.RemoveNode(n)
	return true
}

// moveBefore repositions node directly before anchor in region's node list,
// keeping the list topologically ordered for region copies.
func moveBefore(region *rvsdg.Region, node, anchor *rvsdg.Node) {
	nodes := make([]*rvsdg.Node, 0, len(region.Nodes))
	for _, x := range region.Nodes {
		if x == node {
			continue
		}
		if x == anchor {
			nodes = append(nodes, node)
		}
		nodes = append(nodes, x)
	}
	region.Nodes = nodes
}
