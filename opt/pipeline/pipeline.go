// Package pipeline drives the RVSDG optimisation passes in a configured
// order (spec §6 "Pass ordering"), grounded on
// original_source/libjlm/src/opt/optimization.cpp.
package pipeline

import (
	"fmt"

	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/diag"
	"github.com/jlm-go/rvsdgc/opt/normalform"
	"github.com/jlm-go/rvsdgc/opt/unroll"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// Pass names the closed set of optimisations the driver can be ordered to
// run.
type Pass string

const (
	CNE Pass = "cne" // common node elimination
	DNE Pass = "dne" // dead node elimination
	ILN Pass = "iln" // function inlining
	INV Pass = "inv" // invariant value redirection
	PLL Pass = "pll" // node pull-in (gamma)
	PSH Pass = "psh" // node push-out (theta)
	IVT Pass = "ivt" // theta-gamma inversion
	URL Pass = "url" // loop unrolling
	RED Pass = "red" // normal-form reduction
)

// Passes lists every recognised pass name.
func Passes() []Pass {
	return []Pass{CNE, DNE, ILN, INV, PLL, PSH, IVT, URL, RED}
}

// Valid reports whether p names a known pass.
func Valid(p Pass) bool {
	for _, q := range Passes() {
		if p == q {
			return true
		}
	}
	return false
}

// Options parameterises the passes that take arguments.
type Options struct {
	UnrollFactor int
}

// Run applies the passes to m in list order, with possible repetition. An
// unknown pass name is rejected before anything runs.
func Run(m *rvsdg.Module, passes []Pass, opts Options) error {
	for _, p := range passes {
		if !Valid(p) {
			return diag.Config("passes", fmt.Errorf("unknown pass %q", p))
		}
	}
	for _, p := range passes {
		apply(m, p, opts)
	}
	return nil
}

func apply(m *rvsdg.Module, p Pass, opts Options) {
	switch p {
	case CNE:
		cne(m)
	case DNE:
		dne(m)
	case ILN:
		inline(m)
	case INV:
		invariance(m)
	case PLL:
		pull(m)
	case PSH:
		push(m)
	case IVT:
		invert(m)
	case URL:
		unroll.Run(m, opts.UnrollFactor)
	case RED:
		normalform.Run(m)
	}
}

// eachRegion applies fn to every region of the module, innermost first.
func eachRegion(m *rvsdg.Module, fn func(*rvsdg.Region)) {
	var walk func(r *rvsdg.Region)
	walk = func(r *rvsdg.Region) {
		rvsdg.TopDown(r, func(n *rvsdg.Node) {
			for _, sub := range n.Subregions {
				walk(sub)
			}
		})
		fn(r)
	}
	walk(m.Graph)
}

// pureOp reports whether an operation may be duplicated, merged or moved
// without changing observable behaviour: no memory effects, no allocation
// identity.
func pureOp(k cfg.OpKind) bool {
	switch k {
	case cfg.OpAlloca, cfg.OpMalloc, cfg.OpFree, cfg.OpLoad, cfg.OpStore,
		cfg.OpCall, cfg.OpMemStateMux, cfg.OpVAStart, cfg.OpVAArg, cfg.OpVAEnd:
		return false
	}
	return true
}
