package rvsdg

import (
	"github.com/jlm-go/rvsdgc/ir/diag"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// Check validates the module's port-level invariants (spec §3), returning a
// fatal InvariantError for the first violation found.
func (m *Module) Check() error {
	return checkRegion(m.Graph)
}

func checkRegion(r *Region) error {
	for _, res := range r.Results {
		if res.Origin == nil {
			return diag.Invariantf("region-result-origin", "result %d has no origin", res.Index)
		}
		if !res.Origin.Type().Equal(res.Typ) {
			return diag.Invariantf("region-result-type", "result %d: origin type %s != port type %s",
				res.Index, res.Origin.Type(), res.Typ)
		}
	}
	for _, n := range r.Nodes {
		if err := checkNode(n); err != nil {
			return err
		}
	}
	return nil
}

func checkNode(n *Node) error {
	for _, in := range n.Inputs {
		if in.Origin == nil {
			return diag.Invariantf("node-input-origin", "%s node input %d has no origin", n.Kind, in.Index)
		}
		if !in.Origin.Type().Equal(in.Typ) {
			return diag.Invariantf("node-input-type", "%s node input %d: origin type %s != port type %s",
				n.Kind, in.Index, in.Origin.Type(), in.Typ)
		}
	}

	switch n.Kind {
	case NodeGamma:
		if err := checkGamma(n); err != nil {
			return err
		}
	case NodeTheta:
		if err := checkTheta(n); err != nil {
			return err
		}
	case NodeLambda:
		if !types.PointerToFuncType(n.Outputs[0].Typ) {
			return diag.Invariantf("lambda-output-type", "lambda %q output is %s, not a pointer to a function type",
				n.Name, n.Outputs[0].Typ)
		}
	}

	for _, sub := range n.Subregions {
		if err := checkRegion(sub); err != nil {
			return err
		}
	}
	return nil
}

func checkGamma(n *Node) error {
	if len(n.Subregions) < 2 {
		return diag.Invariantf("gamma-subregions", "gamma has %d alternatives, need >= 2", len(n.Subregions))
	}
	pred := n.Inputs[0].Typ
	if !pred.IsControl() || int(pred.Alternatives()) != len(n.Subregions) {
		return diag.Invariantf("gamma-predicate", "predicate type %s does not select %d alternatives",
			pred, len(n.Subregions))
	}
	for _, sub := range n.Subregions {
		if len(sub.Arguments) != len(n.Inputs)-1 {
			return diag.Invariantf("gamma-entryvars", "alternative has %d arguments for %d entry vars",
				len(sub.Arguments), len(n.Inputs)-1)
		}
		if len(sub.Results) != len(n.Outputs) {
			return diag.Invariantf("gamma-exitvars", "alternative has %d results for %d exit vars",
				len(sub.Results), len(n.Outputs))
		}
		for i, a := range sub.Arguments {
			if !a.Typ.Equal(n.Inputs[i+1].Typ) {
				return diag.Invariantf("gamma-entryvar-type", "entry var %d: argument type %s != input type %s",
					i, a.Typ, n.Inputs[i+1].Typ)
			}
		}
		for i, res := range sub.Results {
			if !res.Typ.Equal(n.Outputs[i].Typ) {
				return diag.Invariantf("gamma-exitvar-type", "exit var %d: result type %s != output type %s",
					i, res.Typ, n.Outputs[i].Typ)
			}
		}
	}
	return nil
}

func checkTheta(n *Node) error {
	body := n.Subregions[0]
	if len(n.Inputs) != len(n.Outputs) || len(n.Inputs) != len(body.Arguments) {
		return diag.Invariantf("theta-loopvars", "inputs/outputs/arguments disagree: %d/%d/%d",
			len(n.Inputs), len(n.Outputs), len(body.Arguments))
	}
	if len(body.Results) != len(n.Inputs)+1 {
		return diag.Invariantf("theta-results", "body has %d results for %d loop vars plus predicate",
			len(body.Results), len(n.Inputs))
	}
	predicate := body.Results[0]
	if !predicate.Typ.IsControl() || predicate.Typ.Alternatives() != 2 {
		return diag.Invariantf("theta-predicate", "predicate type %s is not a 2-way control", predicate.Typ)
	}
	for i, in := range n.Inputs {
		t := in.Typ
		if !body.Arguments[i].Typ.Equal(t) || !body.Results[i+1].Typ.Equal(t) || !n.Outputs[i].Typ.Equal(t) {
			return diag.Invariantf("theta-loopvar-type",
				"loop var %d: argument/result/output types do not all equal input type %s", i, t)
		}
	}
	return nil
}
