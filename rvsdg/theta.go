package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// NewTheta opens a tail-controlled loop node and adds it to region.
func NewTheta(region *Region) *Node {
	n := newNode(NodeTheta)
	n.Subregions = []*Region{NewRegion(n)}
	region.AddNode(n)
	return n
}

// Body returns the theta's single subregion.
func (n *Node) Body() *Region { return n.Subregions[0] }

// AddLoopVar adds a loop-var: a node input bound to initial, a matching
// subregion argument, and a matching node output. The subregion result
// carrying this loop-var's updated value must be set separately with
// SetLoopResult once the body is translated (the builder does not yet
// know the per-iteration value when the loop-var is opened).
func (n *Node) AddLoopVar(t types.Type, initial Origin) (*Argument, *Output) {
	n.AddInput(t, initial)
	arg := n.Body().AddArgument(t)
	out := n.AddOutput(t)
	return arg, out
}

// SetPredicate appends the theta's repeat predicate as the subregion's
// first result. Must be called before any SetLoopResult so predicate
// occupies Results[0].
func (n *Node) SetPredicate(ctl Origin) {
	n.Body().AddResult(ctl.Type(), ctl)
}

// SetLoopResult appends the subregion result carrying a loop-var's
// updated value, in the same order the loop-vars were added.
func (n *Node) SetLoopResult(t types.Type, value Origin) *Result {
	return n.Body().AddResult(t, value)
}

// Predicate returns the theta's repeat-predicate result.
func (n *Node) Predicate() *Result { return n.Body().Results[0] }

// LoopResults returns the subregion results carrying updated loop-var
// values, i.e. every result after the predicate.
func (n *Node) LoopResults() []*Result { return n.Body().Results[1:] }
