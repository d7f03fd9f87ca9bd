// Package agg implements structural aggregation (spec §4.2): collapsing a
// proper-structured CFG into a single aggregation tree of linear, branch,
// loop, entry and exit nodes by iterated pattern reduction, grounded on
// original_source/src/ir/aggregation/aggregation.cpp.
package agg

import "github.com/jlm-go/rvsdgc/ir/cfg"

// Kind discriminates the six aggregation tree node shapes (spec §3
// "Aggregation tree").
type Kind int

const (
	KindEntry Kind = iota
	KindExit
	KindBlock
	KindLinear
	KindBranch
	KindLoop
)

// Node is one vertex of the aggregation tree. Leaves (Entry, Exit, Block)
// carry CFG attributes; internal nodes (Linear, Branch, Loop) carry
// children only.
type Node struct {
	Kind Kind

	// KindEntry / KindExit
	Entry *cfg.EntryAttr
	Exit  *cfg.ExitAttr

	// KindBlock
	Block *cfg.BasicBlock

	// Children: exactly 2 for Linear, 1 for Loop, 1 (head) + k (alternatives)
	// for Branch.
	Children []*Node
}

func newEntry(a *cfg.EntryAttr) *Node { return &Node{Kind: KindEntry, Entry: a} }
func newExit(a *cfg.ExitAttr) *Node   { return &Node{Kind: KindExit, Exit: a} }
func newBlock(b *cfg.BasicBlock) *Node {
	return &Node{Kind: KindBlock, Block: b}
}

// NewLinear builds a Linear(a, b) tree node (spec §4.2 "Linear").
func NewLinear(a, b *Node) *Node { return &Node{Kind: KindLinear, Children: []*Node{a, b}} }

// NewLoop builds a Loop(body) tree node (spec §4.2 "Loop").
func NewLoop(body *Node) *Node { return &Node{Kind: KindLoop, Children: []*Node{body}} }

// NewBranch builds a Branch(head; alternatives...) tree node (spec §4.2
// "Branch"); head must be the first element of children.
func NewBranch(head *Node, alternatives ...*Node) *Node {
	return &Node{Kind: KindBranch, Children: append([]*Node{head}, alternatives...)}
}

// Head returns a branch node's head child.
func (n *Node) Head() *Node { return n.Children[0] }

// Alternatives returns a branch node's case children.
func (n *Node) Alternatives() []*Node { return n.Children[1:] }

// Body returns a loop node's single body child.
func (n *Node) Body() *Node { return n.Children[0] }
