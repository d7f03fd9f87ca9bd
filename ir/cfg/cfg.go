// Package cfg implements the control-flow-graph data model of spec §3
// ("CFG"): basic blocks of three-address code joined by ordered-at-source,
// unordered-at-sink edges, plus the distinguished entry/exit pseudo-blocks.
package cfg

import "github.com/jlm-go/rvsdgc/ir/diag"

// NodeKind discriminates the three kinds of CFG node.
type NodeKind int

const (
	NodeEntry NodeKind = iota
	NodeExit
	NodeBlock
)

// EntryAttr holds the formal arguments of the function this CFG belongs to.
type EntryAttr struct {
	Arguments []*Variable
}

// ExitAttr holds the declared result variables of the function.
type ExitAttr struct {
	Results []*Variable
}

// BasicBlock owns an ordered sequence of TACs (spec §3).
type BasicBlock struct {
	TACs []*TAC
}

func (b *BasicBlock) Append(t *TAC) { b.TACs = append(b.TACs, t) }

// LastTAC returns the block's terminating TAC, or nil if empty.
func (b *BasicBlock) LastTAC() *TAC {
	if len(b.TACs) == 0 {
		return nil
	}
	return b.TACs[len(b.TACs)-1]
}

// Edge connects a source node to a sink node. Edges are ordered at the
// source (Index is the source-local out-edge position consumed by branch
// operations) and unordered at the sink.
type Edge struct {
	Source *Node
	Sink   *Node
	Index  int
}

// IsSelfLoop reports whether this edge's source and sink are the same node.
func (e *Edge) IsSelfLoop() bool { return e.Source == e.Sink }

// Node is one vertex of the CFG: an entry, exit, or basic-block node.
type Node struct {
	Kind  NodeKind
	Block *BasicBlock
	Entry *EntryAttr
	Exit  *ExitAttr

	cfg *Cfg
	out []*Edge
	in  []*Edge
}

// Owner returns the Cfg this node belongs to.
func (n *Node) Owner() *Cfg { return n.cfg }

func (n *Node) OutEdges() []*Edge { return n.out }
func (n *Node) InEdges() []*Edge { return n.in }
func (n *Node) NOutEdges() int   { return len(n.out) }
func (n *Node) NInEdges() int    { return len(n.in) }

// OutEdge returns the out-edge at source-local index i.
func (n *Node) OutEdge(i int) *Edge { return n.out[i] }

// IsBranch reports whether the node has more than one out-edge.
func (n *Node) IsBranch() bool { return len(n.out) > 1 }

// HasSelfLoopEdge reports whether any out-edge of n targets n itself (spec
// §4.1.1 "singleton with self-loop").
func (n *Node) HasSelfLoopEdge() bool {
	for _, e := range n.out {
		if e.IsSelfLoop() {
			return true
		}
	}
	return false
}

func removeEdge(edges []*Edge, e *Edge) []*Edge {
	out := edges[:0]
	for _, x := range edges {
		if x != e {
			out = append(out, x)
		}
	}
	return out
}

// AddOutEdge appends a new out-edge from n to sink, at the next source-local
// index.
func (n *Node) AddOutEdge(sink *Node) *Edge {
	e := &Edge{Source: n, Sink: sink, Index: len(n.out)}
	n.out = append(n.out, e)
	sink.in = append(sink.in, e)
	return e
}

// RemoveOutEdge removes and returns the out-edge at source-local index i,
// renumbering the remaining out-edges so indices stay contiguous (mirroring
// jlm's vector-backed out-edge list).
func (n *Node) RemoveOutEdge(i int) *Edge {
	e := n.out[i]
	n.out = append(n.out[:i], n.out[i+1:]...)
	for j := i; j < len(n.out); j++ {
		n.out[j].Index = j
	}
	e.Sink.in = removeEdge(e.Sink.in, e)
	return e
}

// RemoveOutEdges detaches every out-edge of n.
func (n *Node) RemoveOutEdges() {
	for len(n.out) > 0 {
		n.RemoveOutEdge(len(n.out) - 1)
	}
}

// RemoveInEdges detaches every in-edge of n by removing it from its source's
// out-edge list; each source's remaining out-edges are renumbered.
func (n *Node) RemoveInEdges() {
	for _, e := range append([]*Edge(nil), n.in...) {
		e.Source.RemoveOutEdge(e.Index)
	}
}

// DivertInEdges redirects every in-edge of n to target instead, preserving
// each edge's source-local index (spec §4.2 "replace {A,B} with a fresh
// block inheriting A's in-edges").
func (n *Node) DivertInEdges(target *Node) {
	for _, e := range append([]*Edge(nil), n.in...) {
		e.Sink = target
		target.in = append(target.in, e)
	}
	n.in = nil
}

// Divert redirects e to point at a new sink, preserving its source and
// source-local index: this is how restructuring threads an edge through a
// freshly synthesised intermediate block (spec §4.1 "redirect it through a
// new block").
func (e *Edge) Divert(newSink *Node) {
	e.Sink.in = removeEdge(e.Sink.in, e)
	e.Sink = newSink
	newSink.in = append(newSink.in, e)
}

// Split inserts a fresh empty basic block between e's source and sink,
// preserving e's source-local index (spec §4.1.2 "if the branch sub-graph
// is empty, split the edge").
func (e *Edge) Split() *Node {
	cfg := e.Source.cfg
	relay := cfg.NewBlock()
	relay.AddOutEdge(e.Sink)
	e.Divert(relay)
	return relay
}

// Cfg is a directed multigraph of basic blocks plus the entry/exit
// pseudo-blocks (spec §3 "CFG").
type Cfg struct {
	Entry *Node
	Exit  *Node
	Nodes []*Node
}

// New creates an empty CFG with freshly allocated entry and exit nodes.
func New(arguments []*Variable, results []*Variable) *Cfg {
	c := &Cfg{}
	c.Entry = &Node{Kind: NodeEntry, Entry: &EntryAttr{Arguments: arguments}, cfg: c}
	c.Exit = &Node{Kind: NodeExit, Exit: &ExitAttr{Results: results}, cfg: c}
	c.Nodes = []*Node{c.Entry, c.Exit}
	return c
}

// NewBlock allocates and registers a fresh, empty basic-block node.
func (c *Cfg) NewBlock() *Node {
	n := &Node{Kind: NodeBlock, Block: &BasicBlock{}, cfg: c}
	c.Nodes = append(c.Nodes, n)
	return n
}

// IsClosed reports whether entry has no predecessors and exit no successors
// (spec §3 "closed").
func (c *Cfg) IsClosed() bool {
	return c.Entry.NInEdges() == 0 && c.Exit.NOutEdges() == 0
}

// reachableFrom performs a forward BFS from start, returning the visited
// set.
func reachableFrom(start *Node) map[*Node]bool {
	seen := map[*Node]bool{start: true}
	queue := []*Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range n.out {
			if !seen[e.Sink] {
				seen[e.Sink] = true
				queue = append(queue, e.Sink)
			}
		}
	}
	return seen
}

// coReachableTo performs a backward BFS to end, returning the visited set.
func coReachableTo(end *Node) map[*Node]bool {
	seen := map[*Node]bool{end: true}
	queue := []*Node{end}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range n.in {
			if !seen[e.Source] {
				seen[e.Source] = true
				queue = append(queue, e.Source)
			}
		}
	}
	return seen
}

// IsValid reports whether c is closed and every block is reachable from
// entry and co-reachable to exit (spec §3 "valid").
func (c *Cfg) IsValid() bool {
	if !c.IsClosed() {
		return false
	}
	fwd := reachableFrom(c.Entry)
	back := coReachableTo(c.Exit)
	for _, n := range c.Nodes {
		if !fwd[n] || !back[n] {
			return false
		}
	}
	for _, n := range c.Nodes {
		if n != c.Entry && n.NInEdges() == 0 {
			return false
		}
	}
	return true
}

// CheckValid returns a fatal InvariantError describing the first violation
// found, or nil if c is valid.
func (c *Cfg) CheckValid() error {
	if !c.IsClosed() {
		return diag.Invariant("cfg-closed", nil)
	}
	fwd := reachableFrom(c.Entry)
	back := coReachableTo(c.Exit)
	for _, n := range c.Nodes {
		if !fwd[n] {
			return diag.Invariantf("cfg-reachable", "node unreachable from entry")
		}
		if !back[n] {
			return diag.Invariantf("cfg-coreachable", "node cannot reach exit")
		}
		if n != c.Entry && n.NInEdges() == 0 {
			return diag.Invariantf("cfg-inedges", "non-entry node has no predecessors")
		}
		if n.Kind == NodeBlock {
			if last := n.Block.LastTAC(); last != nil && last.Op.Kind.IsBranching() {
				if int(last.Op.Successors) != n.NOutEdges() {
					return diag.Invariantf("cfg-branch-arity", "branch successor count does not equal out-edge count")
				}
			}
			for _, t := range n.Block.TACs[:max(0, len(n.Block.TACs)-1)] {
				if t.Op.Kind.IsBranching() {
					return diag.Invariantf("cfg-branch-position", "branch-producing TAC is not the block's last instruction")
				}
			}
		}
	}
	return nil
}
