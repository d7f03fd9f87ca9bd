package rvsdg

import "github.com/jlm-go/rvsdgc/ir/types"

// Input is a node's consuming port: exactly one origin, rewritable by
// substitution maps during structural copies (unrolling, inlining).
type Input struct {
	Node   *Node
	Index  int
	Typ    types.Type
	Origin Origin
}

// Output is a node's producing port.
type Output struct {
	Node  *Node
	Index int
	Typ   types.Type
}

func (o *Output) Type() types.Type { return o.Typ }

// Substitution maps an old Origin to its replacement when a region is
// copied (e.g. unrolling a theta body F times, or inlining a lambda).
type Substitution map[Origin]Origin

// Resolve follows sub for o, returning o unchanged if it has no entry.
func (sub Substitution) Resolve(o Origin) Origin {
	if r, ok := sub[o]; ok {
		return r
	}
	return o
}
