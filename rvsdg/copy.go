package rvsdg

// CopyRegionContents copies every node of src into dst, rewriting each
// origin through sub and extending sub with (source output -> copied
// output) entries as it goes. Origins with no sub entry are taken verbatim:
// they are references to values outside src (an enclosing region, or
// arguments the caller has already mapped). src's own arguments are NOT
// copied — the caller maps them into sub first — and neither are its
// results, so a body can be stitched into a differently-shaped destination
// (loop unrolling chains F copies through the same region this way).
//
// Nodes are copied in dependency order regardless of how they are stored,
// so passes that rewire origins do not have to keep the node list
// topologically sorted.
func CopyRegionContents(src, dst *Region, sub Substitution) {
	visited := map[*Node]bool{}
	var emit func(n *Node)
	emit = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, in := range n.Inputs {
			if out, ok := in.Origin.(*Output); ok && out.Node.Region == src {
				emit(out.Node)
			}
		}
		copyNode(n, dst, sub)
	}
	for _, n := range append([]*Node(nil), src.Nodes...) {
		emit(n)
	}
}

func copyNode(n *Node, dst *Region, sub Substitution) *Node {
	c := newNode(n.Kind)
	c.Op = n.Op
	c.Name = n.Name
	c.Linkage = n.Linkage
	c.FuncType = n.FuncType
	c.DeltaType = n.DeltaType
	c.Constant = n.Constant
	c.NumContextVars = n.NumContextVars
	dst.AddNode(c)

	for _, in := range n.Inputs {
		c.AddInput(in.Typ, sub.Resolve(in.Origin))
	}
	for _, out := range n.Outputs {
		sub[out] = c.AddOutput(out.Typ)
	}

	for _, sr := range n.Subregions {
		csr := NewRegion(c)
		c.Subregions = append(c.Subregions, csr)
		for _, a := range sr.Arguments {
			sub[a] = csr.AddArgument(a.Typ)
		}
		CopyRegionContents(sr, csr, sub)
		for _, res := range sr.Results {
			csr.AddResult(res.Typ, sub.Resolve(res.Origin))
		}
	}
	return c
}
