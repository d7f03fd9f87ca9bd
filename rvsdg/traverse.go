package rvsdg

// TopDown visits every node of region in node-list order, snapshotting the
// node list before yielding so a visitor may insert or remove sibling nodes
// without invalidating the traversal. Nodes inserted during visitation are
// not themselves visited; nodes removed before their turn are skipped.
func TopDown(region *Region, visit func(*Node)) {
	frontier := append([]*Node(nil), region.Nodes...)
	for _, n := range frontier {
		if n.Region != region {
			continue // removed by an earlier visit
		}
		visit(n)
	}
}

// TopDownRecursive visits region and, for every structural node, descends
// into its subregions before yielding the node itself to visit. The frontier
// is snapshotted per region, so visitors may mutate the region they are
// visiting.
func TopDownRecursive(region *Region, visit func(*Node)) {
	frontier := append([]*Node(nil), region.Nodes...)
	for _, n := range frontier {
		if n.Region != region {
			continue
		}
		for _, sub := range n.Subregions {
			TopDownRecursive(sub, visit)
		}
		visit(n)
	}
}

// RemoveNode detaches n from its owning region.
func RemoveNode(n *Node) {
	if n.Region == nil {
		return
	}
	n.Region.RemoveNode(n)
	n.Region = nil
}

// NumNodes counts the nodes of region including those of nested subregions.
func NumNodes(region *Region) int {
	count := 0
	for _, n := range region.Nodes {
		count++
		for _, sub := range n.Subregions {
			count += NumNodes(sub)
		}
	}
	return count
}
