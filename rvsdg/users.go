package rvsdg

// Users returns the back-reference set of every origin produced inside
// region: the node inputs consuming it (region results are not included). The index is
// rebuilt on demand rather than maintained incrementally; structural
// mutation invalidates it.
func Users(region *Region) map[Origin][]*Input {
	users := map[Origin][]*Input{}
	for _, n := range region.Nodes {
		for _, in := range n.Inputs {
			users[in.Origin] = append(users[in.Origin], in)
		}
	}
	return users
}

// Divert rewires every consumer of old inside region — node inputs and the
// region's own results — to new instead. Consumers can only live in the
// region the producer belongs to, so a single-region sweep is complete.
func Divert(region *Region, old, new Origin) {
	for _, n := range region.Nodes {
		for _, in := range n.Inputs {
			if in.Origin == old {
				in.Origin = new
			}
		}
	}
	for _, res := range region.Results {
		if res.Origin == old {
			res.Origin = new
		}
	}
}

// HasUsers reports whether any node input or region result consumes o
// within region.
func HasUsers(region *Region, o Origin) bool {
	for _, n := range region.Nodes {
		for _, in := range n.Inputs {
			if in.Origin == o {
				return true
			}
		}
	}
	for _, res := range region.Results {
		if res.Origin == o {
			return true
		}
	}
	return false
}
