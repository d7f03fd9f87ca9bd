package restructure

import "github.com/jlm-go/rvsdgc/ir/cfg"

// orderedNodeSet keeps first-seen insertion order alongside membership,
// mirroring the role jlm's std::unordered_map<node*, size_t> plays as both
// an index map and a deterministic iteration order for VE/VX (spec §4.1.1).
type orderedNodeSet struct {
	order []*cfg.Node
	index map[*cfg.Node]int
}

func newOrderedNodeSet() *orderedNodeSet {
	return &orderedNodeSet{index: map[*cfg.Node]int{}}
}

func (s *orderedNodeSet) add(n *cfg.Node) {
	if _, ok := s.index[n]; ok {
		return
	}
	s.index[n] = len(s.order)
	s.order = append(s.order, n)
}

func (s *orderedNodeSet) has(n *cfg.Node) bool {
	_, ok := s.index[n]
	return ok
}

func (s *orderedNodeSet) len() int { return len(s.order) }

// orderedEdgeSet keeps first-seen insertion order for a set of edges (AE,
// AX, AR in spec §4.1.1 are unordered in the model but must iterate
// deterministically for reproducible restructuring output).
type orderedEdgeSet struct {
	order []*cfg.Edge
	seen  map[*cfg.Edge]bool
}

func newOrderedEdgeSet() *orderedEdgeSet {
	return &orderedEdgeSet{seen: map[*cfg.Edge]bool{}}
}

func (s *orderedEdgeSet) add(e *cfg.Edge) {
	if s.seen[e] {
		return
	}
	s.seen[e] = true
	s.order = append(s.order, e)
}

func (s *orderedEdgeSet) len() int { return len(s.order) }

func nodeSet(nodes []*cfg.Node) map[*cfg.Node]bool {
	m := make(map[*cfg.Node]bool, len(nodes))
	for _, n := range nodes {
		m[n] = true
	}
	return m
}
