package annotation

import "github.com/jlm-go/rvsdgc/ir/cfg"

// VariableSet is an unordered set of live variables (spec §3 "Demand set").
type VariableSet map[*cfg.Variable]bool

func NewVariableSet() VariableSet { return VariableSet{} }

// Clone returns an independent copy of s.
func (s VariableSet) Clone() VariableSet {
	out := make(VariableSet, len(s))
	for v := range s {
		out[v] = true
	}
	return out
}

func (s VariableSet) Insert(v *cfg.Variable) { s[v] = true }
func (s VariableSet) Erase(v *cfg.Variable)  { delete(s, v) }
func (s VariableSet) Has(v *cfg.Variable) bool {
	return s[v]
}

// Union mutates s to also contain every member of other.
func (s VariableSet) Union(other VariableSet) {
	for v := range other {
		s[v] = true
	}
}

// Equal reports whether s and other contain exactly the same variables.
func (s VariableSet) Equal(other VariableSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other[v] {
			return false
		}
	}
	return true
}

// Superset reports whether s contains every member of other (spec §3
// "A.bottom ⊇ B.top").
func (s VariableSet) Superset(other VariableSet) bool {
	for v := range other {
		if !s[v] {
			return false
		}
	}
	return true
}
