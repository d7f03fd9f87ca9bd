package cfg

import "github.com/jlm-go/rvsdgc/ir/types"

// Variable is a typed named handle (spec §3 "Variable"). Variables are
// compared by pointer identity: two *Variable built separately are distinct
// even if they share a name, matching jlm's variable handles.
type Variable struct {
	Name string
	Type types.Type
}

// NewVariable allocates a fresh variable. Auxiliary predicate variables
// introduced by restructuring (q, r, p in spec §4.1) are ordinary Variables
// with synthetic names.
func NewVariable(name string, t types.Type) *Variable {
	return &Variable{Name: name, Type: t}
}

func (v *Variable) String() string {
	if v == nil {
		return "<nil>"
	}
	return v.Name
}
