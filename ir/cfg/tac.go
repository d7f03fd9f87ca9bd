package cfg

// TAC bundles an operation with an ordered tuple of input variables and an
// ordered tuple of result variables (spec §3 "CFG").
type TAC struct {
	Op      Operation
	Inputs  []*Variable
	Results []*Variable
}

// NewTAC builds a TAC, copying the input/result slices so callers may reuse
// their backing arrays.
func NewTAC(op Operation, inputs, results []*Variable) *TAC {
	return &TAC{
		Op:      op,
		Inputs:  append([]*Variable(nil), inputs...),
		Results: append([]*Variable(nil), results...),
	}
}

// IsAssignment reports whether this TAC is the special two-input,
// zero-result `assignment(dest, src)` form used by restructuring's
// synthesised predicate-variable writes (spec §4.3 "an assignment TAC is
// special-cased because its destination is encoded as an input").
func (t *TAC) IsAssignment() bool {
	return t.Op.Kind == OpAssignment
}

// Dest and Src are only meaningful when IsAssignment is true.
func (t *TAC) Dest() *Variable { return t.Inputs[0] }
func (t *TAC) Src() *Variable  { return t.Inputs[1] }

// NewAssignment builds an `assignment(dest, src)` TAC.
func NewAssignment(dest, src *Variable) *TAC {
	return &TAC{Op: Operation{Kind: OpAssignment}, Inputs: []*Variable{dest, src}}
}
