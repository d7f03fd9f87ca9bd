package cfg

import "github.com/jlm-go/rvsdgc/ir/types"

// OpKind is the closed, tagged-union discriminator for every LLIR operation
// the builder must translate (spec §6 "Operation enumeration"). Operations
// are modelled as a tagged union of payloads rather than a heterogeneous
// interface hierarchy (spec DESIGN NOTES "Polymorphic node kinds") so that
// rewrites can switch on Kind instead of type-asserting through a pointer
// soup.
type OpKind int

const (
	OpIntConst OpKind = iota
	OpFloatConst
	OpPtrNullConst
	OpUndefConst

	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor

	OpICmpEq
	OpICmpNe
	OpICmpULt
	OpICmpULe
	OpICmpUGt
	OpICmpUGe
	OpICmpSLt
	OpICmpSLe
	OpICmpSGt
	OpICmpSGe

	OpFCmpEq
	OpFCmpNe
	OpFCmpLt
	OpFCmpLe
	OpFCmpGt
	OpFCmpGe

	OpTrunc
	OpZExt
	OpSExt
	OpFPExt
	OpFPTrunc
	OpFPToInt
	OpIntToFP
	OpBitcast
	OpBitsToPtr
	OpPtrToBits

	OpAlloca
	OpLoad
	OpStore
	OpGetElementPtr
	OpMalloc
	OpFree

	OpMatch
	OpBranch
	OpPhi
	OpAssignment

	OpCall
	OpSelect

	OpVAStart
	OpVAArg
	OpVAEnd

	// OpMemStateMux merges or splits memory-state values. It never appears
	// in ingress LLIR; it is introduced while constructing the value-state
	// dependence graph and consumed by the load normal form.
	OpMemStateMux
)

// IsBinaryArithmetic reports whether k is one of the binary arithmetic ops.
func (k OpKind) IsBinaryArithmetic() bool {
	return k >= OpAdd && k <= OpXor
}

// IsIntCompare reports whether k is an integer comparison op.
func (k OpKind) IsIntCompare() bool {
	return k >= OpICmpEq && k <= OpICmpSGe
}

// IsFloatCompare reports whether k is a floating comparison op.
func (k OpKind) IsFloatCompare() bool {
	return k >= OpFCmpEq && k <= OpFCmpGe
}

// IsBranching reports whether k may terminate a basic block with more than
// one successor (spec §3 "branch-producing TACs"). match merely computes a
// control-typed predicate value; branch is the terminator that consumes it
// and jumps to one of its Successors out-edges.
func (k OpKind) IsBranching() bool {
	return k == OpBranch
}

func (k OpKind) String() string {
	names := map[OpKind]string{
		OpIntConst: "int_const", OpFloatConst: "float_const", OpPtrNullConst: "ptr_null", OpUndefConst: "undef",
		OpAdd: "add", OpSub: "sub", OpMul: "mul", OpUDiv: "udiv", OpSDiv: "sdiv", OpURem: "urem", OpSRem: "srem",
		OpShl: "shl", OpLShr: "lshr", OpAShr: "ashr", OpAnd: "and", OpOr: "or", OpXor: "xor",
		OpICmpEq: "eq", OpICmpNe: "ne", OpICmpULt: "ult", OpICmpULe: "ule", OpICmpUGt: "ugt", OpICmpUGe: "uge",
		OpICmpSLt: "slt", OpICmpSLe: "sle", OpICmpSGt: "sgt", OpICmpSGe: "sge",
		OpFCmpEq: "feq", OpFCmpNe: "fne", OpFCmpLt: "flt", OpFCmpLe: "fle", OpFCmpGt: "fgt", OpFCmpGe: "fge",
		OpTrunc: "trunc", OpZExt: "zext", OpSExt: "sext", OpFPExt: "fext", OpFPTrunc: "ftrunc",
		OpFPToInt: "fptoi", OpIntToFP: "itofp", OpBitcast: "bitcast", OpBitsToPtr: "bits2ptr", OpPtrToBits: "ptr2bits",
		OpAlloca: "alloca", OpLoad: "load", OpStore: "store", OpGetElementPtr: "getelementptr",
		OpMalloc: "malloc", OpFree: "free",
		OpMatch: "match", OpBranch: "branch", OpPhi: "phi", OpAssignment: "assignment",
		OpCall: "call", OpSelect: "select",
		OpVAStart: "va_start", OpVAArg: "va_arg", OpVAEnd: "va_end",
		OpMemStateMux: "memstatemux",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "op?"
}

// MatchMapping maps a discriminant value to an alternative index for a
// match operation (spec §4.1 dispatcher blocks).
type MatchMapping map[uint64]uint32

// Operation is the tagged-union payload for one TAC. Exactly the fields
// relevant to Kind are populated; callers pattern-match on Kind.
type Operation struct {
	Kind OpKind

	// OpIntConst / bit-width carrying ops (shl amount width, etc.)
	Bits uint32
	// OpIntConst
	IntValue uint64
	// OpFloatConst
	FloatValue float64

	// OpMatch: mapping + alternative count; Default is the alternative
	// selected when no mapping entry matches the discriminant.
	Mapping      MatchMapping
	Alternatives uint32
	Default      uint32

	// OpBranch: number of successors (indexed at the source, spec §3).
	Successors uint32

	// OpGetElementPtr / OpAlloca / OpMalloc: the type being indexed/allocated.
	ElemType types.Type

	// OpCall: callee is direct (function variable) vs indirect (pointer value)
	// is determined structurally by the TAC's first input; Variadic records
	// whether the call site passes excess arguments (spec Open Question
	// "Varargs in direct-call points-to").
	Variadic bool
}
