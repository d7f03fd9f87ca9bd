// Package types implements the closed set of value types shared by the LLIR
// and RVSDG data models (spec "Types").
package types

import (
	"fmt"
	"strings"
)

// Kind tags the closed set of representable value types.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindPointer
	KindArray
	KindStruct
	KindFunc
	KindControl
	KindMemory
	KindLoop
)

// FloatWidth is the closed set of floating-point precisions.
type FloatWidth int

const (
	Half FloatWidth = iota
	Single
	Double
)

func (w FloatWidth) String() string {
	switch w {
	case Half:
		return "half"
	case Single:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("float?%d", int(w))
	}
}

// Type is a value-equal structural type descriptor. Struct identity is
// carried by a shared *StructDecl handle so recursive structs compare by
// declaration rather than by structural expansion (spec "struct identity is
// by a shared declaration handle to permit recursive structs").
type Type struct {
	kind Kind

	// KindInt
	bits uint32

	// KindFloat
	float FloatWidth

	// KindPointer / KindArray
	elem *Type

	// KindArray
	length uint64

	// KindStruct
	decl *StructDecl

	// KindFunc
	params   []Type
	results  []Type
	variadic bool

	// KindControl
	alternatives uint32
}

// StructDecl is the shared, named-or-anonymous declaration handle backing
// every struct Type built from it. Two Types built from the same *StructDecl
// are the same struct even while the declaration is still being populated,
// which is what lets a struct contain a pointer to itself.
type StructDecl struct {
	Name   string
	Packed bool
	Fields []Type
}

func Int(bits uint32) Type        { return Type{kind: KindInt, bits: bits} }
func Float(w FloatWidth) Type     { return Type{kind: KindFloat, float: w} }
func Pointer(elem Type) Type      { return Type{kind: KindPointer, elem: &elem} }
func Array(n uint64, elem Type) Type {
	return Type{kind: KindArray, length: n, elem: &elem}
}
func Struct(decl *StructDecl) Type { return Type{kind: KindStruct, decl: decl} }
func Func(params, results []Type, variadic bool) Type {
	return Type{kind: KindFunc, params: append([]Type(nil), params...), results: append([]Type(nil), results...), variadic: variadic}
}
func Control(alternatives uint32) Type { return Type{kind: KindControl, alternatives: alternatives} }

// Memory is the single opaque memory-state type.
func Memory() Type { return Type{kind: KindMemory} }

// Loop is the single opaque loop-state type.
func Loop() Type { return Type{kind: KindLoop} }

func (t Type) Kind() Kind                { return t.kind }
func (t Type) IsInt() bool               { return t.kind == KindInt }
func (t Type) IsFloat() bool             { return t.kind == KindFloat }
func (t Type) IsPointer() bool           { return t.kind == KindPointer }
func (t Type) IsArray() bool             { return t.kind == KindArray }
func (t Type) IsStruct() bool            { return t.kind == KindStruct }
func (t Type) IsFunc() bool              { return t.kind == KindFunc }
func (t Type) IsControl() bool           { return t.kind == KindControl }
func (t Type) IsMemory() bool            { return t.kind == KindMemory }
func (t Type) IsLoop() bool              { return t.kind == KindLoop }
func (t Type) Bits() uint32              { return t.bits }
func (t Type) FloatWidth() FloatWidth    { return t.float }
func (t Type) Alternatives() uint32      { return t.alternatives }
func (t Type) ArrayLength() uint64       { return t.length }
func (t Type) StructDecl() *StructDecl   { return t.decl }
func (t Type) Params() []Type            { return t.params }
func (t Type) Results() []Type           { return t.results }
func (t Type) Variadic() bool            { return t.variadic }

// Elem returns the pointee/element type of a pointer or array type.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Equal implements the value-equality relation described in spec §3: types
// compare structurally, except structs, which compare by shared *StructDecl
// identity so that recursive declarations never force infinite recursion.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindInt:
		return t.bits == o.bits
	case KindFloat:
		return t.float == o.float
	case KindPointer, KindArray:
		if t.kind == KindArray && t.length != o.length {
			return false
		}
		return t.Elem().Equal(o.Elem())
	case KindStruct:
		return t.decl == o.decl
	case KindFunc:
		if t.variadic != o.variadic || len(t.params) != len(o.params) || len(t.results) != len(o.results) {
			return false
		}
		for i := range t.params {
			if !t.params[i].Equal(o.params[i]) {
				return false
			}
		}
		for i := range t.results {
			if !t.results[i].Equal(o.results[i]) {
				return false
			}
		}
		return true
	case KindControl:
		return t.alternatives == o.alternatives
	case KindMemory, KindLoop:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	switch t.kind {
	case KindInt:
		return fmt.Sprintf("i%d", t.bits)
	case KindFloat:
		return t.float.String()
	case KindPointer:
		return t.Elem().String() + "*"
	case KindArray:
		return fmt.Sprintf("[%d x %s]", t.length, t.Elem().String())
	case KindStruct:
		if t.decl != nil && t.decl.Name != "" {
			return "%" + t.decl.Name
		}
		return "%anon"
	case KindFunc:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.String()
		}
		if t.variadic {
			parts = append(parts, "...")
		}
		results := make([]string, len(t.results))
		for i, r := range t.results {
			results[i] = r.String()
		}
		return fmt.Sprintf("(%s) -> (%s)", strings.Join(parts, ", "), strings.Join(results, ", "))
	case KindControl:
		return fmt.Sprintf("ctl(%d)", t.alternatives)
	case KindMemory:
		return "mem"
	case KindLoop:
		return "loop"
	default:
		return "?"
	}
}

// PointerToFuncType reports whether t is a pointer to a function type, the
// invariant required of a lambda node's output (spec §3 "Port-level
// invariants").
func PointerToFuncType(t Type) bool {
	return t.IsPointer() && t.Elem().IsFunc()
}
