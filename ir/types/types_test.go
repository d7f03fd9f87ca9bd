package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeEquality(t *testing.T) {
	var testCases = []struct {
		description string
		a, b        Type
		expect      bool
	}{
		{
			description: "same integer width",
			a:           Int(32),
			b:           Int(32),
			expect:      true,
		},
		{
			description: "different integer width",
			a:           Int(32),
			b:           Int(64),
			expect:      false,
		},
		{
			description: "float widths",
			a:           Float(Single),
			b:           Float(Double),
			expect:      false,
		},
		{
			description: "pointers compare by pointee",
			a:           Pointer(Int(8)),
			b:           Pointer(Int(8)),
			expect:      true,
		},
		{
			description: "arrays compare by length and element",
			a:           Array(4, Int(32)),
			b:           Array(5, Int(32)),
			expect:      false,
		},
		{
			description: "function types compare by signature",
			a:           Func([]Type{Int(32)}, []Type{Int(1)}, false),
			b:           Func([]Type{Int(32)}, []Type{Int(1)}, false),
			expect:      true,
		},
		{
			description: "variadic marker distinguishes",
			a:           Func([]Type{Int(32)}, nil, true),
			b:           Func([]Type{Int(32)}, nil, false),
			expect:      false,
		},
		{
			description: "control types compare by alternative count",
			a:           Control(2),
			b:           Control(3),
			expect:      false,
		},
		{
			description: "memory state is a singleton",
			a:           Memory(),
			b:           Memory(),
			expect:      true,
		},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.a.Equal(testCase.b), testCase.description)
		assert.Equal(t, testCase.expect, testCase.b.Equal(testCase.a), testCase.description)
	}
}

func TestStructIdentity(t *testing.T) {
	node := &StructDecl{Name: "node"}
	// A recursive struct: struct node { i32; node* }
	node.Fields = []Type{Int(32), Pointer(Struct(node))}

	a := Struct(node)
	b := Struct(node)
	assert.True(t, a.Equal(b), "same declaration handle")

	other := &StructDecl{Name: "node", Fields: node.Fields}
	assert.False(t, a.Equal(Struct(other)), "structurally identical but distinct declaration")
}

func TestPointerToFuncType(t *testing.T) {
	fn := Func([]Type{Int(32)}, []Type{Int(32)}, false)
	assert.True(t, PointerToFuncType(Pointer(fn)))
	assert.False(t, PointerToFuncType(fn))
	assert.False(t, PointerToFuncType(Pointer(Int(8))))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "i32", Int(32).String())
	assert.Equal(t, "i1*", Pointer(Int(1)).String())
	assert.Equal(t, "[8 x double]", Array(8, Float(Double)).String())
	assert.Equal(t, "ctl(2)", Control(2).String())
	assert.Equal(t, "(i32, ...) -> (i8)", Func([]Type{Int(32)}, []Type{Int(8)}, true).String())
}
