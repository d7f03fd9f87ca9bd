package rvsdg

import (
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/types"
)

// NormalForm is the rewrite discipline attached to one operation kind.
// Mutable gates whether the reduction pass may rewrite nodes of that kind at
// all; the Enable* flags toggle the individual load reductions and are only
// consulted on load nodes. Reductions that could change observable memory
// behaviour start out disabled.
type NormalForm struct {
	Mutable bool

	EnableLoadMux         bool
	EnableLoadAlloca      bool
	EnableMultipleOrigin  bool
	EnableLoadStoreState  bool
	EnableLoadStoreAlloca bool
}

// Module is an RVSDG graph plus the target metadata the egress collaborator
// consumes. The top-level region's arguments are the module's imports
// (declaration-only functions and globals); its nodes are lambdas, deltas
// and phis.
type Module struct {
	Graph *Region

	SourceFilename string
	TargetTriple   string
	DataLayout     string

	// ImportNames records a human-readable name per top-level region
	// argument, parallel to Graph.Arguments.
	ImportNames []string

	nfs map[cfg.OpKind]*NormalForm
}

// NewModule creates an empty module with a fresh top-level region.
func NewModule(sourceFilename, targetTriple, dataLayout string) *Module {
	return &Module{
		Graph:          NewRegion(nil),
		SourceFilename: sourceFilename,
		TargetTriple:   targetTriple,
		DataLayout:     dataLayout,
	}
}

// NormalForm returns the normal form attached to operation kind k, creating
// it on first use. Flags hang off the module keyed by kind, not off
// individual nodes.
func (m *Module) NormalForm(k cfg.OpKind) *NormalForm {
	if m.nfs == nil {
		m.nfs = map[cfg.OpKind]*NormalForm{}
	}
	nf, ok := m.nfs[k]
	if !ok {
		nf = &NormalForm{Mutable: true}
		m.nfs[k] = nf
	}
	return nf
}

// AddImport declares an external value (a declaration-only function or
// global) as a named top-level region argument.
func (m *Module) AddImport(name string, t types.Type) *Argument {
	a := m.Graph.AddArgument(t)
	m.ImportNames = append(m.ImportNames, name)
	return a
}

// ImportName returns the declared name of a top-level region argument, or
// the empty string for arguments of nested regions.
func (m *Module) ImportName(a *Argument) string {
	if a.Region != m.Graph || a.Index >= len(m.ImportNames) {
		return ""
	}
	return m.ImportNames[a.Index]
}
