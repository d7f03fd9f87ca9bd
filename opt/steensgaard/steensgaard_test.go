package steensgaard

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/jlm-go/rvsdgc/build"
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/ipgraph"
	"github.com/jlm-go/rvsdgc/ir/types"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// storeLoadModule builds E1: %p = alloca i32; store 42, %p; %v = load %p.
func storeLoadModule(t *testing.T) *rvsdg.Module {
	t.Helper()
	p := cfg.NewVariable("p", types.Pointer(types.Int(32)))
	c42 := cfg.NewVariable("c42", types.Int(32))
	v := cfg.NewVariable("v", types.Int(32))
	st0 := cfg.NewVariable("st0", types.Memory())
	st1 := cfg.NewVariable("st1", types.Memory())

	body := cfg.New(nil, []*cfg.Variable{v})
	b := body.NewBlock()
	b.Block.AppendIntConstant(32, 42, c42)
	b.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpAlloca, ElemType: types.Int(32)},
		nil, []*cfg.Variable{p, st0}))
	b.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpStore},
		[]*cfg.Variable{p, c42, st0}, []*cfg.Variable{st1}))
	b.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpLoad},
		[]*cfg.Variable{p, st1}, []*cfg.Variable{v}))
	body.Entry.AddOutEdge(b)
	b.AddOutEdge(body.Exit)

	m := ipgraph.New("e1.ll", "", "")
	m.IPG.Add(ipgraph.NewFunction("f", types.Func(nil, []types.Type{types.Int(32)}, false),
		types.External, body))

	out, err := build.Module(m)
	require.NoError(t, err)
	require.NoError(t, out.Check())
	return out
}

func classByPrefix(g *Graph, prefix string) *Class {
	for i := range g.Classes {
		for _, m := range g.Classes[i].Members {
			if strings.HasPrefix(m, prefix) {
				return &g.Classes[i]
			}
		}
	}
	return nil
}

func classByID(g *Graph, id string) *Class {
	for i := range g.Classes {
		if g.Classes[i].ID == id {
			return &g.Classes[i]
		}
	}
	return nil
}

func TestStoreLoad(t *testing.T) {
	m := storeLoadModule(t)

	g, err := Run(m)
	require.NoError(t, err)

	alloca := classByPrefix(g, "alloca:o0")
	require.NotNil(t, alloca, "the alloca address has a class")
	require.NotEmpty(t, alloca.PointsTo, "the address points at its contents")

	pointee := classByID(g, alloca.PointsTo)
	require.NotNil(t, pointee)

	// The pointee class holds both the stored constant and the loaded
	// value.
	var hasConst, hasLoad bool
	for _, member := range pointee.Members {
		if strings.HasPrefix(member, "int_const") {
			hasConst = true
		}
		if strings.HasPrefix(member, "load") {
			hasLoad = true
		}
	}
	assert.True(t, hasConst)
	assert.True(t, hasLoad)
}

func TestIdempotence(t *testing.T) {
	m := storeLoadModule(t)

	first, err := Run(m)
	require.NoError(t, err)
	second, err := Run(m)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String(),
		"re-running the analysis yields identical classes and edges")
}

// indirectCallModule builds E5: a function pointer argument is invoked with
// a pointer argument.
func indirectCallModule(t *testing.T) *rvsdg.Module {
	t.Helper()
	fnPtr := types.Pointer(types.Func([]types.Type{types.Pointer(types.Int(32))},
		[]types.Type{types.Int(32)}, false))
	f := cfg.NewVariable("f", fnPtr)
	p := cfg.NewVariable("p", types.Pointer(types.Int(32)))
	r := cfg.NewVariable("r", types.Int(32))

	body := cfg.New([]*cfg.Variable{f, p}, []*cfg.Variable{r})
	b := body.NewBlock()
	b.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpCall},
		[]*cfg.Variable{f, p}, []*cfg.Variable{r}))
	body.Entry.AddOutEdge(b)
	b.AddOutEdge(body.Exit)

	m := ipgraph.New("e5.ll", "", "")
	m.IPG.Add(ipgraph.NewFunction("invoke",
		types.Func([]types.Type{fnPtr, types.Pointer(types.Int(32))}, []types.Type{types.Int(32)}, false),
		types.External, body))

	out, err := build.Module(m)
	require.NoError(t, err)
	require.NoError(t, out.Check())
	return out
}

func TestIndirectCall(t *testing.T) {
	m := indirectCallModule(t)

	a := New(m)
	a.Analyze()
	g, err := a.Graph()
	require.NoError(t, err)

	anyClass := classByPrefix(g, "ANY")
	require.NotNil(t, anyClass)

	// The pointer argument's class must reach ANY through its points-to
	// successor.
	lambda := m.Graph.Nodes[0]
	require.Equal(t, rvsdg.NodeLambda, lambda.Kind)
	params := lambda.Parameters()
	pArg := params[1]

	id := a.find(a.loc(pArg))
	require.NotEqual(t, none, a.pointsTo[id], "argument escapes through the call")
	assert.Equal(t, a.find(a.any), a.find(a.pointsTo[id]))
}

func TestDirectCallJoinsArguments(t *testing.T) {
	// callee(q) stores through q; caller passes an alloca.
	q := cfg.NewVariable("q", types.Pointer(types.Int(32)))
	zero := cfg.NewVariable("zero", types.Int(32))
	st0 := cfg.NewVariable("st0", types.Memory())
	st1 := cfg.NewVariable("st1", types.Memory())

	calleeBody := cfg.New([]*cfg.Variable{q, st0}, []*cfg.Variable{st1})
	ccb := calleeBody.NewBlock()
	ccb.Block.AppendIntConstant(32, 0, zero)
	ccb.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpStore},
		[]*cfg.Variable{q, zero, st0}, []*cfg.Variable{st1}))
	calleeBody.Entry.AddOutEdge(ccb)
	ccb.AddOutEdge(calleeBody.Exit)

	calleeType := types.Func([]types.Type{types.Pointer(types.Int(32)), types.Memory()},
		[]types.Type{types.Memory()}, false)
	callee := ipgraph.NewFunction("clear", calleeType, types.Internal, calleeBody)

	p := cfg.NewVariable("p", types.Pointer(types.Int(32)))
	cst0 := cfg.NewVariable("cst0", types.Memory())
	cst1 := cfg.NewVariable("cst1", types.Memory())
	callerBody := cfg.New(nil, []*cfg.Variable{cst1})
	kb := callerBody.NewBlock()
	kb.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpAlloca, ElemType: types.Int(32)},
		nil, []*cfg.Variable{p, cst0}))
	kb.Block.Append(cfg.NewTAC(cfg.Operation{Kind: cfg.OpCall},
		[]*cfg.Variable{callee.Value, p, cst0}, []*cfg.Variable{cst1}))
	callerBody.Entry.AddOutEdge(kb)
	kb.AddOutEdge(callerBody.Exit)

	caller := ipgraph.NewFunction("main", types.Func(nil, []types.Type{types.Memory()}, false),
		types.External, callerBody)
	caller.DependsOn(callee)

	ipm := ipgraph.New("direct.ll", "", "")
	ipm.IPG.Add(caller)
	ipm.IPG.Add(callee)

	m, err := build.Module(ipm)
	require.NoError(t, err)
	require.NoError(t, m.Check())

	a := New(m)
	a.Analyze()

	// The caller's alloca and the callee's q parameter share a class.
	var alloca *rvsdg.Node
	var calleeLambda *rvsdg.Node
	for _, n := range m.Graph.Nodes {
		if n.Kind == rvsdg.NodeLambda {
			if n.Name == "clear" {
				calleeLambda = n
			}
			for _, inner := range n.Subregions[0].Nodes {
				if inner.Kind == rvsdg.NodeSimple && inner.Op.Kind == cfg.OpAlloca {
					alloca = inner
				}
			}
		}
	}
	require.NotNil(t, alloca)
	require.NotNil(t, calleeLambda)

	qParam := calleeLambda.Parameters()[0]
	assert.Equal(t, a.find(a.loc(alloca.Outputs[0])), a.find(a.loc(qParam)),
		"direct call unifies argument and parameter")
}

func TestBitsToPtrWarning(t *testing.T) {
	m := rvsdg.NewModule("warn.ll", "", "")
	bits := rvsdg.NewIntConstant(m.Graph, 64, 0xdead)
	conv := rvsdg.NewSimple(m.Graph, cfg.Operation{Kind: cfg.OpBitsToPtr})
	conv.AddInput(types.Int(64), bits)
	conv.AddOutput(types.Pointer(types.Int(8)))

	a := New(m)
	a.Analyze()

	require.NotEmpty(t, a.Warnings())
	assert.Contains(t, a.Warnings()[0].String(), "bits-to-pointer")
	assert.Equal(t, a.find(a.any), a.find(a.loc(conv.Outputs[0])))
}

// TestStoreLoadExpectedClasses pins the E1 class structure with a YAML
// fixture: member labels are matched by prefix since the disambiguating
// ordinals depend on traversal position.
func TestStoreLoadExpectedClasses(t *testing.T) {
	expectYaml := `
- members:
    - alloca:o0
  pointsTo:
    - int_const:o0
    - load:o0
`
	type expected struct {
		Members  []string `yaml:"members"`
		PointsTo []string `yaml:"pointsTo"`
	}
	var fixtures []expected
	require.NoError(t, yaml.Unmarshal([]byte(expectYaml), &fixtures))

	m := storeLoadModule(t)
	g, err := Run(m)
	require.NoError(t, err)

	for _, fixture := range fixtures {
		class := classByPrefix(g, fixture.Members[0])
		require.NotNil(t, class, fixture.Members[0])
		for _, prefix := range fixture.Members {
			found := false
			for _, member := range class.Members {
				if strings.HasPrefix(member, prefix) {
					found = true
				}
			}
			assert.True(t, found, "class misses member %v", prefix)
		}
		if len(fixture.PointsTo) == 0 {
			assert.Empty(t, class.PointsTo)
			continue
		}
		pointee := classByID(g, class.PointsTo)
		require.NotNil(t, pointee)
		for _, prefix := range fixture.PointsTo {
			found := false
			for _, member := range pointee.Members {
				if strings.HasPrefix(member, prefix) {
					found = true
				}
			}
			assert.True(t, found, "pointee class misses member %v", prefix)
		}
	}
}

func TestDumpFormat(t *testing.T) {
	m := storeLoadModule(t)
	g, err := Run(m)
	require.NoError(t, err)

	dump := g.String()
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	require.Greater(t, len(lines), 1)
	assert.Contains(t, lines[0], "points-to graph")
	for _, line := range lines[1:] {
		assert.Regexp(t, `^set [0-9a-f]{16} \{ .+ \} -> ([0-9a-f]{16}|∅)$`, line)
	}
}

func TestDumpWrite(t *testing.T) {
	m := storeLoadModule(t)
	g, err := Run(m)
	require.NoError(t, err)

	fs := afs.New()
	URL := "mem://localhost/steensgaard/e1.txt"
	ctx := context.Background()
	require.NoError(t, g.Write(ctx, fs, URL))

	data, err := fs.DownloadWithURL(ctx, URL)
	require.NoError(t, err)
	assert.Equal(t, g.String(), string(data))
}
