package build

import (
	"fmt"
	"sort"

	"github.com/jlm-go/rvsdgc/ir/agg"
	"github.com/jlm-go/rvsdgc/ir/annotation"
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/ir/diag"
	"github.com/jlm-go/rvsdgc/ir/ipgraph"
	"github.com/jlm-go/rvsdgc/ir/types"
	"github.com/jlm-go/rvsdgc/restructure"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// funcCtx carries the per-function translation state shared across the
// recursive walk of the aggregation tree.
type funcCtx struct {
	name   string
	lambda *rvsdg.Node
	dm     annotation.DemandMap

	// repeat maps each loop-tail basic block to the branch alternative
	// that re-enters its loop, from the restructurer's back-edge set.
	repeat map[*cfg.BasicBlock]int

	// order assigns each variable its first-appearance position, giving
	// entry/loop/exit variable materialisation a deterministic sequence.
	order map[*cfg.Variable]int
}

// convertFunction lowers one function body to a lambda node in region.
func convertFunction(n *ipgraph.Node, region *rvsdg.Region, sc *scope) (*rvsdg.Node, error) {
	body := n.Body
	entryAttr := body.Entry.Entry
	exitAttr := body.Exit.Exit

	backEdges, err := restructure.Restructure(body)
	if err != nil {
		return nil, err
	}
	tree, err := aggregate(body)
	if err != nil {
		return nil, err
	}
	dm := annotation.Annotate(tree, nil)

	argTypes := make([]types.Type, len(entryAttr.Arguments))
	for i, v := range entryAttr.Arguments {
		argTypes[i] = v.Type
	}
	resultTypes := make([]types.Type, len(exitAttr.Results))
	for i, v := range exitAttr.Results {
		resultTypes[i] = v.Type
	}
	fnType := types.Func(argTypes, resultTypes, n.FuncType.Variadic())

	lambda := rvsdg.NewLambda(region, n.Name, n.Linkage, types.Pointer(fnType))

	ctx := &funcCtx{
		name:   n.Name,
		lambda: lambda,
		dm:     dm,
		repeat: map[*cfg.BasicBlock]int{},
		order:  map[*cfg.Variable]int{},
	}
	for _, be := range backEdges {
		if be.Source.Kind != cfg.NodeBlock {
			return nil, diag.Invariantf("back-edge-source", "back edge does not originate from a basic block")
		}
		ctx.repeat[be.Source.Block] = be.Index
	}

	used := map[*cfg.Variable]bool{}
	collectTreeUses(tree, used)
	for _, v := range exitAttr.Results {
		used[v] = true
	}

	vmap := map[*cfg.Variable]rvsdg.Origin{}
	for _, g := range sc.referenced(used) {
		ctx.note(g)
		vmap[g] = lambda.AddContextVar(g.Type, sc.values[g])
	}
	orderVariables(tree, ctx)

	if err := ctx.convert(tree, lambda.Subregions[0], vmap); err != nil {
		return nil, err
	}
	return lambda, nil
}

// note assigns v the next ordering position unless it already has one.
func (ctx *funcCtx) note(v *cfg.Variable) {
	if _, ok := ctx.order[v]; !ok {
		ctx.order[v] = len(ctx.order)
	}
}

// orderVariables walks the tree in-order, assigning every variable its
// first-appearance position.
func orderVariables(node *agg.Node, ctx *funcCtx) {
	switch node.Kind {
	case agg.KindEntry:
		for _, v := range node.Entry.Arguments {
			ctx.note(v)
		}
	case agg.KindExit:
		for _, v := range node.Exit.Results {
			ctx.note(v)
		}
	case agg.KindBlock:
		for _, t := range node.Block.TACs {
			for _, v := range t.Inputs {
				ctx.note(v)
			}
			for _, v := range t.Results {
				ctx.note(v)
			}
		}
	default:
		for _, c := range node.Children {
			orderVariables(c, ctx)
		}
	}
}

func collectTreeUses(node *agg.Node, used map[*cfg.Variable]bool) {
	if node.Kind == agg.KindBlock {
		for _, t := range node.Block.TACs {
			for _, v := range t.Inputs {
				used[v] = true
			}
		}
		return
	}
	for _, c := range node.Children {
		collectTreeUses(c, used)
	}
}

// sorted returns the members of s ordered by first appearance.
func (ctx *funcCtx) sorted(s annotation.VariableSet) []*cfg.Variable {
	vars := make([]*cfg.Variable, 0, len(s))
	for v := range s {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		oi, oki := ctx.order[vars[i]]
		oj, okj := ctx.order[vars[j]]
		if oki && okj && oi != oj {
			return oi < oj
		}
		if oki != okj {
			return oki
		}
		return vars[i].Name < vars[j].Name
	})
	return vars
}

// convert translates one aggregation tree node into region, threading the
// value map from live variables to RVSDG origins.
func (ctx *funcCtx) convert(node *agg.Node, region *rvsdg.Region, vmap map[*cfg.Variable]rvsdg.Origin) error {
	switch node.Kind {
	case agg.KindEntry:
		for _, v := range node.Entry.Arguments {
			vmap[v] = ctx.lambda.AddParameter(v.Type)
		}
		return nil

	case agg.KindExit:
		for _, v := range node.Exit.Results {
			ctx.lambda.SetResult(v.Type, valueOf(region, vmap, v))
		}
		return nil

	case agg.KindBlock:
		return ctx.convertBlock(node.Block, region, vmap)

	case agg.KindLinear:
		if err := ctx.convert(node.Children[0], region, vmap); err != nil {
			return err
		}
		return ctx.convert(node.Children[1], region, vmap)

	case agg.KindBranch:
		return ctx.convertBranch(node, region, vmap)

	case agg.KindLoop:
		return ctx.convertLoop(node, region, vmap)

	default:
		return diag.Translation(ctx.name, fmt.Errorf("unknown aggregation node kind %d", node.Kind))
	}
}

// convertBlock translates a basic block's TACs into simple nodes.
// Assignments only update the value map; branches are structural and
// consumed by the enclosing gamma/theta conversion.
func (ctx *funcCtx) convertBlock(bb *cfg.BasicBlock, region *rvsdg.Region, vmap map[*cfg.Variable]rvsdg.Origin) error {
	for i, t := range bb.TACs {
		switch {
		case t.IsAssignment():
			vmap[t.Dest()] = valueOf(region, vmap, t.Src())

		case t.Op.Kind == cfg.OpBranch:
			// handled structurally by the gamma/theta this block feeds

		case t.Op.Kind == cfg.OpMatch:
			op, err := ctx.orientMatch(bb, i, t)
			if err != nil {
				return err
			}
			node := rvsdg.NewSimple(region, op)
			node.AddInput(t.Inputs[0].Type, valueOf(region, vmap, t.Inputs[0]))
			vmap[t.Results[0]] = node.AddOutput(t.Results[0].Type)

		default:
			if t.Op.Kind < cfg.OpIntConst || t.Op.Kind > cfg.OpMemStateMux {
				return diag.Translation(ctx.name, fmt.Errorf("unknown operation kind %d", t.Op.Kind))
			}
			node := rvsdg.NewSimple(region, t.Op)
			for _, in := range t.Inputs {
				node.AddInput(in.Type, valueOf(region, vmap, in))
			}
			for _, r := range t.Results {
				vmap[r] = node.AddOutput(r.Type)
			}
		}
	}
	return nil
}

// orientMatch returns t's operation, with alternatives 0 and 1 swapped when
// this match feeds the tail branch of a loop whose back edge re-enters
// through alternative 0: theta semantics fix alternative 1 as "repeat", and
// the restructurer's back-edge set says which alternative the CFG used.
func (ctx *funcCtx) orientMatch(bb *cfg.BasicBlock, i int, t *cfg.TAC) (cfg.Operation, error) {
	op := t.Op
	repeatAlt, isTail := ctx.repeat[bb]
	last := bb.LastTAC()
	feedsTailBranch := isTail && i == len(bb.TACs)-2 &&
		last != nil && last.Op.Kind == cfg.OpBranch && last.Inputs[0] == t.Results[0]
	if !feedsTailBranch || repeatAlt == 1 {
		return op, nil
	}
	if op.Alternatives != 2 {
		return op, diag.Invariantf("loop-tail-arity",
			"loop tail branches %d ways; back edge cannot be discriminated", op.Alternatives)
	}
	swapped := cfg.MatchMapping{}
	for value, alt := range op.Mapping {
		swapped[value] = 1 - alt
	}
	op.Mapping = swapped
	op.Default = 1 - op.Default
	return op, nil
}

// rightmostBlock returns the basic block an in-order traversal of n visits
// last: the block carrying the subtree's terminating branch.
func rightmostBlock(n *agg.Node) *cfg.BasicBlock {
	for {
		switch n.Kind {
		case agg.KindBlock:
			return n.Block
		case agg.KindLinear:
			n = n.Children[1]
		default:
			return nil
		}
	}
}

// convertBranch translates Branch(H; c1..ck) into a gamma node: H is
// translated up to its terminating match, whose value becomes the
// predicate; cases_top variables enter through entry vars and cases_bottom
// variables leave through exit vars.
func (ctx *funcCtx) convertBranch(node *agg.Node, region *rvsdg.Region, vmap map[*cfg.Variable]rvsdg.Origin) error {
	head := node.Head()
	if err := ctx.convert(head, region, vmap); err != nil {
		return err
	}

	tb := rightmostBlock(head)
	if tb == nil || tb.LastTAC() == nil || tb.LastTAC().Op.Kind != cfg.OpBranch {
		return diag.Invariantf("branch-head", "branch head does not terminate in a branch instruction")
	}
	branch := tb.LastTAC()
	alts := node.Alternatives()
	if int(branch.Op.Successors) != len(alts) {
		return diag.Invariantf("cfg-branch-arity", "branch has %d successors for %d alternatives",
			branch.Op.Successors, len(alts))
	}
	pred, ok := vmap[branch.Inputs[0]]
	if !ok {
		return diag.Translation(ctx.name, fmt.Errorf("branch predicate %s is not defined", branch.Inputs[0]))
	}

	gamma := rvsdg.NewGamma(region, pred, len(alts))
	demand := ctx.dm[node]

	altVmaps := make([]map[*cfg.Variable]rvsdg.Origin, len(alts))
	for i := range alts {
		altVmaps[i] = map[*cfg.Variable]rvsdg.Origin{}
	}
	for _, v := range ctx.sorted(demand.CasesTop) {
		args := gamma.AddEntryVar(v.Type, valueOf(region, vmap, v))
		for i := range alts {
			altVmaps[i][v] = args[i]
		}
	}

	for i, alt := range alts {
		if err := ctx.convert(alt, gamma.Subregions[i], altVmaps[i]); err != nil {
			return err
		}
	}

	for _, v := range ctx.sorted(demand.CasesBottom) {
		per := make([]rvsdg.Origin, len(alts))
		for i := range alts {
			per[i] = valueOf(gamma.Subregions[i], altVmaps[i], v)
		}
		vmap[v] = gamma.AddExitVar(v.Type, per)
	}
	return nil
}

// convertLoop translates Loop(body) into a theta node: every variable in
// the loop's demand top becomes a loop var, and the tail block's match
// value becomes the repeat predicate.
func (ctx *funcCtx) convertLoop(node *agg.Node, region *rvsdg.Region, vmap map[*cfg.Variable]rvsdg.Origin) error {
	demand := ctx.dm[node]
	vars := ctx.sorted(demand.Top)

	theta := rvsdg.NewTheta(region)
	inner := map[*cfg.Variable]rvsdg.Origin{}
	outs := make([]*rvsdg.Output, len(vars))
	for i, v := range vars {
		arg, out := theta.AddLoopVar(v.Type, valueOf(region, vmap, v))
		inner[v] = arg
		outs[i] = out
	}

	if err := ctx.convert(node.Body(), theta.Body(), inner); err != nil {
		return err
	}

	tb := rightmostBlock(node.Body())
	if tb == nil || tb.LastTAC() == nil || tb.LastTAC().Op.Kind != cfg.OpBranch {
		return diag.Invariantf("loop-tail", "loop body does not terminate in a branch instruction")
	}
	if _, ok := ctx.repeat[tb]; !ok {
		return diag.Invariantf("loop-back-edge",
			"loop tail is not the source of a recorded back edge")
	}
	pred, ok := inner[tb.LastTAC().Inputs[0]]
	if !ok {
		return diag.Translation(ctx.name, fmt.Errorf("loop predicate %s is not defined", tb.LastTAC().Inputs[0]))
	}

	theta.SetPredicate(pred)
	for _, v := range vars {
		theta.SetLoopResult(v.Type, valueOf(theta.Body(), inner, v))
	}
	for i, v := range vars {
		vmap[v] = outs[i]
	}
	return nil
}
