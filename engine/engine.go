// Package engine implements WTOEngine: the fixpoint driver that walks a
// function's weak topological ordering, applying plain joins up to
// WidenDelay iterations at each cycle head before switching to widening,
// then narrowing back down, per spec.md §4.6-§4.7.
package engine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/config"
	"github.com/cubicYYY/SVF/extapi"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/icfg/wto"
	"github.com/cubicYYY/SVF/interp"
	"github.com/cubicYYY/SVF/refine"
	"github.com/cubicYYY/SVF/state"
	"github.com/cubicYYY/SVF/stats"
)

// maxFixpointIters is a backstop against a WTO cycle that never reaches a
// widen or narrow fixpoint (which would indicate a bug in the transfer
// functions, since widening is designed to always terminate).
const maxFixpointIters = 64

// ErrAssertionFailed is the sentinel wrapped into Run's returned error
// whenever a checked assertion is unreached or disproved, so a caller can
// distinguish that finding from an internal/config error with errors.Is.
var ErrAssertionFailed = errors.New("assertion failed")

// Engine runs the analysis over a whole program reachable from one entry
// function.
type Engine struct {
	Config *config.Config
	ExtAPI extapi.Table
	Log    *logrus.Logger
	Stats  *stats.Stats

	defIndex    map[*icfg.Function]refine.DefIndex
	funcByAddr  map[address.Address]*icfg.Function
	assertSites map[*icfg.Node]bool
	assertSeen  map[*icfg.Node]bool
	failed      []string
}

// New builds an Engine ready to run, with a fresh Stats clock.
func New(cfg *config.Config, table extapi.Table) *Engine {
	return &Engine{
		Config:      cfg,
		ExtAPI:      table,
		Log:         logrus.New(),
		Stats:       stats.New(),
		defIndex:    map[*icfg.Function]refine.DefIndex{},
		funcByAddr:  map[address.Address]*icfg.Function{},
		assertSites: map[*icfg.Node]bool{},
		assertSeen:  map[*icfg.Node]bool{},
	}
}

// Run analyses prog starting from its entry, first executing globals's
// statements (if any) to seed the initial heap, then walking every function
// reachable through direct callsites. universe lists any additional
// functions reachable only by address (a function an Indirect callsite
// might target but that main never calls directly) so the dispatcher can
// still resolve a function pointer to them and count them in Stats. It
// returns a non-nil error, wrapped via pkg/errors, if any assertion is left
// unverified or disproved.
func (e *Engine) Run(ctx context.Context, prog *icfg.Function, globals *icfg.Node, universe []*icfg.Function) error {
	reachable := map[*icfg.Function]bool{}
	collectFunctions(prog, reachable)
	for _, fn := range universe {
		collectFunctions(fn, reachable)
	}
	for fn := range reachable {
		e.Stats.Functions++
		if !fn.Addr.IsNull() {
			e.funcByAddr[fn.Addr] = fn
		}
		for _, n := range fn.Nodes {
			if n.Callsite != nil && n.Callsite.ExternName == "svf_assert" {
				e.assertSites[n] = true
			}
		}
	}

	base := state.New(e.Config.MaxFieldLimit)
	if globals != nil {
		for _, stmt := range globals.Stmts {
			if err := interp.Exec(base, stmt, nil); err != nil {
				return errors.Wrap(err, "initializing globals")
			}
		}
	}

	if _, err := e.analyseFunction(ctx, prog, base); err != nil {
		return err
	}

	var missing []string
	for site := range e.assertSites {
		if !e.assertSeen[site] {
			missing = append(missing, fmt.Sprintf("node %d", site.ID))
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrAssertionFailed, "unverified assertion(s) never reached: %v", missing)
	}
	if len(e.failed) > 0 {
		return errors.Wrapf(ErrAssertionFailed, "assertion(s) not provably true: %v", e.failed)
	}
	return nil
}

func collectFunctions(fn *icfg.Function, seen map[*icfg.Function]bool) {
	if seen[fn] {
		return
	}
	seen[fn] = true
	for _, n := range fn.Nodes {
		if n.Callsite != nil && n.Callsite.Callee != nil {
			collectFunctions(n.Callsite.Callee, seen)
		}
	}
}

func (e *Engine) defIndexFor(fn *icfg.Function) refine.DefIndex {
	if idx, ok := e.defIndex[fn]; ok {
		return idx
	}
	idx := refine.BuildDefIndex(fn.Nodes)
	e.defIndex[fn] = idx
	return idx
}

// analyseFunction walks fn's WTO to a fixpoint and returns the joined state
// of its exit node(s).
func (e *Engine) analyseFunction(ctx context.Context, fn *icfg.Function, initial *state.State) (*state.State, error) {
	defIdx := e.defIndexFor(fn)
	trace := map[*icfg.Node]*state.State{fn.Entry: initial}
	comps := wto.Build(fn.Entry)
	if err := e.walk(ctx, fn, comps, trace, defIdx); err != nil {
		return nil, err
	}
	return exitState(fn, trace, e.Config.MaxFieldLimit), nil
}

func exitState(fn *icfg.Function, trace map[*icfg.Node]*state.State, maxFieldLimit int) *state.State {
	res := state.Bottom(maxFieldLimit)
	found := false
	for _, n := range fn.Nodes {
		if n.Kind != icfg.NodeExit {
			continue
		}
		if st, ok := trace[n]; ok {
			res, _ = state.Join(res, st)
			found = true
		}
	}
	if !found {
		return state.New(maxFieldLimit)
	}
	return res
}

func (e *Engine) walk(ctx context.Context, fn *icfg.Function, comps []wto.Component, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) error {
	for _, c := range comps {
		switch v := c.(type) {
		case wto.Singleton:
			if err := e.step(ctx, fn, v.Node, trace, defIdx); err != nil {
				return err
			}
		case wto.Cycle:
			if err := e.walkCycle(ctx, fn, v, trace, defIdx); err != nil {
				return err
			}
		default:
			return errors.Errorf("unhandled wto component %T", c)
		}
	}
	return nil
}

// mergeIn joins the refined states of node's intra-procedural predecessors.
// It also returns the raw (unrefined) per-predecessor states for Phi.
func (e *Engine) mergeIn(node *icfg.Node, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) (*state.State, map[*icfg.Node]*state.State) {
	predStates := map[*icfg.Node]*state.State{}
	merged := state.Bottom(e.Config.MaxFieldLimit)
	for _, edge := range node.In {
		if edge.Kind != icfg.EdgeIntra {
			continue
		}
		ps, ok := trace[edge.Src]
		if !ok {
			continue
		}
		predStates[edge.Src] = ps
		refined, feasible := refine.Refine(edge, ps, defIdx)
		if !feasible {
			continue
		}
		merged, _ = state.Join(merged, refined)
	}
	return merged, predStates
}

func (e *Engine) step(ctx context.Context, fn *icfg.Function, node *icfg.Node, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.Stats.Blocks++

	var cur *state.State
	var predStates map[*icfg.Node]*state.State
	if node == fn.Entry {
		if in, ok := trace[node]; ok {
			cur = in.Clone()
		} else {
			cur = state.New(e.Config.MaxFieldLimit)
		}
	} else {
		in, ps := e.mergeIn(node, trace, defIdx)
		cur, predStates = in.Clone(), ps
	}

	if node.Kind == icfg.NodeCall {
		if err := e.dispatchCall(ctx, node, cur, trace, defIdx); err != nil {
			return err
		}
	} else {
		for _, stmt := range node.Stmts {
			if err := interp.Exec(cur, stmt, predStates); err != nil {
				return errors.Wrapf(err, "node %d", node.ID)
			}
		}
	}
	trace[node] = cur
	return nil
}

// headPost runs Singleton(head) -- merging head's intra-procedural
// predecessors and interpreting head's own statements over that merge --
// and returns the result, without otherwise touching trace. The cycle
// walkers below widen/narrow trace's previous value against this
// post-statement result, per spec.md §4.6: a cycle head that recomputes
// its own value from scratch (the canonical case being a Phi statement)
// must have that recomputation happen before widening sees it, not after.
func (e *Engine) headPost(head *icfg.Node, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) (*state.State, error) {
	in, predStates := e.mergeIn(head, trace, defIdx)
	cur := in.Clone()
	for _, stmt := range head.Stmts {
		if err := interp.Exec(cur, stmt, predStates); err != nil {
			return nil, errors.Wrapf(err, "node %d", head.ID)
		}
	}
	return cur, nil
}

func (e *Engine) walkCycle(ctx context.Context, fn *icfg.Function, cyc wto.Cycle, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) error {
	e.Stats.WTOCycles++
	iter := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		prev, ok := trace[cyc.Head]
		if !ok {
			prev = state.Bottom(e.Config.MaxFieldLimit)
		}

		cur, err := e.headPost(cyc.Head, trace, defIdx)
		if err != nil {
			return err
		}
		trace[cyc.Head] = cur

		if iter >= e.Config.WidenDelay {
			trace[cyc.Head] = state.Widen(prev, cur)
			e.Stats.WidenSteps++
		}

		if err := e.walk(ctx, fn, cyc.Body, trace, defIdx); err != nil {
			return err
		}

		reachedFixpoint := iter >= e.Config.WidenDelay && state.Equal(prev, trace[cyc.Head])
		iter++
		if reachedFixpoint {
			break
		}
		if iter > maxFixpointIters {
			e.Log.WithField("node", cyc.Head.ID).Warn("widening did not converge within the iteration backstop")
			break
		}
	}
	return e.narrowCycle(ctx, fn, cyc, trace, defIdx)
}

func (e *Engine) narrowCycle(ctx context.Context, fn *icfg.Function, cyc wto.Cycle, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) error {
	for i := 0; i < maxFixpointIters; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		widened := trace[cyc.Head]

		cur, err := e.headPost(cyc.Head, trace, defIdx)
		if err != nil {
			return err
		}
		trace[cyc.Head] = state.Narrow(widened, cur)

		if err := e.walk(ctx, fn, cyc.Body, trace, defIdx); err != nil {
			return err
		}
		e.Stats.NarrowSteps++
		if state.Equal(widened, trace[cyc.Head]) {
			break
		}
	}
	return nil
}
