package engine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/extapi"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/refine"
	"github.com/cubicYYY/SVF/state"
	"github.com/cubicYYY/SVF/value"
)

// externObjBase separates object ids the ICFG assigns through Addr
// statements (below this) from the synthetic ids this dispatcher mints,
// one per allocating external callsite, to model SVF's one-object-per-
// allocation-site abstraction for libc calls the ICFG front end never saw
// an Addr statement for.
const externObjBase uint32 = 1 << 20

// dispatchCall classifies node's callsite (svf_assert, annotated external,
// indirect, or direct) and applies the matching transfer, per spec.md §4.8.
// It writes the resulting state back to cs.ReturnNode, the matching
// return-site node, mirroring the propagation the spec's CallDispatcher
// performs when it pops the call stack.
func (e *Engine) dispatchCall(ctx context.Context, node *icfg.Node, st *state.State, trace map[*icfg.Node]*state.State, defIdx refine.DefIndex) error {
	cs := node.Callsite
	e.Stats.Callsites++

	var err error
	switch {
	case cs.ExternName == "svf_assert":
		return e.checkAssert(node, cs, st)
	case cs.ExternName != "":
		e.Stats.ExternalCalls++
		tag := e.ExtAPI.Lookup(cs.ExternName)
		obj := address.AddrOf(externObjBase+uint32(node.ID), 0)
		err = extapi.Apply(st, tag, cs.Args, cs.Lhs, cs.HasLhs, state.TypeInfo{}, obj, defIdx)
	case cs.IsIndirect:
		err = e.dispatchIndirect(ctx, node, cs, st)
	case cs.Callee != nil:
		err = e.callInto(ctx, st, cs, cs.Callee)
	default:
		if cs.HasLhs {
			st.Set(cs.Lhs, value.Top())
		}
	}
	if err != nil {
		return err
	}
	if cs.ReturnNode != nil {
		trace[cs.ReturnNode] = st.Clone()
	}
	return nil
}

func (e *Engine) checkAssert(node *icfg.Node, cs *icfg.Callsite, st *state.State) error {
	e.assertSeen[node] = true
	e.Stats.Assertions++
	if len(cs.Args) == 0 {
		return nil
	}
	cond := st.Get(cs.Args[0]).Interval()
	if !cond.Equal(interval.BoolTrue) {
		e.Stats.FailedAsserts++
		e.failed = append(e.failed, fmt.Sprintf("node %d", node.ID))
		e.Log.WithField("node", node.ID).Error("assertion not provably true")
	}
	return nil
}

// dispatchIndirect resolves an indirect callsite's function-pointer
// variable against the program's function addresses; a singleton target
// dispatches as Direct, otherwise the call is treated as an unmodelled
// external, per spec.md §4.8 Indirect.
func (e *Engine) dispatchIndirect(ctx context.Context, node *icfg.Node, cs *icfg.Callsite, st *state.State) error {
	e.Stats.IndirectCalls++
	fp := st.Get(cs.CalleeVar)
	if a, ok := fp.AddressSet().SingleAddr(); ok {
		if callee, ok := e.funcByAddr[a]; ok {
			return e.callInto(ctx, st, cs, callee)
		}
	}
	e.Log.WithField("node", node.ID).Warn("indirect call target unresolved, havoc-ing result")
	if cs.HasLhs {
		st.Set(cs.Lhs, value.Top())
	}
	return nil
}

// callInto dispatches a statically known callee: recursive callees are
// havoc'd per spec.md §4.8 Recursive without descending; everything else
// pushes the full caller state into the callee's entry, runs its WTO to a
// fixpoint, and merges the resulting state back wholesale, per spec.md
// §4.8 Direct.
func (e *Engine) callInto(ctx context.Context, st *state.State, cs *icfg.Callsite, callee *icfg.Function) error {
	argVals := make([]value.Value, len(cs.Args))
	for i, a := range cs.Args {
		argVals[i] = st.Get(a)
	}

	if callee.Recursive {
		e.Stats.RecursiveCalls++
		e.havocRecursiveCall(st, cs, callee, argVals)
		return nil
	}

	initial := st.Clone()
	for i, p := range callee.Params {
		if i < len(argVals) {
			initial.Set(p, argVals[i])
		}
	}

	retState, err := e.analyseFunction(ctx, callee, initial)
	if err != nil {
		return errors.Wrapf(err, "calling %s", callee.Name)
	}
	var retVal value.Value
	if cs.HasLhs {
		if retVar, ok := callee.ReturnValueVar(); ok {
			retVal = retState.Get(retVar)
		} else {
			retVal = value.Top()
		}
	}
	st.MergeFrom(retState)
	if cs.HasLhs {
		st.Set(cs.Lhs, retVal)
	}
	return nil
}

// havocRecursiveCall approximates a recursive callee without descending,
// per spec.md §4.8 Recursive: the call's own result goes to top, and every
// Store statement anywhere in the callee's reachable functions whose
// pointer operand resolves to an AddressSet here -- with a right-hand side
// that isn't positively known to be an address -- has every targeted
// address set to top.
func (e *Engine) havocRecursiveCall(st *state.State, cs *icfg.Callsite, callee *icfg.Function, argVals []value.Value) {
	if cs.HasLhs {
		st.Set(cs.Lhs, value.Top())
	}

	reachable := map[*icfg.Function]bool{}
	collectFunctions(callee, reachable)

	resolve := func(fn *icfg.Function, v state.VarID) (value.Value, bool) {
		if idx := paramIndex(fn, v); idx >= 0 && idx < len(argVals) {
			return argVals[idx], true
		}
		return st.Lookup(v)
	}

	for fn := range reachable {
		for _, n := range fn.Nodes {
			for _, stmt := range n.Stmts {
				if stmt.Kind != icfg.KStore {
					continue
				}
				lhsVal, ok := resolve(fn, stmt.Lhs)
				if !ok || !lhsVal.IsAddress() {
					continue
				}
				if rhsVal, ok := resolve(fn, stmt.Rhs); ok && rhsVal.IsAddress() {
					continue
				}
				lhsVal.AddressSet().Each(func(a address.Address) {
					st.StoreStrong(a, value.Top())
				})
			}
		}
	}
}

func paramIndex(fn *icfg.Function, v state.VarID) int {
	for i, p := range fn.Params {
		if p == v {
			return i
		}
	}
	return -1
}
