// Package refine implements BranchRefiner: given an intra-procedural edge
// carrying a branch or switch condition, it tightens the state that flows
// along that edge by meeting the condition's operands with the constraint
// the edge implies, per spec.md §4.5.
package refine

import (
	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/state"
	"github.com/cubicYYY/SVF/value"
)

// DefIndex maps a variable to the statement that defines it, built once per
// function so Refine can locate the Cmp (or Copy/Load chain) behind a
// condition variable without re-scanning the node list on every edge.
type DefIndex map[state.VarID]icfg.Stmt

// BuildDefIndex scans every statement of every node and indexes it by Lhs,
// skipping Store statements, whose Lhs is the pointer written through.
// Later definitions of the same VarID (there should be none in SSA form)
// overwrite earlier ones.
func BuildDefIndex(nodes []*icfg.Node) DefIndex {
	idx := DefIndex{}
	for _, n := range nodes {
		for _, st := range n.Stmts {
			if st.Kind == icfg.KStore {
				// A Store writes through its Lhs pointer; it does not define it.
				continue
			}
			idx[st.Lhs] = st
		}
	}
	return idx
}

func (d DefIndex) lookup(v state.VarID) (icfg.Stmt, bool) {
	st, ok := d[v]
	return st, ok
}

// Refine returns the state that should flow along edge, and whether edge is
// feasible at all under st. When edge carries no condition, or the
// condition's definition cannot be related to a known comparison or switch
// value, it returns st unchanged and feasible, matching the spec's
// catch-all fallback.
func Refine(edge *icfg.Edge, st *state.State, defs DefIndex) (*state.State, bool) {
	if !edge.HasCond || st.IsBottom() {
		return st, true
	}
	ns := st.Clone()

	if edge.IsSwitch {
		ok := refineSwitch(ns, defs, edge.Cond, edge.CaseVal)
		return ns, ok
	}

	def, ok := defs.lookup(edge.Cond)
	if !ok || def.Kind != icfg.KCmp {
		return st, true
	}
	ok = refineCmp(ns, defs, def, edge.SuccIdx)
	return ns, ok
}

// swapPredicate rewrites a predicate for operands swapped left-to-right,
// mirroring _switch_lhsrhs_predicate in the original AbstractInterpretation.
func swapPredicate(p icfg.Predicate) icfg.Predicate {
	switch p {
	case icfg.PredGT:
		return icfg.PredLT
	case icfg.PredGE:
		return icfg.PredLE
	case icfg.PredLT:
		return icfg.PredGT
	case icfg.PredLE:
		return icfg.PredGE
	default:
		return p // EQ and NE are symmetric
	}
}

// negatePredicate inverts a predicate for the "false" successor of a
// two-way branch, mirroring _reverse_predicate.
func negatePredicate(p icfg.Predicate) icfg.Predicate {
	switch p {
	case icfg.PredEQ:
		return icfg.PredNE
	case icfg.PredNE:
		return icfg.PredEQ
	case icfg.PredGT:
		return icfg.PredLE
	case icfg.PredGE:
		return icfg.PredLT
	case icfg.PredLT:
		return icfg.PredGE
	case icfg.PredLE:
		return icfg.PredGT
	default:
		return p
	}
}

// meetAgainst returns the symbolic side's interval after applying pred
// against the concrete (or merely "other") side's interval.
func meetAgainst(pred icfg.Predicate, sym, other interval.Interval) interval.Interval {
	switch pred {
	case icfg.PredEQ:
		return interval.Meet(sym, other)
	case icfg.PredNE:
		return sym
	case icfg.PredGT:
		return interval.Meet(sym, interval.Range(other.Lb().Plus1(), interval.PosInf()))
	case icfg.PredGE:
		return interval.Meet(sym, interval.Range(other.Lb(), interval.PosInf()))
	case icfg.PredLT:
		return interval.Meet(sym, interval.Range(interval.NegInf(), other.Ub().Minus1()))
	case icfg.PredLE:
		return interval.Meet(sym, interval.Range(interval.NegInf(), other.Ub()))
	default:
		return sym
	}
}

// refineCmp refines the operands of a Cmp statement that defines a branch's
// condition variable, for the successor identified by succIdx.
func refineCmp(ns *state.State, defs DefIndex, cmp icfg.Stmt, succIdx int) bool {
	op0v := ns.Get(cmp.Rhs)
	op1v := ns.Get(cmp.Rhs2)
	if op0v.IsAddress() || op1v.IsAddress() {
		// Address operands are refined only by the address-equality rule a
		// real deployment would add; this engine is sound but imprecise
		// here, per spec.md §4.5.
		return true
	}

	pred := cmp.Pred
	symVar := cmp.Rhs
	sym, other := op0v.Interval(), op1v.Interval()
	if sym.IsNumeral() && !other.IsNumeral() {
		pred = swapPredicate(pred)
		symVar = cmp.Rhs2
		sym, other = other, sym
	}

	if succIdx == 0 {
		pred = negatePredicate(pred)
	}

	refined := meetAgainst(pred, sym, other)
	if refined.IsBottom() {
		return false
	}
	ns.Set(symVar, value.FromInterval(refined))
	propagateToMemory(ns, defs, symVar, refined, map[state.VarID]bool{})
	return true
}

// refineSwitch refines a switch's scrutinee against the case value selected
// by the taken edge.
func refineSwitch(ns *state.State, defs DefIndex, cond state.VarID, caseVal int64) bool {
	cur := ns.Get(cond)
	if !cur.IsInterval() {
		return true
	}
	refined := interval.Meet(cur.Interval(), interval.Singleton(caseVal))
	if refined.IsBottom() {
		return false
	}
	ns.Set(cond, value.FromInterval(refined))
	propagateToMemory(ns, defs, cond, refined, map[state.VarID]bool{})
	return true
}

// propagateToMemory chases the reverse Copy/Load chain behind v, applying
// the same meet to whatever the chain is ultimately a value-preserving view
// of: a copied-from variable, or the memory cells a Load read from.
func propagateToMemory(ns *state.State, defs DefIndex, v state.VarID, refined interval.Interval, seen map[state.VarID]bool) {
	if seen[v] {
		return
	}
	seen[v] = true

	def, ok := defs.lookup(v)
	if !ok {
		return
	}
	switch def.Kind {
	case icfg.KCopy:
		if def.CopyKind != icfg.CopyValue {
			return
		}
		cur := ns.Get(def.Rhs)
		if !cur.IsInterval() {
			return
		}
		ns.Set(def.Rhs, value.FromInterval(interval.Meet(cur.Interval(), refined)))
		propagateToMemory(ns, defs, def.Rhs, refined, seen)
	case icfg.KLoad:
		addrs := ns.Get(def.Rhs).AddressSet()
		addrs.Each(func(a address.Address) {
			cur := ns.Load(a)
			if !cur.IsInterval() {
				return
			}
			ns.StoreStrong(a, value.FromInterval(interval.Meet(cur.Interval(), refined)))
		})
	}
}
