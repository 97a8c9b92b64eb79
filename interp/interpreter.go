// Package interp implements StatementInterpreter: one transfer function
// per ICFG statement kind, each reading from and writing to the
// AbstractState of the owning node.
package interp

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/state"
	"github.com/cubicYYY/SVF/value"
)

// Exec applies stmt's transfer function to st in place. predStates is
// consulted only by the Phi transfer, which must join over exactly the
// predecessors that currently have a trace entry (spec.md §4.4); callers
// that know a node has no Phi statements may pass nil.
func Exec(st *state.State, stmt icfg.Stmt, predStates map[*icfg.Node]*state.State) error {
	switch stmt.Kind {
	case icfg.KAddr:
		return execAddr(st, stmt)
	case icfg.KCopy:
		return execCopy(st, stmt)
	case icfg.KBinary:
		return execBinary(st, stmt)
	case icfg.KCmp:
		return execCmp(st, stmt)
	case icfg.KLoad:
		st.Set(stmt.Lhs, st.LoadValue(stmt.Rhs))
		return nil
	case icfg.KStore:
		st.StoreValue(stmt.Lhs, st.Get(stmt.Rhs))
		return nil
	case icfg.KGep:
		return execGep(st, stmt)
	case icfg.KSelect:
		return execSelect(st, stmt)
	case icfg.KPhi:
		return execPhi(st, stmt, predStates)
	case icfg.KCall, icfg.KRet:
		// Parameter/return binding is a plain copy; any inter-procedural
		// effect is the CallDispatcher's concern, applied around this.
		st.Set(stmt.Lhs, st.Get(stmt.Rhs))
		return nil
	case icfg.KUnaryOp, icfg.KBranch:
		// No-op at statement level; branches are handled by BranchRefiner.
		return nil
	case icfg.KConst:
		st.Set(stmt.Lhs, value.FromInterval(interval.Range(interval.FromInt64(stmt.ConstLo), interval.FromInt64(stmt.ConstHi))))
		return nil
	default:
		return errors.Errorf("unhandled statement kind %d", stmt.Kind)
	}
}

func execAddr(st *state.State, stmt icfg.Stmt) error {
	st.Set(stmt.Lhs, st.InitObj(stmt.Obj, stmt.ObjType))
	return nil
}

func execCopy(st *state.State, stmt icfg.Stmt) error {
	rhs := st.Get(stmt.Rhs)
	switch stmt.CopyKind {
	case icfg.CopyValue, icfg.CopySExt, icfg.CopySIToFP, icfg.CopyUIToFP,
		icfg.CopyFPToSI, icfg.CopyFPToUI, icfg.CopyFPTrunc:
		st.Set(stmt.Lhs, rhs)
	case icfg.CopyZExt:
		if !rhs.IsInterval() {
			st.Set(stmt.Lhs, value.Top())
			return nil
		}
		st.Set(stmt.Lhs, value.FromInterval(zext(rhs.Interval(), stmt.SrcBits)))
	case icfg.CopyTrunc:
		if !rhs.IsInterval() {
			st.Set(stmt.Lhs, value.Top())
			return nil
		}
		st.Set(stmt.Lhs, value.FromInterval(trunc(rhs.Interval(), stmt.DstBits)))
	case icfg.CopyPtrToInt:
		st.Set(stmt.Lhs, value.Top())
	case icfg.CopyIntToPtr:
		st.Set(stmt.Lhs, value.FromAddressSet(address.Empty()))
	case icfg.CopyBitCast:
		if rhs.IsAddress() {
			st.Set(stmt.Lhs, rhs)
		}
		// Otherwise leave lhs untouched, per spec.md §4.4.
	default:
		return errors.Errorf("unhandled copy kind %d", stmt.CopyKind)
	}
	return nil
}

// zext reinterprets a value known to fit in srcBits as unsigned, which
// cannot introduce a negative result; we approximate the bit-pattern
// reinterpretation by intersecting with the unsigned range of that width.
func zext(a interval.Interval, srcBits int) interval.Interval {
	return interval.Meet(a, interval.TypeRange(srcBits, false))
}

// trunc reinterprets a value at dstBits; if the naive per-bound wrap would
// invert the interval, it falls back to the destination width's full
// signed range, per spec.md §4.4.
func trunc(a interval.Interval, dstBits int) interval.Interval {
	full := interval.TypeRange(dstBits, true)
	if !a.Lb().IsFinite() || !a.Ub().IsFinite() {
		return full
	}
	lo := wrapSigned(a.Lb().Big(), dstBits)
	hi := wrapSigned(a.Ub().Big(), dstBits)
	if lo.Cmp(hi) > 0 {
		return full
	}
	return interval.Range(interval.Finite(lo), interval.Finite(hi))
}

func wrapSigned(v *big.Int, bits int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	r := new(big.Int).Mod(v, mod)
	half := new(big.Int).Rsh(mod, 1)
	if r.Cmp(half) >= 0 {
		r.Sub(r, mod)
	}
	return r
}

func execBinary(st *state.State, stmt icfg.Stmt) error {
	a := st.Get(stmt.Rhs)
	b := st.Get(stmt.Rhs2)
	if !a.IsInterval() || !b.IsInterval() {
		st.Set(stmt.Lhs, value.Top())
		return nil
	}
	ia, ib := a.Interval(), b.Interval()
	var r interval.Interval
	switch stmt.Bin {
	case icfg.OpAdd, icfg.OpFAdd:
		r = interval.Add(ia, ib)
	case icfg.OpSub, icfg.OpFSub:
		r = interval.Sub(ia, ib)
	case icfg.OpMul, icfg.OpFMul:
		r = interval.Mul(ia, ib)
	case icfg.OpSDiv, icfg.OpUDiv, icfg.OpFDiv:
		r = interval.Div(ia, ib)
	case icfg.OpSRem, icfg.OpURem:
		r = interval.Rem(ia, ib)
	case icfg.OpAnd:
		r = interval.And(ia, ib)
	case icfg.OpOr:
		r = interval.Or(ia, ib)
	case icfg.OpXor:
		r = interval.Xor(ia, ib)
	case icfg.OpShl:
		r = interval.Shl(ia, ib)
	case icfg.OpShr:
		r = interval.Shr(ia, ib)
	default:
		return errors.Errorf("unhandled binary op %d", stmt.Bin)
	}
	st.Set(stmt.Lhs, value.FromInterval(r))
	return nil
}

func execCmp(st *state.State, stmt icfg.Stmt) error {
	a := st.Get(stmt.Rhs)
	b := st.Get(stmt.Rhs2)
	switch {
	case a.IsInterval() && b.IsInterval():
		r, err := cmpInterval(stmt.Pred, a.Interval(), b.Interval())
		if err != nil {
			return err
		}
		st.Set(stmt.Lhs, value.FromInterval(r))
	case a.IsAddress() && b.IsAddress():
		r, err := cmpAddress(stmt.Pred, a.AddressSet(), b.AddressSet())
		if err != nil {
			return err
		}
		st.Set(stmt.Lhs, value.FromInterval(r))
	default:
		st.Set(stmt.Lhs, value.FromInterval(interval.BoolUnknown))
	}
	return nil
}

func cmpInterval(p icfg.Predicate, a, b interval.Interval) (interval.Interval, error) {
	switch p {
	case icfg.PredEQ:
		return interval.Eq(a, b), nil
	case icfg.PredNE:
		return interval.Ne(a, b), nil
	case icfg.PredGT:
		return interval.Gt(a, b), nil
	case icfg.PredGE:
		return interval.Ge(a, b), nil
	case icfg.PredLT:
		return interval.Lt(a, b), nil
	case icfg.PredLE:
		return interval.Le(a, b), nil
	default:
		return interval.Bottom(), errors.Errorf("unhandled compare predicate %d", p)
	}
}

// cmpAddress implements the address-vs-address rules of spec.md §4.4:
// equality follows the intersection test, ordering is only meaningful
// between two singletons of the same base object.
func cmpAddress(p icfg.Predicate, a, b address.Set) (interval.Interval, error) {
	switch p {
	case icfg.PredEQ:
		if a.IsEmpty() && b.IsEmpty() {
			return interval.BoolTrue, nil
		}
		if !address.Intersects(a, b) {
			return interval.BoolFalse, nil
		}
		return interval.BoolUnknown, nil
	case icfg.PredNE:
		eq, err := cmpAddress(icfg.PredEQ, a, b)
		if err != nil {
			return interval.Bottom(), err
		}
		switch {
		case eq.Equal(interval.BoolTrue):
			return interval.BoolFalse, nil
		case eq.Equal(interval.BoolFalse):
			return interval.BoolTrue, nil
		default:
			return interval.BoolUnknown, nil
		}
	case icfg.PredGT, icfg.PredGE, icfg.PredLT, icfg.PredLE:
		sa, oka := a.SingleAddr()
		sb, okb := b.SingleAddr()
		if oka && okb && address.BaseOf(sa) == address.BaseOf(sb) {
			return cmpInterval(p,
				interval.Singleton(int64(address.FieldOf(sa))),
				interval.Singleton(int64(address.FieldOf(sb))))
		}
		return interval.BoolUnknown, nil
	default:
		return interval.Bottom(), errors.Errorf("unhandled compare predicate %d", p)
	}
}

func execGep(st *state.State, stmt icfg.Stmt) error {
	baseVal := st.Get(stmt.Base)
	if !baseVal.IsAddress() {
		st.Set(stmt.Lhs, value.Top())
		return nil
	}
	offsetIdx := st.Get(stmt.Offset).Interval()
	res := address.Empty()
	baseVal.AddressSet().Each(func(a address.Address) {
		r := address.GepAddrs(a, offsetIdx, st.MaxFieldLimit())
		res, _ = address.Join(res, r)
	})
	st.Set(stmt.Lhs, value.FromAddressSet(res))
	return nil
}

func execSelect(st *state.State, stmt icfg.Stmt) error {
	cond := st.Get(stmt.Cond)
	if cond.IsInterval() && cond.Interval().IsNumeral() && cond.Interval().Lb().IsFinite() {
		switch cond.Interval().Lb().Int64() {
		case 0:
			st.Set(stmt.Lhs, st.Get(stmt.FalseVal))
			return nil
		case 1:
			st.Set(stmt.Lhs, st.Get(stmt.TrueVal))
			return nil
		}
	}
	j, _ := value.Join(st.Get(stmt.TrueVal), st.Get(stmt.FalseVal))
	st.Set(stmt.Lhs, j)
	return nil
}

func execPhi(st *state.State, stmt icfg.Stmt, predStates map[*icfg.Node]*state.State) error {
	res := value.Bottom()
	for _, op := range stmt.PhiOperands {
		ps, ok := predStates[op.Pred]
		if !ok || ps == nil || ps.IsBottom() {
			continue
		}
		res, _ = value.Join(res, ps.Get(op.Var))
	}
	st.Set(stmt.Lhs, res)
	return nil
}
