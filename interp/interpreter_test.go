package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/state"
	"github.com/cubicYYY/SVF/value"
)

func TestExecAddrBindsSingletonAddress(t *testing.T) {
	st := state.New(32)
	obj := address.AddrOf(1, 0)
	err := Exec(st, icfg.Stmt{Kind: icfg.KAddr, Lhs: 1, Obj: obj, ObjType: state.TypeInfo{IsInteger: true, BitWidth: 32, Signed: true}}, nil)
	assert.NoError(t, err)
	assert.True(t, st.Get(1).IsAddress())
}

func TestExecBinaryAdd(t *testing.T) {
	st := state.New(32)
	st.Set(1, value.FromInterval(interval.Singleton(2)))
	st.Set(2, value.FromInterval(interval.Singleton(3)))
	err := Exec(st, icfg.Stmt{Kind: icfg.KBinary, Lhs: 3, Rhs: 1, Rhs2: 2, Bin: icfg.OpAdd}, nil)
	assert.NoError(t, err)
	assert.True(t, st.Get(3).Interval().Equal(interval.Singleton(5)))
}

func TestExecCmpInterval(t *testing.T) {
	st := state.New(32)
	st.Set(1, value.FromInterval(interval.Singleton(1)))
	st.Set(2, value.FromInterval(interval.Singleton(2)))
	err := Exec(st, icfg.Stmt{Kind: icfg.KCmp, Lhs: 3, Rhs: 1, Rhs2: 2, Pred: icfg.PredLT}, nil)
	assert.NoError(t, err)
	assert.True(t, st.Get(3).Interval().Equal(interval.BoolTrue))
}

func TestExecGepConcreteOffset(t *testing.T) {
	st := state.New(32)
	base := address.AddrOf(5, 0)
	st.Set(1, value.FromAddressSet(address.Single(base)))
	st.Set(2, value.FromInterval(interval.Singleton(3)))
	err := Exec(st, icfg.Stmt{Kind: icfg.KGep, Lhs: 3, Base: 1, Offset: 2, ElemSize: 1}, nil)
	assert.NoError(t, err)
	assert.True(t, st.Get(3).AddressSet().Contains(address.AddrOf(5, 3)))
}

func TestExecSelectTakesTrueBranch(t *testing.T) {
	st := state.New(32)
	st.Set(1, value.FromInterval(interval.Singleton(1)))
	st.Set(2, value.FromInterval(interval.Singleton(10)))
	st.Set(3, value.FromInterval(interval.Singleton(20)))
	err := Exec(st, icfg.Stmt{Kind: icfg.KSelect, Lhs: 4, Cond: 1, TrueVal: 2, FalseVal: 3}, nil)
	assert.NoError(t, err)
	assert.True(t, st.Get(4).Interval().Equal(interval.Singleton(10)))
}

func TestExecPhiJoinsReachablePredecessors(t *testing.T) {
	predA := &icfg.Node{ID: 1}
	predB := &icfg.Node{ID: 2}
	stA := state.New(32)
	stA.Set(10, value.FromInterval(interval.Singleton(1)))
	stB := state.New(32)
	stB.Set(10, value.FromInterval(interval.Singleton(2)))

	st := state.New(32)
	stmt := icfg.Stmt{Kind: icfg.KPhi, Lhs: 20, PhiOperands: []icfg.PhiOperand{
		{Pred: predA, Var: 10},
		{Pred: predB, Var: 10},
	}}
	err := Exec(st, stmt, map[*icfg.Node]*state.State{predA: stA, predB: stB})
	assert.NoError(t, err)
	assert.True(t, st.Get(20).Interval().Equal(interval.Range(interval.FromInt64(1), interval.FromInt64(2))))
}

func TestExecCopyZExtTruncatesToUnsignedRange(t *testing.T) {
	st := state.New(32)
	st.Set(1, value.FromInterval(interval.Range(interval.FromInt64(-5), interval.FromInt64(5))))
	err := Exec(st, icfg.Stmt{Kind: icfg.KCopy, Lhs: 2, Rhs: 1, CopyKind: icfg.CopyZExt, SrcBits: 8}, nil)
	assert.NoError(t, err)
	assert.True(t, st.Get(2).Interval().Lb().Cmp(interval.FromInt64(0)) >= 0)
}

func TestCmpAddressEqualityByIntersection(t *testing.T) {
	r, err := cmpAddress(icfg.PredEQ, address.Single(address.AddrOf(1, 0)), address.Single(address.AddrOf(1, 0)))
	assert.NoError(t, err)
	assert.True(t, r.Equal(interval.BoolUnknown))

	r, err = cmpAddress(icfg.PredEQ, address.Single(address.AddrOf(1, 0)), address.Single(address.AddrOf(2, 0)))
	assert.NoError(t, err)
	assert.True(t, r.Equal(interval.BoolFalse))
}
