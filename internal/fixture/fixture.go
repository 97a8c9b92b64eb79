// Package fixture builds small hand-wired ICFG programs for the engine's
// self-test command and for package tests that need a realistic (rather
// than single-node) call graph. Building an ICFG from a real front end is
// out of this repo's scope; these are the minimal graphs that exercise the
// WTOEngine's cycle handling and the CallDispatcher's call kinds.
package fixture

import (
	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/state"
)

func connect(a, b *icfg.Node) {
	e := &icfg.Edge{Src: a, Dst: b, Kind: icfg.EdgeIntra}
	a.Out = append(a.Out, e)
	b.In = append(b.In, e)
}

func connectCond(a, b *icfg.Node, cond state.VarID, succIdx int) {
	e := &icfg.Edge{Src: a, Dst: b, Kind: icfg.EdgeIntra, HasCond: true, Cond: cond, SuccIdx: succIdx}
	a.Out = append(a.Out, e)
	b.In = append(b.In, e)
}

// Variable ids used across the fixtures below; each fixture owns its own
// numbering, so these are only unique within one function.
const (
	varI state.VarID = iota + 1
	varBound
	varCond
	varTmp
)

// LoopCountUp builds a single function:
//
//	i := 0
//	loop: cond := i < bound; if cond goto body else exit
//	body: i := i + 1; goto loop
//	exit: ret i
//
// bound is bound as the constant [bound,bound] so the WTOEngine's widen-then-
// narrow pass at the loop header has something to converge to.
func LoopCountUp(bound int64) *icfg.Function {
	fn := &icfg.Function{Name: "count_up"}

	entry := &icfg.Node{ID: 1, Kind: icfg.NodeEntry, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: varI, ConstLo: 0, ConstHi: 0},
		{Kind: icfg.KConst, Lhs: varBound, ConstLo: bound, ConstHi: bound},
	}}
	head := &icfg.Node{ID: 2, Kind: icfg.NodeIntra, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KCmp, Lhs: varCond, Rhs: varI, Rhs2: varBound, Pred: icfg.PredLT},
	}}
	body := &icfg.Node{ID: 3, Kind: icfg.NodeIntra, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: varTmp, ConstLo: 1, ConstHi: 1},
		{Kind: icfg.KBinary, Lhs: varI, Rhs: varI, Rhs2: varTmp, Bin: icfg.OpAdd},
	}}
	exit := &icfg.Node{ID: 4, Kind: icfg.NodeExit, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KRet, Rhs: varI},
	}}

	connect(entry, head)
	connectCond(head, body, varCond, 1)
	connectCond(head, exit, varCond, 0)
	connect(body, head)

	fn.Entry = entry
	fn.Nodes = []*icfg.Node{entry, head, body, exit}
	return fn
}

// StraightLine builds a loop-free function computing (a+b)*2 and returning
// it, for tests that only need a non-cyclic WTO.
func StraightLine() *icfg.Function {
	const (
		varA state.VarID = iota + 1
		varB
		varSum
		varTwo
		varRes
	)
	fn := &icfg.Function{Name: "straight_line"}
	entry := &icfg.Node{ID: 1, Kind: icfg.NodeEntry, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: varA, ConstLo: 1, ConstHi: 5},
		{Kind: icfg.KConst, Lhs: varB, ConstLo: 10, ConstHi: 10},
		{Kind: icfg.KBinary, Lhs: varSum, Rhs: varA, Rhs2: varB, Bin: icfg.OpAdd},
		{Kind: icfg.KConst, Lhs: varTwo, ConstLo: 2, ConstHi: 2},
		{Kind: icfg.KBinary, Lhs: varRes, Rhs: varSum, Rhs2: varTwo, Bin: icfg.OpMul},
	}}
	exit := &icfg.Node{ID: 2, Kind: icfg.NodeExit, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KRet, Rhs: varRes},
	}}
	connect(entry, exit)
	fn.Entry = entry
	fn.Nodes = []*icfg.Node{entry, exit}
	return fn
}

// Variable ids for the multi-function fixtures below are deliberately
// spread across non-overlapping ranges, since a direct call now threads the
// caller's full state into the callee (and merges it back wholesale), which
// requires a program-wide unique VarID space rather than each function
// restarting its own numbering.
const (
	mfMainP state.VarID = iota + 1
	mfMainV
	mfMainZero
	mfMainCond
)

const (
	mfCalleeFive state.VarID = iota + 100
)

// DirectCallWritesThroughPointer builds a two-function program: main takes
// the address of a local, passes it to setFive, which stores 5 through the
// pointer parameter, then main loads it back and asserts it sees 5. This
// exercises a Direct call propagating a callee's write through an aliased
// pointer parameter back into the caller's state.
func DirectCallWritesThroughPointer() *icfg.Function {
	obj := address.AddrOf(42, 0)

	setFive := &icfg.Function{Name: "set_five", Params: []state.VarID{mfMainP}}
	calleeEntry := &icfg.Node{ID: 101, Kind: icfg.NodeEntry, Fun: setFive, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: mfCalleeFive, ConstLo: 5, ConstHi: 5},
		{Kind: icfg.KStore, Lhs: mfMainP, Rhs: mfCalleeFive},
	}}
	calleeExit := &icfg.Node{ID: 102, Kind: icfg.NodeExit, Fun: setFive}
	connect(calleeEntry, calleeExit)
	setFive.Entry = calleeEntry
	setFive.Nodes = []*icfg.Node{calleeEntry, calleeExit}

	main := &icfg.Function{Name: "main"}
	entry := &icfg.Node{ID: 1, Kind: icfg.NodeEntry, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KAddr, Lhs: mfMainP, Obj: obj},
	}}
	retNode := &icfg.Node{ID: 2, Kind: icfg.NodeReturn, Fun: main}
	callNode := &icfg.Node{ID: 3, Kind: icfg.NodeCall, Fun: main, Callsite: &icfg.Callsite{
		Callee:     setFive,
		Args:       []state.VarID{mfMainP},
		ReturnNode: retNode,
	}}
	after := &icfg.Node{ID: 4, Kind: icfg.NodeIntra, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KLoad, Lhs: mfMainV, Rhs: mfMainP},
		{Kind: icfg.KConst, Lhs: mfMainZero, ConstLo: 5, ConstHi: 5},
		{Kind: icfg.KCmp, Lhs: mfMainCond, Rhs: mfMainV, Rhs2: mfMainZero, Pred: icfg.PredEQ},
	}}
	assertNode := &icfg.Node{ID: 5, Kind: icfg.NodeCall, Fun: main, Callsite: &icfg.Callsite{
		ExternName: "svf_assert",
		Args:       []state.VarID{mfMainCond},
	}}
	exit := &icfg.Node{ID: 6, Kind: icfg.NodeExit, Fun: main}

	connect(entry, callNode)
	connect(callNode, retNode)
	connect(retNode, after)
	connect(after, assertNode)
	connect(assertNode, exit)

	main.Entry = entry
	main.Nodes = []*icfg.Node{entry, callNode, retNode, after, assertNode, exit}
	return main
}

const (
	mfRecG state.VarID = iota + 200
	mfRecOne
	mfRecNine
)

// RecursiveHavocsGlobalWrite builds a self-recursive function recurse that
// writes 9 through a pointer variable aliasing main's global varG, and a
// main that initializes *varG to 1, calls recurse, then loads varG back.
// Exercises a recursive callsite never descending but havocing the address
// its callee's Store statements target.
func RecursiveHavocsGlobalWrite() *icfg.Function {
	obj := address.AddrOf(77, 0)

	recurse := &icfg.Function{Name: "recurse", Recursive: true}
	recEntry := &icfg.Node{ID: 201, Kind: icfg.NodeEntry, Fun: recurse, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: mfRecNine, ConstLo: 9, ConstHi: 9},
		{Kind: icfg.KStore, Lhs: mfRecG, Rhs: mfRecNine},
	}}
	recCall := &icfg.Node{ID: 202, Kind: icfg.NodeCall, Fun: recurse, Callsite: &icfg.Callsite{
		Callee: recurse,
	}}
	recExit := &icfg.Node{ID: 203, Kind: icfg.NodeExit, Fun: recurse}
	connect(recEntry, recCall)
	connect(recCall, recExit)
	recurse.Entry = recEntry
	recurse.Nodes = []*icfg.Node{recEntry, recCall, recExit}

	main := &icfg.Function{Name: "main"}
	entry := &icfg.Node{ID: 1, Kind: icfg.NodeEntry, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KAddr, Lhs: mfRecG, Obj: obj},
		{Kind: icfg.KConst, Lhs: mfRecOne, ConstLo: 1, ConstHi: 1},
		{Kind: icfg.KStore, Lhs: mfRecG, Rhs: mfRecOne},
	}}
	callNode := &icfg.Node{ID: 2, Kind: icfg.NodeCall, Fun: main, Callsite: &icfg.Callsite{
		Callee: recurse,
	}}
	after := &icfg.Node{ID: 3, Kind: icfg.NodeIntra, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KLoad, Lhs: mfMainV, Rhs: mfRecG},
		{Kind: icfg.KCmp, Lhs: mfMainCond, Rhs: mfMainV, Rhs2: mfRecOne, Pred: icfg.PredEQ},
	}}
	assertNode := &icfg.Node{ID: 4, Kind: icfg.NodeCall, Fun: main, Callsite: &icfg.Callsite{
		ExternName: "svf_assert",
		Args:       []state.VarID{mfMainCond},
	}}
	exit := &icfg.Node{ID: 5, Kind: icfg.NodeExit, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KRet, Rhs: mfMainV},
	}}
	connect(entry, callNode)
	connect(callNode, after)
	connect(after, assertNode)
	connect(assertNode, exit)
	main.Entry = entry
	main.Nodes = []*icfg.Node{entry, callNode, after, assertNode, exit}
	return main
}

const (
	mfIndFP state.VarID = iota + 300
	mfIndP
	mfIndFive
	mfIndV
	mfIndCond
)

// IndirectCallEntersResolvedTarget builds main taking the address of
// setFive (a function only reachable through that address, never called
// directly) and a pointer p, then calling through the function pointer
// indirectly. setFive stores 5 through its parameter, same as in
// DirectCallWritesThroughPointer. Returns main plus the universe slice
// callers must pass to Engine.Run so setFive is registered even though no
// direct callsite targets it.
func IndirectCallEntersResolvedTarget() (*icfg.Function, []*icfg.Function) {
	fAddr := address.AddrOf(500, 0)
	pObj := address.AddrOf(43, 0)

	setFive := &icfg.Function{Name: "set_five", Params: []state.VarID{mfIndP}, Addr: fAddr}
	calleeEntry := &icfg.Node{ID: 301, Kind: icfg.NodeEntry, Fun: setFive, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: mfIndFive, ConstLo: 5, ConstHi: 5},
		{Kind: icfg.KStore, Lhs: mfIndP, Rhs: mfIndFive},
	}}
	calleeExit := &icfg.Node{ID: 302, Kind: icfg.NodeExit, Fun: setFive}
	connect(calleeEntry, calleeExit)
	setFive.Entry = calleeEntry
	setFive.Nodes = []*icfg.Node{calleeEntry, calleeExit}

	main := &icfg.Function{Name: "main"}
	entry := &icfg.Node{ID: 1, Kind: icfg.NodeEntry, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KAddr, Lhs: mfIndFP, Obj: fAddr},
		{Kind: icfg.KAddr, Lhs: mfIndP, Obj: pObj},
	}}
	retNode := &icfg.Node{ID: 2, Kind: icfg.NodeReturn, Fun: main}
	callNode := &icfg.Node{ID: 3, Kind: icfg.NodeCall, Fun: main, Callsite: &icfg.Callsite{
		IsIndirect: true,
		CalleeVar:  mfIndFP,
		Args:       []state.VarID{mfIndP},
		ReturnNode: retNode,
	}}
	after := &icfg.Node{ID: 4, Kind: icfg.NodeIntra, Fun: main, Stmts: []icfg.Stmt{
		{Kind: icfg.KLoad, Lhs: mfIndV, Rhs: mfIndP},
		{Kind: icfg.KCmp, Lhs: mfIndCond, Rhs: mfIndV, Rhs2: mfIndFive, Pred: icfg.PredEQ},
	}}
	assertNode := &icfg.Node{ID: 5, Kind: icfg.NodeCall, Fun: main, Callsite: &icfg.Callsite{
		ExternName: "svf_assert",
		Args:       []state.VarID{mfIndCond},
	}}
	exit := &icfg.Node{ID: 6, Kind: icfg.NodeExit, Fun: main}

	connect(entry, callNode)
	connect(callNode, retNode)
	connect(retNode, after)
	connect(after, assertNode)
	connect(assertNode, exit)

	main.Entry = entry
	main.Nodes = []*icfg.Node{entry, callNode, retNode, after, assertNode, exit}
	return main, []*icfg.Function{setFive}
}
