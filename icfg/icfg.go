// Package icfg provides the concrete shapes of the inter-procedural
// control-flow graph the engine consumes: nodes, edges, statements,
// functions and callsites. Building this graph from source (LLVM IR
// parsing, points-to analysis, call-graph SCC computation) is out of
// scope — a real deployment gets it from a separate front end. This
// package only fixes the Go-shaped interface the core's transfer
// functions and dispatcher are written against.
package icfg

import (
	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/state"
)

// NodeID identifies an ICFG node.
type NodeID uint32

// NodeKind distinguishes the special node roles the spec calls out.
type NodeKind int

const (
	NodeIntra NodeKind = iota
	NodeEntry
	NodeCall
	NodeReturn
	NodeGlobal
	NodeExit
)

// Node is one program point: an ordered list of statements plus its edges.
type Node struct {
	ID    NodeID
	Kind  NodeKind
	Fun   *Function // nil for the global node
	Stmts []Stmt
	In    []*Edge
	Out   []*Edge

	// Callsite is non-nil iff Kind == NodeCall.
	Callsite *Callsite
}

// EdgeKind distinguishes intra-procedural edges from call/return edges.
type EdgeKind int

const (
	EdgeIntra EdgeKind = iota
	EdgeCall
	EdgeReturn
)

// Edge connects two nodes. Intra-procedural conditional edges carry the
// branch (or switch) condition variable and which successor they denote.
type Edge struct {
	Src, Dst *Node
	Kind     EdgeKind

	HasCond  bool
	Cond     state.VarID
	SuccIdx  int // 0 or 1 for a two-way branch
	IsSwitch bool
	CaseVal  int64 // meaningful when IsSwitch
}

// Callsite carries what the CallDispatcher needs to decide how to treat a
// call (external, indirect, recursive or direct); that classification is
// made by the dispatcher, not stored on the ICFG.
type Callsite struct {
	// Callee is the statically known target, or nil for an indirect call
	// (resolved dynamically through CalleeVar) or an unresolved external.
	Callee *Function
	// CalleeVar holds the function pointer's AddressSet for indirect
	// calls; meaningful only when Callee == nil and ExternName == "".
	CalleeVar state.VarID
	IsIndirect bool
	// ExternName names an external (non-ICFG) function for annotation
	// lookup; empty for calls into module-defined functions.
	ExternName string

	Args []state.VarID
	Lhs  state.VarID
	HasLhs bool

	// ReturnNode is the matching return-site node, used to copy state back
	// after a direct/indirect descent.
	ReturnNode *Node
}

// Function groups the nodes of one procedure. It does not hold a WTO: the
// engine builds one with wto.Build from Entry each time it analyses the
// function, and does not cache it.
type Function struct {
	Name      string
	Entry     *Node
	Params    []state.VarID
	Recursive bool
	Nodes     []*Node

	// Addr is the address an Addr-of-function statement produces for this
	// function, used to resolve an indirect callsite's function-pointer
	// value back to a Function; the zero Address (null object) means no
	// statement ever takes this function's address.
	Addr address.Address
}

// ReturnValueVar locates the variable a Ret statement at one of f's exit
// nodes binds, for a caller to read after f's analysis reaches a fixpoint.
func (f *Function) ReturnValueVar() (state.VarID, bool) {
	for _, n := range f.Nodes {
		if n.Kind != NodeExit {
			continue
		}
		for _, st := range n.Stmts {
			if st.Kind == KRet {
				return st.Rhs, true
			}
		}
	}
	return 0, false
}

// StmtKind tags which transfer function interp.Exec applies.
type StmtKind int

const (
	KAddr StmtKind = iota
	KCopy
	KBinary
	KCmp
	KLoad
	KStore
	KGep
	KSelect
	KPhi
	KCall
	KRet
	KUnaryOp
	KBranch
	// KConst binds Lhs to the literal interval [ConstLo, ConstHi]; the
	// consumed ICFG uses it for integer literals the front end already
	// folded to a concrete range.
	KConst
)

// CopyKind distinguishes the Copy statement's many source casts, per
// spec.md §4.4.
type CopyKind int

const (
	CopyValue CopyKind = iota
	CopySExt
	CopyZExt
	CopyTrunc
	CopySIToFP
	CopyUIToFP
	CopyFPToSI
	CopyFPToUI
	CopyFPTrunc
	CopyPtrToInt
	CopyIntToPtr
	CopyBitCast
)

// BinOp enumerates the Binary statement's operators; integer and floating
// variants are unified here exactly as spec.md §4.4 directs.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
)

// Predicate enumerates comparison predicates, already normalized to the
// six families the BranchRefiner's meet table understands.
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredGT
	PredGE
	PredLT
	PredLE
)

// PhiOperand is one (predecessor, value) pair of a Phi statement.
type PhiOperand struct {
	Pred *Node
	Var  state.VarID
}

// Stmt is a tagged union over every statement kind the interpreter
// handles. Only the fields relevant to Kind are meaningful; this mirrors
// the base-class-plus-subclass statement hierarchy of the original SVF
// source, flattened into one Go struct for exhaustive switch dispatch.
type Stmt struct {
	Kind StmtKind

	Lhs state.VarID
	Rhs state.VarID

	// Addr: Lhs = &Obj
	Obj     address.Address
	ObjType state.TypeInfo

	// Copy
	CopyKind CopyKind
	SrcBits  int
	DstBits  int

	// Binary / Cmp: operands are Rhs (op0) and Rhs2 (op1)
	Rhs2 state.VarID
	Bin  BinOp
	Pred Predicate

	// Gep: Lhs = Base advanced by Offset field positions (Offset may be
	// symbolic); ElemSize is the byte size of one element, used for byte
	// accounting (allocation sizes, memcpy element size), not to scale
	// Offset.
	Base     state.VarID
	Offset   state.VarID
	ElemSize int

	// Select: Res = Cond ? TrueVal : FalseVal
	Cond     state.VarID
	TrueVal  state.VarID
	FalseVal state.VarID

	// Phi
	PhiOperands []PhiOperand

	// Const
	ConstLo, ConstHi int64
}
