package icfg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubicYYY/SVF/state"
)

func TestReturnValueVarFindsRetInExitNode(t *testing.T) {
	fn := &Function{Name: "f"}
	exit := &Node{ID: 1, Kind: NodeExit, Fun: fn, Stmts: []Stmt{
		{Kind: KRet, Rhs: 7},
	}}
	fn.Nodes = []*Node{exit}

	v, ok := fn.ReturnValueVar()
	assert.True(t, ok)
	assert.Equal(t, state.VarID(7), v)
}

func TestReturnValueVarAbsentWhenNoExitHasRet(t *testing.T) {
	fn := &Function{Name: "f"}
	exit := &Node{ID: 1, Kind: NodeExit, Fun: fn}
	fn.Nodes = []*Node{exit}

	_, ok := fn.ReturnValueVar()
	assert.False(t, ok)
}

func TestReturnValueVarIgnoresNonExitNodes(t *testing.T) {
	fn := &Function{Name: "f"}
	intra := &Node{ID: 1, Kind: NodeIntra, Fun: fn, Stmts: []Stmt{
		{Kind: KRet, Rhs: 99},
	}}
	fn.Nodes = []*Node{intra}

	_, ok := fn.ReturnValueVar()
	assert.False(t, ok)
}
