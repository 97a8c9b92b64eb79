package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubicYYY/SVF/config"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/internal/fixture"
	"github.com/cubicYYY/SVF/state"
)

func TestStraightLineRunsCleanlyWithNoAssertions(t *testing.T) {
	e := New(config.Default(), nil)
	err := e.Run(context.Background(), fixture.StraightLine(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, e.Stats.Functions)
}

func TestLoopConvergesViaWidenThenNarrow(t *testing.T) {
	e := New(config.Default(), nil)
	fn := fixture.LoopCountUp(10)
	err := e.Run(context.Background(), fn, nil, nil)
	require.NoError(t, err)
	assert.Greater(t, e.Stats.WidenSteps, 0)
	assert.Greater(t, e.Stats.WTOCycles, 0)
}

func TestContextCancellationStopsTheWalk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(config.Default(), nil)
	err := e.Run(ctx, fixture.LoopCountUp(10), nil, nil)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDirectCallPropagatesWritesThroughAliasedPointer(t *testing.T) {
	e := New(config.Default(), nil)
	fn := fixture.DirectCallWritesThroughPointer()
	err := e.Run(context.Background(), fn, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, e.Stats.FailedAsserts)
}

func TestRecursiveCallNeverDescendsAndHavocsGlobalWrite(t *testing.T) {
	e := New(config.Default(), nil)
	fn := fixture.RecursiveHavocsGlobalWrite()
	err := e.Run(context.Background(), fn, nil, nil)
	assert.Greater(t, e.Stats.RecursiveCalls, 0)
	// The havoc'd global can no longer be proven equal to the 1 main
	// stored before the call, so the assertion must fail.
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssertionFailed))
	assert.Equal(t, 1, e.Stats.FailedAsserts)
}

func TestIndirectCallResolvesSingletonTargetAndEntersItsWTO(t *testing.T) {
	e := New(config.Default(), nil)
	fn, universe := fixture.IndirectCallEntersResolvedTarget()
	err := e.Run(context.Background(), fn, nil, universe)
	assert.NoError(t, err)
	assert.Greater(t, e.Stats.IndirectCalls, 0)
	assert.Equal(t, 0, e.Stats.FailedAsserts)
	assert.Equal(t, 2, e.Stats.Functions)
}

// assertFn builds a three-node function (entry, svf_assert call, exit)
// that binds cond to [condLo, condHi] and asserts it.
func assertFn(cond state.VarID, condLo, condHi int64) *icfg.Function {
	fn := &icfg.Function{Name: "checks"}
	entry := &icfg.Node{ID: 1, Kind: icfg.NodeEntry, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KConst, Lhs: cond, ConstLo: condLo, ConstHi: condHi},
	}}
	callNode := &icfg.Node{ID: 2, Kind: icfg.NodeCall, Fun: fn, Callsite: &icfg.Callsite{
		ExternName: "svf_assert",
		Args:       []state.VarID{cond},
	}}
	exit := &icfg.Node{ID: 3, Kind: icfg.NodeExit, Fun: fn, Stmts: []icfg.Stmt{
		{Kind: icfg.KRet, Rhs: cond},
	}}
	e1 := &icfg.Edge{Src: entry, Dst: callNode, Kind: icfg.EdgeIntra}
	entry.Out = append(entry.Out, e1)
	callNode.In = append(callNode.In, e1)
	e2 := &icfg.Edge{Src: callNode, Dst: exit, Kind: icfg.EdgeIntra}
	callNode.Out = append(callNode.Out, e2)
	exit.In = append(exit.In, e2)
	fn.Entry = entry
	fn.Nodes = []*icfg.Node{entry, callNode, exit}
	return fn
}

func TestProvablyTrueAssertionPasses(t *testing.T) {
	e := New(config.Default(), nil)
	fn := assertFn(1, 1, 1)
	err := e.Run(context.Background(), fn, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, e.Stats.Assertions)
	assert.Equal(t, 0, e.Stats.FailedAsserts)
}

func TestUnprovableAssertionFails(t *testing.T) {
	e := New(config.Default(), nil)
	fn := assertFn(1, 0, 1)
	err := e.Run(context.Background(), fn, nil, nil)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssertionFailed))
	assert.Equal(t, 1, e.Stats.FailedAsserts)
}
