package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinMeet(t *testing.T) {
	a := Range(FromInt64(0), FromInt64(5))
	b := Range(FromInt64(3), FromInt64(10))

	j, changed := Join(a, b)
	assert.True(t, changed)
	assert.True(t, j.Equal(Range(FromInt64(0), FromInt64(10))))

	m := Meet(a, b)
	assert.True(t, m.Equal(Range(FromInt64(3), FromInt64(5))))
}

func TestMeetDisjointIsBottom(t *testing.T) {
	a := Range(FromInt64(0), FromInt64(1))
	b := Range(FromInt64(5), FromInt64(6))
	assert.True(t, Meet(a, b).IsBottom())
}

func TestWidenDropsGrowingBound(t *testing.T) {
	prev := Range(FromInt64(0), FromInt64(0))
	cur := Range(FromInt64(0), FromInt64(1))
	w := Widen(prev, cur)
	assert.True(t, w.Lb().IsFinite())
	assert.True(t, w.Ub().IsPosInf())
}

func TestNarrowPullsBackFiniteBound(t *testing.T) {
	widened := Range(NegInf(), PosInf())
	cur := Range(FromInt64(0), FromInt64(3))
	n := Narrow(widened, cur)
	assert.True(t, n.Equal(cur))
}

func TestWidenThenNarrowReachesExactFixpoint(t *testing.T) {
	// Simulates a loop counter 0,1,2,...,10: each iteration's join vs. the
	// previous value grows the upper bound, so widening jumps straight to
	// [0,+inf), and narrowing then pulls it back to the concrete [0,10].
	prev := Singleton(0)
	for k := int64(1); k <= 10; k++ {
		cur, _ := Join(prev, Singleton(k))
		prev = Widen(prev, cur)
	}
	assert.True(t, prev.Lb().IsFinite())
	assert.True(t, prev.Ub().IsPosInf())

	narrowed := Narrow(prev, Range(FromInt64(0), FromInt64(10)))
	assert.True(t, narrowed.Equal(Range(FromInt64(0), FromInt64(10))))
}

func TestArithmetic(t *testing.T) {
	a := Range(FromInt64(1), FromInt64(3))
	b := Range(FromInt64(2), FromInt64(4))
	assert.True(t, Add(a, b).Equal(Range(FromInt64(3), FromInt64(7))))
	assert.True(t, Sub(a, b).Equal(Range(FromInt64(-3), FromInt64(1))))
	assert.True(t, Mul(a, b).Equal(Range(FromInt64(2), FromInt64(12))))
}

func TestDivByRangeContainingZeroIsTop(t *testing.T) {
	a := Singleton(10)
	b := Range(FromInt64(-1), FromInt64(1))
	assert.True(t, Div(a, b).IsTop())
}

func TestTypeRangeSigned8(t *testing.T) {
	r := TypeRange(8, true)
	assert.True(t, r.Equal(Range(FromInt64(-128), FromInt64(127))))
}

func TestTypeRangeUnsigned8(t *testing.T) {
	r := TypeRange(8, false)
	assert.True(t, r.Equal(Range(FromInt64(0), FromInt64(255))))
}

func TestComparisons(t *testing.T) {
	assert.True(t, Lt(Singleton(1), Singleton(2)).Equal(BoolTrue))
	assert.True(t, Lt(Singleton(2), Singleton(1)).Equal(BoolFalse))
	assert.True(t, Lt(Range(FromInt64(0), FromInt64(5)), Singleton(3)).Equal(BoolUnknown))
	assert.True(t, Ge(Singleton(5), Singleton(5)).Equal(BoolTrue))
}

func TestShiftJoinsOverRange(t *testing.T) {
	a := Singleton(1)
	b := Range(FromInt64(0), FromInt64(2))
	r := Shl(a, b)
	assert.True(t, r.Equal(Range(FromInt64(1), FromInt64(4))))
}
