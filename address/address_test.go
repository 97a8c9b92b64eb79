package address

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubicYYY/SVF/interval"
)

func TestSetJoinMeet(t *testing.T) {
	a := FromSlice([]Address{AddrOf(1, 0), AddrOf(2, 0)})
	b := FromSlice([]Address{AddrOf(2, 0), AddrOf(3, 0)})

	j, changed := Join(a, b)
	assert.True(t, changed)
	assert.Equal(t, 3, j.Len())

	m := Meet(a, b)
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Contains(AddrOf(2, 0)))
}

func TestIntersects(t *testing.T) {
	a := Single(AddrOf(1, 0))
	b := Single(AddrOf(2, 0))
	assert.False(t, Intersects(a, b))
	c := FromSlice([]Address{AddrOf(1, 0), AddrOf(9, 0)})
	assert.True(t, Intersects(a, c))
}

func TestNullAddressIsNull(t *testing.T) {
	assert.True(t, AddrOf(NullObjectID, 0).IsNull())
	assert.False(t, AddrOf(1, 0).IsNull())
}

func TestGepAddrsConcreteOffset(t *testing.T) {
	base := AddrOf(5, 2)
	res := GepAddrs(base, interval.Singleton(3), 32)
	assert.Equal(t, 1, res.Len())
	assert.True(t, res.Contains(AddrOf(5, 5)))
}

func TestGepAddrsRangeOffsetIsClamped(t *testing.T) {
	base := AddrOf(5, 0)
	res := GepAddrs(base, interval.Range(interval.FromInt64(0), interval.FromInt64(1000)), 4)
	assert.LessOrEqual(t, res.Len(), 5) // 0..maxFieldLimit inclusive
}

func TestGepAddrsBottomOffsetIsEmpty(t *testing.T) {
	res := GepAddrs(AddrOf(1, 0), interval.Bottom(), 32)
	assert.True(t, res.IsEmpty())
}

func TestJoinClampedCollapsesToTop(t *testing.T) {
	a := WithTop{Set: Single(AddrOf(1, 0))}
	b := WithTop{Set: Single(AddrOf(2, 0))}
	joined, changed := JoinClamped(a, b, 1)
	assert.True(t, changed)
	assert.True(t, joined.IsTop())
}
