package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/interval"
)

func TestJoinSameKind(t *testing.T) {
	a := FromInterval(interval.Singleton(1))
	b := FromInterval(interval.Singleton(2))
	j, changed := Join(a, b)
	assert.True(t, changed)
	assert.True(t, j.IsInterval())
	assert.True(t, j.Interval().Equal(interval.Range(interval.FromInt64(1), interval.FromInt64(2))))
}

func TestJoinMixedKindsIsBottom(t *testing.T) {
	a := FromInterval(interval.Singleton(1))
	b := FromAddressSet(address.Single(address.AddrOf(1, 0)))
	j, _ := Join(a, b)
	assert.True(t, j.IsBottom())
}

func TestJoinWithBottomIsIdentity(t *testing.T) {
	a := FromInterval(interval.Singleton(1))
	j, changed := Join(a, Bottom())
	assert.False(t, changed)
	assert.True(t, Equal(a, j))
}

func TestMeetMixedKindsIsBottom(t *testing.T) {
	a := FromInterval(interval.Singleton(1))
	b := FromAddressSet(address.Single(address.AddrOf(1, 0)))
	assert.True(t, Meet(a, b).IsBottom())
}

func TestMissingFallbacks(t *testing.T) {
	assert.True(t, Bottom().Interval().IsTop())
	assert.True(t, Bottom().AddressSet().IsEmpty())
}

func TestWidenAddressJoinsRatherThanInfinitizes(t *testing.T) {
	prev := FromAddressSet(address.Single(address.AddrOf(1, 0)))
	cur := FromAddressSet(address.Single(address.AddrOf(2, 0)))
	w := Widen(prev, cur)
	assert.True(t, w.IsAddress())
	assert.Equal(t, 2, w.AddressSet().Len())
}
